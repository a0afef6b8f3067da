package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sharpchess/internal/logging"
)

// ResultTTL is how long a finished result stays available for polling.
const ResultTTL = 24 * time.Hour

// Hub runs one worker per job kind.
type Hub struct {
	slots  map[Kind]*Slot
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub starts a worker for each kind in runners and the cleanup loop.
// rec may be nil.
func NewHub(runners map[Kind]RunFunc, rec Recorder) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{slots: make(map[Kind]*Slot, len(runners)), cancel: cancel}
	for kind, run := range runners {
		s := newSlot(kind, run, rec)
		h.slots[kind] = s
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			s.loop(ctx)
		}()
	}
	// cleanup goroutine
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				h.expire(now, ResultTTL)
			}
		}
	}()
	return h
}

// Slot returns the slot for kind.
func (h *Hub) Slot(kind Kind) (*Slot, error) {
	s, ok := h.slots[kind]
	if !ok {
		return nil, fmt.Errorf("no worker for job kind %q", kind)
	}
	return s, nil
}

// Submit queues req on the slot of kind.
func (h *Hub) Submit(kind Kind, req Request) (Job, error) {
	s, err := h.Slot(kind)
	if err != nil {
		return Job{}, err
	}
	return s.Submit(req), nil
}

func (h *Hub) expire(now time.Time, ttl time.Duration) {
	for kind, s := range h.slots {
		if s.expire(now, ttl) {
			logging.Debugf("%s: expired finished result", kind)
		}
	}
}

// Close stops all workers, cancelling running jobs, and waits for them.
func (h *Hub) Close() {
	h.cancel()
	h.wg.Wait()
}
