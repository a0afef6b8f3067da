package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"sharpchess/internal/logging"
)

// Slot holds at most one pending job of a kind and the state of the most
// recent submission. A newer submission replaces the pending one and
// cancels the one running.
type Slot struct {
	kind     Kind
	run      RunFunc
	recorder Recorder
	wake     chan struct{}

	mu        sync.Mutex
	pending   *Job
	latest    Snapshot
	runningID uuid.UUID
	cancelRun context.CancelFunc
}

func newSlot(kind Kind, run RunFunc, rec Recorder) *Slot {
	return &Slot{
		kind:     kind,
		run:      run,
		recorder: rec,
		wake:     make(chan struct{}, 1),
		latest:   Snapshot{Kind: kind, Status: StatusIdle},
	}
}

// Kind reports the slot's job kind.
func (s *Slot) Kind() Kind { return s.kind }

// Submit queues req, replacing any job that has not started yet.
func (s *Slot) Submit(req Request) Job {
	now := time.Now()
	job := Job{ID: uuid.New(), Kind: s.kind, Request: req.Normalize(s.kind), SubmittedAt: now}

	s.mu.Lock()
	if s.pending != nil {
		logging.Debugf("%s: dropping pending job %s", s.kind, s.pending.ID)
	}
	if s.cancelRun != nil {
		logging.Debugf("%s: cancelling running job %s", s.kind, s.runningID)
		s.cancelRun()
	}
	s.pending = &job
	s.latest = Snapshot{
		ID:        job.ID,
		Kind:      s.kind,
		Status:    StatusInProgress,
		Request:   job.Request,
		UpdatedAt: now,
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return job
}

// Latest returns the state of the most recent submission.
func (s *Slot) Latest() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Lookup returns the state of submission id. Ids other than the most
// recent one report StatusSuperseded; uuid.Nil means the most recent.
func (s *Slot) Lookup(id uuid.UUID) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == uuid.Nil || id == s.latest.ID {
		return s.latest
	}
	return Snapshot{ID: id, Kind: s.kind, Status: StatusSuperseded, UpdatedAt: s.latest.UpdatedAt}
}

func (s *Slot) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		for {
			s.mu.Lock()
			job := s.pending
			s.pending = nil
			if job == nil {
				s.mu.Unlock()
				break
			}
			jobCtx, cancel := context.WithCancel(ctx)
			s.runningID = job.ID
			s.cancelRun = cancel
			s.mu.Unlock()

			s.process(ctx, jobCtx, *job)
			cancel()
		}
	}
}

func (s *Slot) process(parent, ctx context.Context, job Job) {
	start := time.Now()
	logging.Logger.Info().Str("kind", string(job.Kind)).Str("id", job.ID.String()).
		Str("fen", job.Request.FEN).Int("depth", job.Request.Depth).Msg("job started")
	result, err := s.run(ctx, job)
	result, fromCache := unwrapReused(result)
	took := time.Since(start)

	s.mu.Lock()
	s.runningID = uuid.Nil
	s.cancelRun = nil
	snap := Snapshot{ID: job.ID, Kind: job.Kind, Request: job.Request, UpdatedAt: time.Now()}
	if err != nil {
		snap.Status = StatusFailed
		snap.Error = err.Error()
	} else {
		snap.Status = StatusCompleted
		snap.Result = result
	}
	if s.latest.ID == job.ID {
		s.latest = snap
	}
	s.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		logging.Debugf("%s: job %s cancelled after %s", job.Kind, job.ID, took)
		return
	}
	switch {
	case err != nil:
		logging.Logger.Error().Err(err).Str("kind", string(job.Kind)).Str("id", job.ID.String()).Msg("job failed")
	case fromCache:
		logging.Logger.Info().Str("kind", string(job.Kind)).Str("id", job.ID.String()).Msg("job answered from cache")
		return
	default:
		logging.Logger.Info().Str("kind", string(job.Kind)).Str("id", job.ID.String()).Dur("took", took).Msg("job completed")
	}
	if s.recorder != nil {
		if rerr := s.recorder.Record(parent, snap, took); rerr != nil {
			logging.Logger.Warn().Err(rerr).Str("id", job.ID.String()).Msg("record job")
		}
	}
}

// expire resets a finished snapshot older than ttl to idle.
func (s *Slot) expire(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.latest.Status {
	case StatusCompleted, StatusFailed:
	default:
		return false
	}
	if now.Sub(s.latest.UpdatedAt) <= ttl {
		return false
	}
	s.latest = Snapshot{Kind: s.kind, Status: StatusIdle}
	return true
}
