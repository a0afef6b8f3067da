package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"sharpchess/internal/logging"
)

var defaultOptions = map[string]map[string]string{
	TypeStockfish: {"UCI_ShowWDL": "true"},
	TypeLeela:     {"UCI_ShowWDL": "true"},
}

// Engine drives a single UCI engine process. Searches are serialized.
type Engine struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	in      io.WriteCloser
	lines   chan string
	closed  bool
	multiPV int

	shutdownTimeout time.Duration
}

// New starts the engine binary described by cfg and completes the UCI
// handshake.
func New(cfg Config) (*Engine, error) {
	defaults, ok := defaultOptions[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, cfg.Type)
	}
	cmd := exec.Command(cfg.Path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &OpError{Op: "start", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &OpError{Op: "start", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &OpError{Op: "start", Err: err}
	}

	e := newEngine(stdout, stdin)
	e.cmd = cmd
	if cfg.ShutdownTimeout > 0 {
		e.shutdownTimeout = cfg.ShutdownTimeout
	}

	opts := make(map[string]string, len(defaults)+len(cfg.Options))
	for k, v := range defaults {
		opts[k] = v
	}
	for k, v := range cfg.Options {
		opts[k] = v
	}

	timeout := cfg.StartTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.handshake(ctx, opts); err != nil {
		_ = e.Close()
		return nil, err
	}
	logging.Logger.Info().Str("type", cfg.Type).Str("path", cfg.Path).Msg("engine initialized")
	return e, nil
}

func newEngine(r io.Reader, w io.WriteCloser) *Engine {
	e := &Engine{
		in:              w,
		lines:           make(chan string, 64),
		multiPV:         1,
		shutdownTimeout: 5 * time.Second,
	}
	go func() {
		defer close(e.lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			e.lines <- sc.Text()
		}
	}()
	return e
}

func (e *Engine) handshake(ctx context.Context, opts map[string]string) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if err := e.waitFor(ctx, "uciok"); err != nil {
		return err
	}
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := e.send(fmt.Sprintf("setoption name %s value %s", name, opts[name])); err != nil {
			return err
		}
	}
	return e.ready(ctx)
}

func (e *Engine) ready(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	return e.waitFor(ctx, "readyok")
}

func (e *Engine) send(cmd string) error {
	logging.Debugf("uci > %s", cmd)
	if _, err := io.WriteString(e.in, cmd+"\n"); err != nil {
		return &OpError{Op: "write", Err: err}
	}
	return nil
}

// waitFor discards output until a line starting with token arrives.
func (e *Engine) waitFor(ctx context.Context, token string) error {
	for {
		select {
		case <-ctx.Done():
			return &OpError{Op: "wait " + token, Err: ctx.Err()}
		case line, ok := <-e.lines:
			if !ok {
				return &OpError{Op: "wait " + token, Err: io.ErrUnexpectedEOF}
			}
			logging.Debugf("uci < %s", line)
			if strings.HasPrefix(line, token) {
				return nil
			}
		}
	}
}

// Analyse searches fen within lim and returns the last reported info for
// each principal variation.
func (e *Engine) Analyse(ctx context.Context, fen string, lim Limit) (*Analysis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, &OpError{Op: "analyse", Err: err}
	}

	multiPV := lim.MultiPV
	if multiPV < 1 {
		multiPV = 1
	}
	if multiPV != e.multiPV {
		if err := e.send("setoption name MultiPV value " + strconv.Itoa(multiPV)); err != nil {
			return nil, err
		}
		e.multiPV = multiPV
	}
	// Output left over from an aborted search is discarded up to readyok.
	if err := e.ready(ctx); err != nil {
		return nil, err
	}

	if err := e.send("position fen " + fen); err != nil {
		return nil, err
	}
	if err := e.send(goCommand(lim)); err != nil {
		return nil, err
	}

	byPV := make(map[int]Line)
	for {
		select {
		case <-ctx.Done():
			e.abort()
			return nil, &OpError{Op: "analyse", Err: ctx.Err()}
		case line, ok := <-e.lines:
			if !ok {
				return nil, &OpError{Op: "analyse", Err: io.ErrUnexpectedEOF}
			}
			if strings.HasPrefix(line, "bestmove") {
				logging.Debugf("uci < %s", line)
				return collect(byPV, line)
			}
			if l, ok := ParseInfo(line); ok {
				if l.MultiPV <= multiPV {
					byPV[l.MultiPV] = l
				}
			}
		}
	}
}

// abort stops a running search and drains output up to its bestmove.
func (e *Engine) abort() {
	if err := e.send("stop"); err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.shutdownTimeout)
	defer cancel()
	if err := e.waitFor(ctx, "bestmove"); err != nil {
		logging.Logger.Warn().Err(err).Msg("engine did not acknowledge stop")
	}
}

func collect(byPV map[int]Line, bestLine string) (*Analysis, error) {
	best, ponder := parseBestMove(bestLine)
	res := &Analysis{BestMove: best, Ponder: ponder}
	for _, l := range byPV {
		res.Lines = append(res.Lines, l)
	}
	sort.Slice(res.Lines, func(i, j int) bool { return res.Lines[i].MultiPV < res.Lines[j].MultiPV })
	if len(res.Lines) == 0 {
		return res, ErrNoResult
	}
	return res, nil
}

func goCommand(lim Limit) string {
	switch {
	case lim.MoveTime > 0:
		return "go movetime " + strconv.FormatInt(lim.MoveTime.Milliseconds(), 10)
	case lim.Depth > 0:
		return "go depth " + strconv.Itoa(lim.Depth)
	}
	return "go depth " + strconv.Itoa(DefaultDepth)
}

// Close asks the engine to quit and waits for the process, killing it when
// it does not exit in time.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	_ = e.send("quit")
	_ = e.in.Close()
	if e.cmd == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return &OpError{Op: "quit", Err: err}
		}
		return nil
	case <-time.After(e.shutdownTimeout):
		_ = e.cmd.Process.Kill()
		<-done
		return &OpError{Op: "quit", Err: context.DeadlineExceeded}
	}
}
