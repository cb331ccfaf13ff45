package analysis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vytor/blundercheck/internal/logger"
)

// ErrEngineClosed is returned once the engine process has exited.
var ErrEngineClosed = errors.New("stockfish: engine closed")

// EngineConfig describes how to start and tune the engine process.
type EngineConfig struct {
	Path    string
	Threads int
	// EvalTimeout bounds a single evaluation; 0 disables the bound.
	EvalTimeout time.Duration
}

// Engine is a UCI engine process. It serves one evaluation at a time.
type Engine struct {
	cfg EngineConfig
	log *logger.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	done  chan struct{}
}

// NewEngine starts the engine process and completes the UCI handshake.
func NewEngine(ctx context.Context, cfg EngineConfig) (*Engine, error) {
	log := logger.FromContext(ctx).WithPrefix("stockfish")

	if cfg.Path == "" {
		cfg.Path = "stockfish"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}

	log.Info("starting stockfish engine: %s", cfg.Path)
	cmd := exec.Command(cfg.Path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Error("failed to create stdin pipe: %v", err)
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error("failed to create stdout pipe: %v", err)
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		log.Error("failed to start stockfish: %v", err)
		return nil, err
	}

	engine := &Engine{
		cfg:   cfg,
		log:   log,
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	go engine.readLoop(stdout)

	log.Debug("initializing UCI protocol")
	if err := engine.init(ctx); err != nil {
		log.Error("failed to initialize UCI: %v", err)
		_ = engine.Close()
		return nil, err
	}

	log.Info("stockfish engine ready (threads=%d)", cfg.Threads)
	return engine, nil
}

func (e *Engine) readLoop(stdout io.Reader) {
	defer close(e.lines)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		select {
		case e.lines <- strings.TrimSpace(scanner.Text()):
		case <-e.done:
			return
		}
	}
}

func (e *Engine) init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sendLocked("uci"); err != nil {
		return err
	}
	if err := e.waitForLocked(ctx, "uciok", 5*time.Second); err != nil {
		return err
	}
	if err := e.sendLocked(fmt.Sprintf("setoption name Threads value %d", e.cfg.Threads)); err != nil {
		return err
	}
	return e.readyLocked(ctx)
}

func (e *Engine) readyLocked(ctx context.Context) error {
	if err := e.sendLocked("isready"); err != nil {
		return err
	}
	return e.waitForLocked(ctx, "readyok", 5*time.Second)
}

// NewGame clears engine state between games.
func (e *Engine) NewGame(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return ErrEngineClosed
	}
	if err := e.sendLocked("ucinewgame"); err != nil {
		return err
	}
	return e.readyLocked(ctx)
}

// Close asks the engine to quit and waits for the process, killing it if
// it does not exit in time. Safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return nil
	}

	e.log.Debug("closing stockfish engine")
	_ = e.sendLocked("quit")
	_ = e.stdin.Close()
	close(e.done)

	waited := make(chan error, 1)
	go func() { waited <- e.cmd.Wait() }()

	var err error
	select {
	case err = <-waited:
	case <-time.After(3 * time.Second):
		e.log.Warn("stockfish did not quit, killing process")
		_ = e.cmd.Process.Kill()
		err = <-waited
	}
	e.cmd = nil

	if err != nil {
		e.log.Debug("stockfish process exited: %v", err)
	} else {
		e.log.Debug("stockfish process exited cleanly")
	}
	return err
}

// Evaluate searches fen to depth and returns the final score, relative to
// the side to move.
func (e *Engine) Evaluate(ctx context.Context, fen string, depth int) (Score, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return Score{}, ErrEngineClosed
	}
	if depth <= 0 {
		depth = 18
	}

	log := e.log.WithField("depth", depth)
	start := time.Now()

	if err := e.sendLocked("position fen " + fen); err != nil {
		log.Error("failed to set position: %v", err)
		return Score{}, err
	}
	if err := e.sendLocked(fmt.Sprintf("go depth %d", depth)); err != nil {
		log.Error("failed to start analysis: %v", err)
		return Score{}, err
	}

	var timeout <-chan time.Time
	if e.cfg.EvalTimeout > 0 {
		timer := time.NewTimer(e.cfg.EvalTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var best Score
	var found bool
	for {
		select {
		case <-ctx.Done():
			log.Warn("evaluation cancelled: %v", ctx.Err())
			e.stopSearchLocked()
			return Score{}, ctx.Err()
		case <-timeout:
			log.Error("evaluation timed out after %v", e.cfg.EvalTimeout)
			e.stopSearchLocked()
			return Score{}, fmt.Errorf("stockfish timeout after %v", e.cfg.EvalTimeout)
		case line, ok := <-e.lines:
			if !ok {
				log.Error("stockfish output closed during search")
				return Score{}, ErrEngineClosed
			}
			if strings.HasPrefix(line, "info") {
				if s, ok := parseScore(line); ok {
					best, found = s, true
				}
				continue
			}
			if strings.HasPrefix(line, "bestmove") {
				if !found {
					// Terminal positions report "bestmove (none)" with no score
					// on some builds; the side to move is either mated or stalemated.
					return Score{}, fmt.Errorf("stockfish returned no score for %q", fen)
				}
				log.Debug("evaluation completed in %v: %s", time.Since(start), best)
				return best, nil
			}
		}
	}
}

// stopSearchLocked halts a running search and drains its output so the
// next command starts from a clean stream.
func (e *Engine) stopSearchLocked() {
	if err := e.sendLocked("stop"); err != nil {
		return
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-e.lines:
			if !ok || strings.HasPrefix(line, "bestmove") {
				return
			}
		case <-deadline:
			return
		}
	}
}

// parseScore extracts "score cp N" or "score mate N" from an info line.
// Bound scores from aspiration windows are skipped.
func parseScore(line string) (Score, bool) {
	parts := strings.Fields(line)
	for i := 0; i < len(parts); i++ {
		if parts[i] != "score" || i+2 >= len(parts) {
			continue
		}
		if i+3 < len(parts) && (parts[i+3] == "lowerbound" || parts[i+3] == "upperbound") {
			return Score{}, false
		}
		v, err := strconv.Atoi(parts[i+2])
		if err != nil {
			return Score{}, false
		}
		switch parts[i+1] {
		case "cp":
			return Centipawns(v), true
		case "mate":
			return MateIn(v), true
		}
	}
	return Score{}, false
}

func (e *Engine) sendLocked(cmd string) error {
	_, err := io.WriteString(e.stdin, cmd+"\n")
	return err
}

func (e *Engine) waitForLocked(ctx context.Context, marker string, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			e.log.Error("timeout waiting for %s", marker)
			return fmt.Errorf("timeout waiting for %s", marker)
		case line, ok := <-e.lines:
			if !ok {
				return ErrEngineClosed
			}
			if strings.Contains(line, marker) {
				return nil
			}
		}
	}
}

// WithEngine starts an engine, hands it to fn and always shuts it down,
// whether fn succeeds, fails or panics.
func WithEngine(ctx context.Context, cfg EngineConfig, fn func(*Engine) error) (err error) {
	engine, err := NewEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil && err == nil {
			logger.FromContext(ctx).WithPrefix("stockfish").Debug("engine close: %v", cerr)
		}
	}()
	return fn(engine)
}
