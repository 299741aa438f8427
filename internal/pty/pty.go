// Package pty runs a local shell behind a pseudo-terminal. It exposes the
// small surface the CLI needs: start a session, write a line, read a chunk,
// detect exit.
//
// WaitingForInput is a heuristic: a session that has produced no output for
// PromptTimeout is assumed to be sitting at a prompt. It is approximate and
// says nothing about what the child process is actually doing.
package pty

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/kballard/go-shellquote"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

// Config describes the shell to spawn.
type Config struct {
	Shell         string // command line, split with shell quoting rules
	Term          string
	Cols          uint16
	Rows          uint16
	PromptTimeout time.Duration
	MaxBuffer     int
	Dir           string
}

// DefaultConfig returns /bin/bash on an 80x24 xterm-256color terminal.
func DefaultConfig() Config {
	return Config{
		Shell:         "/bin/bash",
		Term:          "xterm-256color",
		Cols:          80,
		Rows:          24,
		PromptTimeout: 30 * time.Second,
		MaxBuffer:     1 << 20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.Shell) == "" {
		c.Shell = d.Shell
	}
	if c.Term == "" {
		c.Term = d.Term
	}
	if c.Cols == 0 {
		c.Cols = d.Cols
	}
	if c.Rows == 0 {
		c.Rows = d.Rows
	}
	if c.PromptTimeout <= 0 {
		c.PromptTimeout = d.PromptTimeout
	}
	if c.MaxBuffer <= 0 {
		c.MaxBuffer = d.MaxBuffer
	}
	return c
}

// State is the coarse lifecycle of a session.
type State int

const (
	StateReady State = iota
	StateRunning
	StateWaiting
	StateExited
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Output is one read result.
type Output struct {
	Content         string
	WaitingForInput bool
	Exited          bool
}

// ErrNotStarted is returned by I/O on a session that was never spawned.
var ErrNotStarted = errors.New("pty not initialized")

// Session is one running shell.
type Session struct {
	cfg  Config
	cmd  *exec.Cmd
	ptmx *os.File

	out    chan []byte
	done   chan struct{}
	closed chan struct{}
	once   sync.Once

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	history      []byte
	exitCode     int
	exitReported bool
}

// Spawn starts cfg.Shell in a new pseudo-terminal. The process is killed when
// ctx is cancelled.
func Spawn(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	argv, err := shellquote.Split(cfg.Shell)
	if err != nil || len(argv) == 0 {
		return nil, apierr.Usage("Invalid shell %q: %v", cfg.Shell, err)
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, apierr.Generic("Shell not found: %s", argv[0])
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(),
		"TERM="+cfg.Term,
		"COLUMNS="+strconv.Itoa(int(cfg.Cols)),
		"LINES="+strconv.Itoa(int(cfg.Rows)),
	)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cfg.Cols, Rows: cfg.Rows})
	if err != nil {
		return nil, apierr.Wrap(apierr.KindGeneric, err, "Failed to spawn PTY: %v", err)
	}

	s := &Session{
		cfg:          cfg,
		cmd:          cmd,
		ptmx:         ptmx,
		out:          make(chan []byte, 64),
		done:         make(chan struct{}),
		closed:       make(chan struct{}),
		state:        StateRunning,
		lastActivity: time.Now(),
	}
	go s.readLoop()
	go s.waitLoop()
	return s, nil
}

func (s *Session) readLoop() {
	defer close(s.out)
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.touch()
			select {
			case s.out <- chunk:
			case <-s.closed:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) waitLoop() {
	err := s.cmd.Wait()
	code := 0
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			code = ee.ExitCode()
		} else {
			code = -1
		}
	}
	s.mu.Lock()
	s.exitCode = code
	s.state = StateExited
	s.mu.Unlock()
	close(s.done)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	if s.state == StateWaiting {
		s.state = StateRunning
	}
	s.mu.Unlock()
}

func (s *Session) record(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, chunk...)
	if over := len(s.history) - s.cfg.MaxBuffer; over > 0 {
		s.history = s.history[over:]
	}
}

// idle reports whether the prompt timeout has elapsed and marks the session
// as waiting when it has.
func (s *Session) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateExited {
		return false
	}
	waiting := time.Since(s.lastActivity) > s.cfg.PromptTimeout
	if waiting {
		s.state = StateWaiting
	}
	return waiting
}

// ─── I/O ────────────────────────────────────────────────────────────────────────

// Send writes raw input.
func (s *Session) Send(input string) error {
	if s == nil || s.ptmx == nil {
		return ErrNotStarted
	}
	if _, err := s.ptmx.Write([]byte(input)); err != nil {
		return apierr.Wrap(apierr.KindGeneric, err, "Failed to write to PTY: %v", err)
	}
	s.touch()
	return nil
}

// SendLine writes line followed by a newline.
func (s *Session) SendLine(line string) error {
	return s.Send(line + "\n")
}

// Read blocks until output arrives, the process exits or ctx is done.
func (s *Session) Read(ctx context.Context) (Output, error) {
	if s == nil || s.ptmx == nil {
		return Output{}, ErrNotStarted
	}
	select {
	case chunk, ok := <-s.out:
		if ok {
			s.record(chunk)
			return Output{Content: string(chunk)}, nil
		}
		<-s.done
		return s.exitOutput(), nil
	case <-ctx.Done():
		return Output{WaitingForInput: s.idle()}, ctx.Err()
	}
}

// ReadTimeout waits at most d for output. An empty Output with
// WaitingForInput set means the session looks idle at a prompt.
func (s *Session) ReadTimeout(d time.Duration) (Output, error) {
	if s == nil || s.ptmx == nil {
		return Output{}, ErrNotStarted
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case chunk, ok := <-s.out:
		if ok {
			s.record(chunk)
			return Output{Content: string(chunk)}, nil
		}
		select {
		case <-s.done:
			return s.exitOutput(), nil
		case <-timer.C:
			return Output{}, nil
		}
	case <-timer.C:
		return Output{WaitingForInput: s.idle()}, nil
	}
}

func (s *Session) exitOutput() Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Output{Exited: true}
	if !s.exitReported {
		s.exitReported = true
		out.Content = fmt.Sprintf("\n[Process exited with status: %d]", s.exitCode)
	}
	return out
}

// Execute sends command and collects output until the session has been quiet
// for quiet, looks idle, or exits. Like WaitingForInput this is a best-effort
// guess at "the command finished".
func (s *Session) Execute(ctx context.Context, command string, quiet time.Duration) (string, error) {
	if quiet <= 0 {
		quiet = 500 * time.Millisecond
	}
	if err := s.SendLine(command); err != nil {
		return "", err
	}

	const tick = 100 * time.Millisecond
	var b strings.Builder
	var silent time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return b.String(), err
		}
		out, err := s.ReadTimeout(tick)
		if err != nil {
			return b.String(), err
		}
		if out.Content != "" {
			b.WriteString(out.Content)
			silent = 0
		} else {
			silent += tick
		}
		if out.Exited || out.WaitingForInput || silent >= quiet {
			return b.String(), nil
		}
	}
}

// ─── Control ────────────────────────────────────────────────────────────────────

// Resize changes the terminal window size.
func (s *Session) Resize(cols, rows uint16) error {
	if s == nil || s.ptmx == nil {
		return ErrNotStarted
	}
	s.mu.Lock()
	s.cfg.Cols, s.cfg.Rows = cols, rows
	s.mu.Unlock()
	return pty.Setsize(s.ptmx, &pty.Winsize{Cols: cols, Rows: rows})
}

// Kill terminates the shell and closes the terminal.
func (s *Session) Kill() error {
	if s == nil || s.ptmx == nil {
		return nil
	}
	var err error
	select {
	case <-s.done:
	default:
		if s.cmd.Process != nil {
			err = s.cmd.Process.Kill()
		}
	}
	s.once.Do(func() { close(s.closed) })
	_ = s.ptmx.Close()
	s.mu.Lock()
	s.state = StateExited
	s.mu.Unlock()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return apierr.Wrap(apierr.KindGeneric, err, "Failed to kill PTY: %v", err)
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether the session accepts input.
func (s *Session) Ready() bool {
	st := s.State()
	return st == StateRunning || st == StateWaiting
}

// Lines returns the complete lines seen so far, bounded by MaxBuffer.
func (s *Session) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := string(s.history)
	i := strings.LastIndexByte(text, '\n')
	if i < 0 {
		return nil
	}
	return strings.SplitAfter(text[:i+1], "\n")[:strings.Count(text[:i+1], "\n")]
}

// ClearOutput drops recorded history.
func (s *Session) ClearOutput() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}
