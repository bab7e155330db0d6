package supervise

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
)

// ExecutorConfig wires one supervised command invocation.
type ExecutorConfig struct {
	// Workdir is the working directory for the child process.
	Workdir string

	// LogFile is the append-only output log. Parent directories are
	// created as needed; repeated runs on the same path append.
	LogFile string

	// Callback receives every classified line. Required.
	Callback Callback

	// DefaultPhase tracks progress whenever no declared phase is active.
	// Required.
	DefaultPhase *DefaultPhase

	// Phases are the declared phases, in expected activation order. Their
	// weights must sum to at most 100.
	Phases []*Phase

	// PercentageStart and PercentageWeight are this command's slice of the
	// overall pipeline range: intermediate emissions scale local progress
	// into [PercentageStart, PercentageStart+PercentageWeight]. A zero
	// weight defaults to the remainder up to 100.
	PercentageStart  int
	PercentageWeight int

	// PromptCheckChars narrows prompt re-evaluation to lines ending in
	// one of these runes. Tool-specific; defaults to ":?".
	PromptCheckChars string

	// BufferSize overrides the coordinator's rolling buffer cap.
	BufferSize int

	// Input is forwarded to the child's stdin. Defaults to os.Stdin.
	Input io.Reader

	// Logger receives debug events. Defaults to discard.
	Logger logr.Logger
}

// Result reports the outcome of one supervised command.
type Result struct {
	// ExitCode is the raw child exit code; -1 when killed by a signal.
	ExitCode int

	// TimedOut is set when the context expired and the child was
	// terminated by the executor rather than exiting on its own.
	TimedOut bool
}

// Executor runs exactly one external command to completion: it spawns the
// child, streams its output through a Coordinator, feeds non-interaction
// lines to the phase state machine, persists every line to the log file,
// and emits pipeline-scaled progress through the Callback.
//
// An Executor maps 1:1 to one subprocess invocation. Multi-step pipelines
// are several Executors, each owning a disjoint percentage slice.
type Executor struct {
	cfg ExecutorConfig
	log logr.Logger

	logHandle io.Writer

	active    *Phase
	nextIndex int

	// local is the command-local earned progress (0-100 points).
	local float64

	// lastEmitted enforces monotone emissions within one run.
	lastEmitted int
}

// NewExecutor validates the phase weights and the percentage slice.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Callback == nil {
		return nil, fmt.Errorf("%w: callback is required", ErrInvalidConfig)
	}
	if cfg.DefaultPhase == nil {
		return nil, fmt.Errorf("%w: default phase is required", ErrInvalidConfig)
	}

	total := 0
	for _, p := range cfg.Phases {
		total += p.Weight()
	}
	if total > 100 {
		return nil, fmt.Errorf("%w: declared phase weights sum to %d, must be <= 100", ErrInvalidConfig, total)
	}

	if cfg.PercentageStart < 0 || cfg.PercentageStart > 100 {
		return nil, fmt.Errorf("%w: percentage start %d out of range", ErrInvalidConfig, cfg.PercentageStart)
	}
	if cfg.PercentageWeight == 0 {
		cfg.PercentageWeight = 100 - cfg.PercentageStart
	}
	if cfg.PercentageStart+cfg.PercentageWeight > 100 {
		return nil, fmt.Errorf("%w: percentage slice %d+%d exceeds 100",
			ErrInvalidConfig, cfg.PercentageStart, cfg.PercentageWeight)
	}

	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}

	return &Executor{
		cfg:         cfg,
		log:         cfg.Logger,
		lastEmitted: cfg.PercentageStart,
	}, nil
}

// Execute runs argv to completion and returns the raw exit code. Every
// output line is logged and fed to the Callback; lines classified as
// interaction bypass the phase state machine. On success the final emission
// is exactly PercentageStart+PercentageWeight, so the pipeline checkpoint is
// reached even when pattern matching under-counted. On failure the
// Callback's error path fires instead.
//
// A context deadline terminates the child with SIGTERM; the resulting exit
// code is surfaced together with the TimedOut flag.
func (e *Executor) Execute(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{ExitCode: -1}, fmt.Errorf("%w: empty command", ErrInvalidConfig)
	}

	if err := os.MkdirAll(filepath.Dir(e.cfg.LogFile), 0o750); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("creating log directory: %w", err)
	}
	logHandle, err := os.OpenFile(e.cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("opening log file: %w", err)
	}
	defer logHandle.Close() //nolint:errcheck
	e.logHandle = logHandle

	e.log.V(1).Info("executing command", "argv", argv, "workdir", e.cfg.Workdir)
	return e.run(ctx, argv)
}

func (e *Executor) run(ctx context.Context, argv []string) (Result, error) {
	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 -- argv comes from the engine factory, not user input
	cmd.Dir = e.cfg.Workdir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("piping stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("piping stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("piping stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	// Timeout is layered on top of the invocation, not inside the
	// coordinator: on deadline the child gets SIGTERM, the pipes close,
	// and the blocked read loop drains to the (signal) exit code.
	var timedOut atomic.Bool
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			timedOut.Store(true)
			_ = cmd.Process.Signal(syscall.SIGTERM)
		case <-watchDone:
		}
	}()

	coord := NewCoordinator(stdout, stderr, stdin, CoordinatorConfig{
		OnLine:   e.processLine,
		OnPrompt: e.processLine,
		IsPrompt: func(buffer string) bool {
			stripped := strings.TrimRight(buffer, " \t\r\n")
			return e.cfg.Callback.IsRequestingUserInput(stripped)
		},
		OnStderr: func(lines []string) {
			for _, line := range lines {
				e.writeLog(line)
				e.cfg.Callback.OnLogLine(strings.TrimRight(line, "\r\n"))
			}
		},
		Input:            e.cfg.Input,
		InputIsTerminal:  inputIsTerminal(e.cfg.Input),
		ChildExited:      func() bool { return cmd.Process.Signal(syscall.Signal(0)) != nil },
		BufferSize:       e.cfg.BufferSize,
		PromptCheckChars: e.cfg.PromptCheckChars,
		Logger:           e.log,
	})

	streamErr := coord.Start()
	if streamErr != nil {
		// The stream is unreadable; reap the child before propagating.
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	close(watchDone)

	retcode := cmd.ProcessState.ExitCode()
	if streamErr != nil {
		return Result{ExitCode: retcode, TimedOut: timedOut.Load()}, streamErr
	}
	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			return Result{ExitCode: retcode, TimedOut: timedOut.Load()}, fmt.Errorf("waiting for %s: %w", argv[0], waitErr)
		}
	}

	if retcode == 0 {
		e.completeExecution()
	} else {
		e.cfg.Callback.OnExecutionError(retcode)
	}

	return Result{ExitCode: retcode, TimedOut: timedOut.Load()}, nil
}

// processLine handles one complete line or detected prompt: persist first,
// then classify. Interaction lines skip the phase state machine entirely.
func (e *Executor) processLine(line string) {
	logLine := line
	if !strings.HasSuffix(logLine, "\n") {
		logLine += "\n"
	}
	e.writeLog(logLine)

	stripped := strings.TrimRight(line, "\r\n")

	cb := e.cfg.Callback
	if cb.IsWaitingForInteraction() || cb.IsRequestingUserInput(stripped) {
		cb.HandleInteraction(stripped)
		return
	}

	cb.OnLogLine(stripped)

	if cb.ShouldParseProgress() {
		e.parseLine(stripped)
	}
}

// writeLog appends synchronously; os.File writes are unbuffered, so a crash
// cannot lose a classified line.
func (e *Executor) writeLog(line string) {
	if e.logHandle == nil {
		return
	}
	_, _ = io.WriteString(e.logHandle, line)
}

// parseLine runs the phase state machine for one line. Priority while a
// declared phase is active: exit, then next sub-phase, then progress event.
// Otherwise: enter the next declared phase, then default-phase progress.
// Silence is the common case.
func (e *Executor) parseLine(line string) {
	if e.active != nil {
		if e.active.EvaluateExit(line) {
			e.grant(e.active.Complete())
			e.log.V(1).Info("phase completed", "phase", e.active.Label())
			e.active = nil
			e.nextIndex++
			e.emit()
			return
		}
		if e.active.EvaluateNextSubPhase(line) {
			e.grant(e.active.CompleteSubPhase())
			e.emit()
			return
		}
		if e.active.EvaluateProgress(line) {
			e.grant(e.active.CompleteProgressEvent())
			e.emit()
			return
		}
		return
	}

	if e.nextIndex < len(e.cfg.Phases) && e.cfg.Phases[e.nextIndex].EvaluateEnter(line) {
		e.active = e.cfg.Phases[e.nextIndex]
		e.log.V(1).Info("phase entered", "phase", e.active.Label())
		e.emit()
		return
	}

	if e.cfg.DefaultPhase.EvaluateProgress(line) {
		e.grant(e.cfg.DefaultPhase.CompleteProgressEvent())
		e.emit()
	}
}

func (e *Executor) grant(delta float64) {
	e.local += delta
}

// emit scales local progress into this command's pipeline slice:
//
//	overall = start + floor(min(local, 100)) * weight / 100
func (e *Executor) emit() {
	local := math.Min(e.local, 100)
	pct := e.cfg.PercentageStart + int(math.Floor(local))*e.cfg.PercentageWeight/100
	if pct < e.lastEmitted {
		pct = e.lastEmitted
	}
	e.lastEmitted = pct
	e.cfg.Callback.OnProgress(Progress{Label: e.currentLabel(), Percentage: pct})
}

// completeExecution unconditionally emits the slice endpoint, guaranteeing
// the checkpoint is reached even when pattern matching under-counted.
func (e *Executor) completeExecution() {
	e.cfg.Callback.OnProgress(Progress{
		Label:      e.currentLabel(),
		Percentage: e.cfg.PercentageStart + e.cfg.PercentageWeight,
	})
}

func (e *Executor) currentLabel() string {
	if e.active != nil {
		return e.active.Label()
	}
	return e.cfg.DefaultPhase.Label()
}

// inputIsTerminal reports whether the forwarded input is an interactive
// terminal, selecting line-wise over byte-wise forwarding.
func inputIsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
