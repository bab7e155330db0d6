package supervise

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-logr/logr"
)

const (
	// defaultPromptBufferSize caps the rolling prompt-detection buffer, in
	// runes. Once exceeded the buffer truncates to its trailing half, so a
	// prompt is only guaranteed to be detected while it fits within half
	// the cap. Size the cap comfortably above the longest anchored prompt.
	defaultPromptBufferSize = 100

	// defaultPromptCheckChars limits prompt re-evaluation to lines whose
	// last rune is one of these, avoiding a predicate call per rune.
	defaultPromptCheckChars = ":?"

	// wakePollInterval bounds how long the input forwarder sleeps before
	// re-checking whether the child exited.
	wakePollInterval = 200 * time.Millisecond

	// promptSettleDelay gives the terminal a moment to render the full
	// prompt before the forwarder reads the user's response.
	promptSettleDelay = 100 * time.Millisecond
)

// CoordinatorConfig wires the callbacks and knobs of a Coordinator.
type CoordinatorConfig struct {
	// OnLine receives each completed output line, including its trailing
	// newline. The final line at EOF may lack one. Required.
	OnLine func(line string)

	// IsPrompt decides whether the current rolling buffer is a prompt
	// awaiting input. Required.
	IsPrompt func(buffer string) bool

	// OnPrompt receives the buffer when IsPrompt fires. Required.
	OnPrompt func(buffer string)

	// OnRune, when set, receives every output rune as it is read. Used
	// for live echo in verbose mode.
	OnRune func(r rune)

	// OnStderr, when set, receives all stderr lines as one ordered batch
	// after stdout reaches EOF. Stderr never interleaves with stdout.
	OnStderr func(lines []string)

	// Input is the stream forwarded to the child's stdin, typically the
	// caller's own stdin. Nil disables input forwarding.
	Input io.Reader

	// InputIsTerminal selects line-wise forwarding (terminal input) over
	// byte-wise forwarding (piped input).
	InputIsTerminal bool

	// ChildExited is polled by the forwarder to stop once the child is
	// gone. Optional.
	ChildExited func() bool

	// BufferSize overrides the rolling buffer cap, in runes.
	BufferSize int

	// PromptCheckChars overrides the prompt trigger characters.
	PromptCheckChars string

	// Logger receives debug-level stream events. Defaults to discard.
	Logger logr.Logger
}

// Coordinator owns the three streams of one spawned child. It reads stdout
// rune by rune so newline-less prompts are still detected, drains stderr on
// a separate goroutine into a private buffer, and coordinates a background
// input forwarder that wakes on every prompt and completed line.
//
// Every output byte is observed exactly once, in order, by OnLine or
// OnPrompt; nothing is dropped, including a newline-less remainder at EOF.
type Coordinator struct {
	stdout io.Reader
	stderr io.Reader
	stdin  io.WriteCloser
	cfg    CoordinatorConfig

	wake chan struct{}
	done chan struct{}

	stderrMu    sync.Mutex
	stderrLines []string
}

// NewCoordinator builds a Coordinator over the child's streams. stderr and
// stdin may be nil when the corresponding stream is not piped.
func NewCoordinator(stdout io.Reader, stderr io.Reader, stdin io.WriteCloser, cfg CoordinatorConfig) *Coordinator {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultPromptBufferSize
	}
	if cfg.PromptCheckChars == "" {
		cfg.PromptCheckChars = defaultPromptCheckChars
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}
	return &Coordinator{
		stdout: stdout,
		stderr: stderr,
		stdin:  stdin,
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start runs the read loop on the calling goroutine and blocks until stdout
// reaches EOF. The stderr drain goroutine is joined before OnStderr fires;
// the input forwarder is signalled to stop but never joined, since it may be
// parked on a blocking read of the caller's stdin.
func (c *Coordinator) Start() error {
	var stderrWG sync.WaitGroup
	if c.stderr != nil {
		stderrWG.Add(1)
		go func() {
			defer stderrWG.Done()
			c.drainStderr()
		}()
	}

	if c.stdin != nil && c.cfg.Input != nil {
		go c.forwardInput()
	}

	err := c.readStdout()

	// Unblock the forwarder one last time, then tell it to stop.
	c.notifyWake()
	close(c.done)

	stderrWG.Wait()
	c.stderrMu.Lock()
	batch := c.stderrLines
	c.stderrLines = nil
	c.stderrMu.Unlock()
	if c.cfg.OnStderr != nil && len(batch) > 0 {
		c.cfg.OnStderr(batch)
	}

	return err
}

// readStdout decodes stdout one rune at a time. A completed line fires
// OnLine; a buffer ending in a trigger rune that the predicate accepts fires
// OnPrompt. Both events wake the input forwarder. At EOF any remainder is
// delivered as a prompt when matching, else as a final newline-less line.
func (c *Coordinator) readStdout() error {
	reader := bufio.NewReader(c.stdout)
	var buffer []rune

	for {
		r, size, err := reader.ReadRune()
		if err == io.EOF {
			if len(buffer) > 0 {
				remainder := string(buffer)
				if c.cfg.IsPrompt(remainder) {
					c.cfg.OnPrompt(remainder)
				} else {
					c.cfg.OnLine(remainder)
				}
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading child stdout: %w", err)
		}
		if r == utf8.RuneError && size == 1 {
			return fmt.Errorf("malformed byte in child stdout")
		}

		if c.cfg.OnRune != nil {
			c.cfg.OnRune(r)
		}
		buffer = append(buffer, r)

		if r == '\n' {
			c.cfg.OnLine(string(buffer))
			buffer = buffer[:0]
			c.notifyWake()
			continue
		}

		// The predicate is only consulted when the last rune could end a
		// prompt, so ordinary output costs one rune comparison per rune.
		if strings.ContainsRune(c.cfg.PromptCheckChars, r) {
			if s := string(buffer); c.cfg.IsPrompt(s) {
				c.cfg.Logger.V(1).Info("prompt detected", "buffer", s)
				c.cfg.OnPrompt(s)
				buffer = buffer[:0]
				c.notifyWake()
				continue
			}
		}

		if len(buffer) > c.cfg.BufferSize {
			buffer = buffer[len(buffer)-c.cfg.BufferSize/2:]
		}
	}
}

// drainStderr buffers stderr lines into the private, lock-guarded list.
// They surface only after stdout EOF, as one ordered batch.
func (c *Coordinator) drainStderr() {
	reader := bufio.NewReader(c.stderr)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			c.stderrMu.Lock()
			c.stderrLines = append(c.stderrLines, line)
			c.stderrMu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// forwardInput sleeps on the wake signal until a prompt or completed line
// arrives, then performs one read-and-forward cycle. Terminal input forwards
// a full line; piped input forwards a single byte, matching the child's
// unbuffered reads. A closed child stdin ends forwarding quietly: the
// child's own exit code is authoritative.
func (c *Coordinator) forwardInput() {
	defer c.stdin.Close() //nolint:errcheck

	reader := bufio.NewReader(c.cfg.Input)
	for {
		if c.cfg.ChildExited != nil && c.cfg.ChildExited() {
			return
		}

		// The wait is pacing, not gating: a timeout still proceeds to one
		// read-and-forward cycle so multi-byte responses keep flowing.
		select {
		case <-c.done:
			return
		case <-c.wake:
			time.Sleep(promptSettleDelay)
		case <-time.After(wakePollInterval):
		}

		if c.cfg.InputIsTerminal {
			line, err := reader.ReadString('\n')
			if len(line) > 0 {
				if _, werr := io.WriteString(c.stdin, line); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		} else {
			b, err := reader.ReadByte()
			if err != nil {
				return
			}
			if _, werr := c.stdin.Write([]byte{b}); werr != nil {
				return
			}
		}
	}
}

// notifyWake signals the forwarder without ever blocking the read loop.
func (c *Coordinator) notifyWake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
