// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/tfpilot/tfpilot/internal/engine/terraform"
	"github.com/tfpilot/tfpilot/internal/history"
	"github.com/tfpilot/tfpilot/internal/manifest"
	"github.com/tfpilot/tfpilot/internal/supervise"
	"github.com/tfpilot/tfpilot/internal/ui/tui"
	"github.com/tfpilot/tfpilot/internal/util/prerequisites"
)

// Options are the shared knobs of the supervised commands.
type Options struct {
	// ProjectDir is the project root holding tfpilot.yaml and engine/.
	ProjectDir string

	// Verbose echoes raw terraform output instead of the dashboard.
	Verbose bool

	// Input and Out default to the process stdin/stdout.
	Input io.Reader
	Out   io.Writer
}

func (o Options) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

func (o Options) workdir() string {
	return filepath.Join(o.ProjectDir, terraform.EngineDir)
}

// step is one supervised subprocess of a command pipeline.
type step struct {
	sequence terraform.Sequence
	argv     []string

	// plan resolves dynamic progress estimates for this step.
	plan *terraform.PlanMetadata

	// after runs on step success with the buffered output lines.
	after func(ctx context.Context, buffered []string) error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	checkDefaultPrereqs = prerequisites.CheckDefault
	loadManifest        = manifest.LoadProject
	runStep             = executeStep
	readPlanMetadata    = terraform.ReadPlanMetadata
	readOutputs         = terraform.ReadOutputs
	runWizard           = manifest.RunWizard
	writeManifest       = manifest.Save

	stdoutIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// runEnv is the resolved environment of one command run.
type runEnv struct {
	opts    Options
	m       *manifest.Manifest
	logFile string

	// sink receives display events; nil selects the passthrough callback.
	sink supervise.Sink
}

// runCommand drives a command pipeline: prerequisites, manifest, a fresh log
// file, then every step in order, each owning a disjoint slice of the
// progress bar. On a TTY the steps run under the TUI dashboard; without one
// progress checkpoints and error context go to the plain console sink, and
// verbose mode passes raw output through verbatim.
func runCommand(ctx context.Context, opts Options, command history.Command, steps []step) error {
	if err := checkDefaultPrereqs().Error(); err != nil {
		return err
	}

	m, err := loadManifest(opts.ProjectDir)
	if err != nil {
		return err
	}

	store := history.NewStore(opts.ProjectDir)
	logFile, err := store.CreateLogFile(command)
	if err != nil {
		return err
	}

	run := func(sink supervise.Sink) error {
		env := &runEnv{opts: opts, m: m, logFile: logFile, sink: sink}
		for _, st := range steps {
			if err := runStep(ctx, env, st); err != nil {
				return err
			}
		}
		return nil
	}

	if opts.Verbose {
		return run(nil)
	}
	if !stdoutIsTerminal() {
		return run(tui.NewConsoleSink(opts.out()))
	}
	return tui.Run(m.Template.Name, string(command), run)
}

// executeStep builds the callback and executor for one step and runs the
// subprocess to completion.
func executeStep(ctx context.Context, env *runEnv, st step) error {
	detector := terraform.NewDetector(st.sequence)

	var cb supervise.Callback
	buffered := func() []string { return nil }
	if env.sink != nil {
		bc, err := supervise.NewBufferedCallback(env.sink, detector, supervise.BufferedCallbackConfig{})
		if err != nil {
			return err
		}
		cb = bc
		buffered = bc.ContextLines
	} else {
		cb = supervise.NewPassthroughCallback(env.opts.out(), detector)
	}

	exec, err := terraform.NewExecutor(terraform.ExecutorOptions{
		Sequence: st.sequence,
		Workdir:  env.opts.workdir(),
		LogFile:  env.logFile,
		Callback: cb,
		Manifest: env.m,
		Plan:     st.plan,
		Input:    env.opts.Input,
	})
	if err != nil {
		return err
	}

	result, err := exec.Execute(ctx, st.argv)
	if err != nil {
		return err
	}
	if result.TimedOut {
		return fmt.Errorf("%s timed out (full log: %s)", strings.Join(st.argv, " "), env.logFile)
	}
	if result.ExitCode != 0 {
		return &supervise.ExecutionError{
			Command:  strings.Join(st.argv, " "),
			ExitCode: result.ExitCode,
			LogFile:  env.logFile,
			Context:  buffered(),
		}
	}

	if st.after != nil {
		return st.after(ctx, buffered())
	}
	return nil
}

func printLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
