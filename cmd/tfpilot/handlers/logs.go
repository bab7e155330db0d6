package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tfpilot/tfpilot/internal/archive"
	"github.com/tfpilot/tfpilot/internal/history"
)

// LogsOptions configures `tfpilot logs`.
type LogsOptions struct {
	// ProjectDir is the project root holding the log history.
	ProjectDir string

	// Command narrows the selection to one command's logs; empty means the
	// latest log across all commands.
	Command string

	// Tail is the number of trailing lines to show.
	Tail int

	// List prints the recorded logs instead of tailing one.
	List bool

	// Archive, when set, uploads the recorded logs to object storage
	// instead of printing anything locally.
	Archive *archive.Config

	Out io.Writer
}

func (o LogsOptions) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

var allCommands = []history.Command{history.CommandConfig, history.CommandUp, history.CommandDown}

// Logs tails, lists, or archives the recorded execution logs.
func Logs(ctx context.Context, opts LogsOptions) error {
	store := history.NewStore(opts.ProjectDir)

	if opts.Archive != nil {
		return archiveLogs(ctx, store, opts)
	}
	if opts.List {
		return listLogs(store, opts)
	}
	return tailLog(store, opts)
}

func tailLog(store *history.Store, opts LogsOptions) error {
	out := opts.out()

	var latest *history.Descriptor
	if opts.Command != "" {
		logs, err := store.ListLogs(history.Command(opts.Command), 1)
		if err != nil {
			return err
		}
		if len(logs) > 0 {
			latest = &logs[0]
		}
	} else {
		var err error
		latest, err = store.LatestLog()
		if err != nil {
			return err
		}
	}

	if latest == nil {
		fmt.Fprintln(out, "No logs recorded yet.")
		return nil
	}

	lines, err := store.TailLog(*latest, opts.Tail, 0)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s)\n\n", latest.ID, latest.Timestamp.Format("2006-01-02 15:04:05"))
	for _, line := range lines {
		fmt.Fprint(out, line)
	}
	return nil
}

func listLogs(store *history.Store, opts LogsOptions) error {
	out := opts.out()

	commands := allCommands
	if opts.Command != "" {
		commands = []history.Command{history.Command(opts.Command)}
	}

	total := 0
	for _, c := range commands {
		logs, err := store.ListLogs(c, 0)
		if err != nil {
			return err
		}
		for _, d := range logs {
			fmt.Fprintf(out, "%-30s %s\n", d.ID, d.Timestamp.Format("2006-01-02 15:04:05"))
			total++
		}
	}
	if total == 0 {
		fmt.Fprintln(out, "No logs recorded yet.")
	}
	return nil
}

func archiveLogs(ctx context.Context, store *history.Store, opts LogsOptions) error {
	a, err := archive.New(ctx, *opts.Archive)
	if err != nil {
		return err
	}
	if err := a.EnsureBucket(ctx); err != nil {
		return err
	}

	var descriptors []history.Descriptor
	for _, c := range allCommands {
		logs, err := store.ListLogs(c, 0)
		if err != nil {
			return err
		}
		descriptors = append(descriptors, logs...)
	}
	if len(descriptors) == 0 {
		fmt.Fprintln(opts.out(), "No logs to archive.")
		return nil
	}

	keys, err := a.UploadLogs(ctx, descriptors)
	if err != nil {
		return fmt.Errorf("archived %d of %d logs: %w", len(keys), len(descriptors), err)
	}

	fmt.Fprintf(opts.out(), "Archived %d logs to s3://%s/%s\n",
		len(keys), opts.Archive.Bucket, strings.TrimSuffix(opts.Archive.Prefix, "/"))
	return nil
}
