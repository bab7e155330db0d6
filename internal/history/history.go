// Package history stores per-command execution logs under the project's
// history directory and rotates old ones.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dir is the history directory name at the project root.
const Dir = ".tfpilot-history"

// DefaultKeep is how many logs per command survive a cleanup.
const DefaultKeep = 20

// timestampLayout makes filenames lexicographically sortable by creation
// time, so listing never has to parse every timestamp.
const timestampLayout = "20060102-150405"

// Command names a CLI command that records execution logs.
type Command string

const (
	CommandConfig Command = "config"
	CommandUp     Command = "up"
	CommandDown   Command = "down"
)

// commands enumerates all history-enabled commands, for cross-command
// queries.
var commands = []Command{CommandConfig, CommandUp, CommandDown}

// ErrLogNotFound is returned when a referenced log file does not exist.
var ErrLogNotFound = errors.New("log not found")

// Descriptor identifies one recorded execution log.
type Descriptor struct {
	ID        string
	Command   Command
	Timestamp time.Time
	Path      string
}

// CleanupResult reports the outcome of one log rotation.
type CleanupResult struct {
	Cleaned []string
	Kept    []string
	Failed  []string
}

// HasFailures reports whether any deletion failed.
func (r CleanupResult) HasFailures() bool { return len(r.Failed) > 0 }

// Store manages the history directory of one project.
type Store struct {
	historyDir string
	now        func() time.Time
}

// NewStore returns a Store rooted at projectDir. No directories are created
// until the first log file is.
func NewStore(projectDir string) *Store {
	return &Store{
		historyDir: filepath.Join(projectDir, Dir),
		now:        time.Now,
	}
}

// CreateLogFile creates an empty, timestamped log file for a command run and
// returns its path. Rotation is explicit: callers clean up via ClearLogs
// after a successful run.
func (s *Store) CreateLogFile(command Command) (string, error) {
	commandDir := filepath.Join(s.historyDir, string(command))
	if err := os.MkdirAll(commandDir, 0o750); err != nil {
		return "", fmt.Errorf("creating history directory: %w", err)
	}

	// UTC avoids timezone edge cases in the sortable names.
	name := s.now().UTC().Format(timestampLayout) + ".log"
	path := filepath.Join(commandDir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("creating log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing log file: %w", err)
	}
	return path, nil
}

// ListLogs returns descriptors for a command's logs, newest first. A missing
// command directory means no logs, not an error. max <= 0 means unlimited.
func (s *Store) ListLogs(command Command, max int) ([]Descriptor, error) {
	commandDir := filepath.Join(s.historyDir, string(command))
	names, err := sortedLogNames(commandDir)
	if err != nil {
		return nil, err
	}

	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		if max > 0 && len(descriptors) == max {
			break
		}
		stem := strings.TrimSuffix(name, ".log")
		ts, err := time.ParseInLocation(timestampLayout, stem, time.UTC)
		if err != nil {
			continue
		}
		descriptors = append(descriptors, Descriptor{
			ID:        string(command) + "/" + name,
			Command:   command,
			Timestamp: ts,
			Path:      filepath.Join(commandDir, name),
		})
	}
	return descriptors, nil
}

// LatestLog returns the most recent log across all commands, or nil when no
// logs exist.
func (s *Store) LatestLog() (*Descriptor, error) {
	var latest *Descriptor
	for _, command := range commands {
		logs, err := s.ListLogs(command, 1)
		if err != nil {
			return nil, err
		}
		if len(logs) == 0 {
			continue
		}
		if latest == nil || logs[0].Timestamp.After(latest.Timestamp) {
			d := logs[0]
			latest = &d
		}
	}
	return latest, nil
}

// TailLog returns up to maxLines lines from the end of a log, skipping the
// last skip lines first. Lines keep their trailing newlines.
func (s *Store) TailLog(d Descriptor, maxLines, skip int) ([]string, error) {
	// #nosec G304
	data, err := os.ReadFile(d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLogNotFound, d.Path)
		}
		return nil, fmt.Errorf("reading log file: %w", err)
	}

	lines := splitKeepingNewlines(string(data))
	end := len(lines) - skip
	if end < 0 {
		end = 0
	}
	start := end - maxLines
	if start < 0 {
		start = 0
	}
	return lines[start:end], nil
}

// ClearLogs deletes a command's logs beyond the keep most recent ones.
// keep <= 0 uses DefaultKeep.
func (s *Store) ClearLogs(command Command, keep int) (CleanupResult, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}

	var result CleanupResult
	commandDir := filepath.Join(s.historyDir, string(command))
	names, err := sortedLogNames(commandDir)
	if err != nil {
		return result, err
	}

	for i, name := range names {
		path := filepath.Join(commandDir, name)
		if i < keep {
			result.Kept = append(result.Kept, path)
			continue
		}
		if err := os.Remove(path); err != nil {
			result.Failed = append(result.Failed, path)
			continue
		}
		result.Cleaned = append(result.Cleaned, path)
	}

	if result.HasFailures() {
		return result, fmt.Errorf("failed to delete %d log file(s)", len(result.Failed))
	}
	return result, nil
}

// sortedLogNames returns the .log filenames of a command directory, newest
// first. A missing directory yields an empty list.
func sortedLogNames(commandDir string) ([]string, error) {
	entries, err := os.ReadDir(commandDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing history directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func splitKeepingNewlines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			return lines
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
		if s == "" {
			return lines
		}
	}
}
