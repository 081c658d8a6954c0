// Package results persists checked usernames, one file per outcome.
package results

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/tdh8316/namecheck/internal/check"
)

const (
	AvailableFile = "available.txt"
	TakenFile     = "taken.txt"
)

// appendLog is one append-only file with its own lock.
type appendLog struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

func openLog(path string) (*appendLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", path)
	}
	return &appendLog{f: f, path: path}, nil
}

func (l *appendLog) append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.WriteString(line + "\n"); err != nil {
		return errors.Wrapf(err, "append to %q", l.path)
	}
	return nil
}

func (l *appendLog) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// Writer records available and taken usernames. The two files are guarded
// independently so writers of one never wait on the other.
type Writer struct {
	Dir string

	available *appendLog
	taken     *appendLog
}

// Open creates dir if needed and truncates both result files.
func Open(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create results dir %q", dir)
	}

	available, err := openLog(filepath.Join(dir, AvailableFile))
	if err != nil {
		return nil, err
	}
	taken, err := openLog(filepath.Join(dir, TakenFile))
	if err != nil {
		_ = available.close()
		return nil, err
	}

	return &Writer{Dir: dir, available: available, taken: taken}, nil
}

// Record appends the username to the file matching its status. Errored
// outcomes are not persisted.
func (w *Writer) Record(out check.Outcome) error {
	switch out.Status {
	case check.Available:
		return w.available.append(out.Username)
	case check.Taken:
		return w.taken.append(out.Username)
	default:
		return nil
	}
}

func (w *Writer) Close() error {
	errA := w.available.close()
	errT := w.taken.close()
	if errA != nil {
		return errA
	}
	return errT
}
