// Package logging writes the per-run session log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const ruleWidth = 70

// Session is a logrus logger bound to one session file.
type Session struct {
	*logrus.Logger

	ID   string
	Path string

	file io.WriteCloser
}

// NewSession creates <dir>/session_YYYYMMDD_HHMMSS.log and writes its header.
// Debug records are dropped unless debug is set.
func NewSession(dir string, debug bool, now time.Time) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create log dir %q", dir)
	}

	path := filepath.Join(dir, "session_"+now.Format("20060102_150405")+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open session log %q", path)
	}

	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetFormatter(sessionFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	s := &Session{
		Logger: logger,
		ID:     uuid.NewString(),
		Path:   path,
		file:   f,
	}

	header := []string{
		strings.Repeat("=", ruleWidth),
		"  SESSION STARTED",
		"  " + now.Format("2006-01-02 15:04:05"),
		"  id " + s.ID,
		strings.Repeat("=", ruleWidth),
		"",
	}
	if err := s.writeRaw(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// Summary appends the closing totals block. It must not race with other records.
func (s *Session) Summary(total, hits, taken, errs int, elapsed time.Duration) error {
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(total) / secs
	}

	return s.writeRaw([]string{
		"",
		strings.Repeat("-", ruleWidth),
		"  SESSION SUMMARY",
		strings.Repeat("-", ruleWidth),
		fmt.Sprintf("  Total checked:  %d", total),
		fmt.Sprintf("  Available:      %d", hits),
		fmt.Sprintf("  Taken:          %d", taken),
		fmt.Sprintf("  Errors:         %d", errs),
		fmt.Sprintf("  Duration:       %.2fs", elapsed.Seconds()),
		fmt.Sprintf("  Average rate:   %.1f checks/s", rate),
		strings.Repeat("-", ruleWidth),
		"",
	})
}

func (s *Session) Close() error {
	return s.file.Close()
}

func (s *Session) writeRaw(lines []string) error {
	if _, err := io.WriteString(s.file, strings.Join(lines, "\n")+"\n"); err != nil {
		return errors.Wrap(err, "write session log")
	}
	return nil
}
