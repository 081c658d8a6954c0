// Package validate turns raw input lines into the list of usernames to check.
package validate

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

// Usernames are 3-16 ASCII letters, digits or underscores.
var usernamePattern = regexp2.MustCompile(`^[a-zA-Z0-9_]{3,16}\z`, regexp2.None)

// Result is the deduplicated work list plus what was dropped on the way.
type Result struct {
	Usernames  []string
	Duplicates int
	Invalid    int
}

func IsValid(username string) bool {
	ok, err := usernamePattern.MatchString(username)
	return err == nil && ok
}

// Lines filters raw lines in order. Blank lines and `#` comments are skipped
// without being counted. The case-insensitive duplicate check runs before the
// format check, so a repeated malformed line counts once as invalid and then
// as a duplicate.
func Lines(lines []string) Result {
	seen := make(map[string]struct{}, len(lines))
	res := Result{Usernames: make([]string, 0, len(lines))}

	for _, line := range lines {
		username := strings.TrimSpace(line)
		if username == "" || strings.HasPrefix(username, "#") {
			continue
		}

		key := strings.ToLower(username)
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		if !IsValid(username) {
			res.Invalid++
			continue
		}
		res.Usernames = append(res.Usernames, username)
	}

	return res
}

// Load reads r line by line. Lines of any length are accepted; an oversized
// line is simply counted as invalid.
func Load(r io.Reader) (Result, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, errors.Wrap(err, "read usernames")
		}
	}
	return Lines(lines), nil
}

func LoadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()

	return Load(f)
}
