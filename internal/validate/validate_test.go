package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesSkipsBlankAndComments(t *testing.T) {
	t.Parallel()

	res := Lines([]string{"", "   ", "# comment", "  #indented", "alice", "\tbob  "})
	assert.Equal(t, []string{"alice", "bob"}, res.Usernames)
	assert.Zero(t, res.Duplicates)
	assert.Zero(t, res.Invalid)
}

func TestLinesDuplicatesAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	res := Lines([]string{"Steve", "steve", "STEVE", "sTeVe"})
	assert.Equal(t, []string{"Steve"}, res.Usernames)
	assert.Equal(t, 3, res.Duplicates)
	assert.Zero(t, res.Invalid)
}

func TestLinesRejectsMalformed(t *testing.T) {
	t.Parallel()

	res := Lines([]string{
		"ab",                // too short
		"abcdefghijklmnopq", // 17 chars
		"has space",
		"has-hyphen",
		"émile",
		"abc",
		"abcdefghijklmnop", // 16 chars
		"under_score_9",
	})
	assert.Equal(t, []string{"abc", "abcdefghijklmnop", "under_score_9"}, res.Usernames)
	assert.Equal(t, 5, res.Invalid)
	assert.Zero(t, res.Duplicates)
}

func TestLinesDuplicateCheckPrecedesValidation(t *testing.T) {
	t.Parallel()

	res := Lines([]string{"ab!", "ab!"})
	assert.Empty(t, res.Usernames)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Invalid)
}

func TestLinesPreservesOrderAndCase(t *testing.T) {
	t.Parallel()

	res := Lines([]string{"Zed", "amy", "Bob_2", "AMY"})
	assert.Equal(t, []string{"Zed", "amy", "Bob_2"}, res.Usernames)
	assert.Equal(t, 1, res.Duplicates)
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValid("Notch"))
	assert.False(t, IsValid("no"))
	assert.False(t, IsValid("trailing\n"))
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "usernames.txt")
	content := strings.Join([]string{"# list", "alice", "Alice", "bad name", "", "carol"}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	res, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Result{Usernames: []string{"alice", "carol"}, Duplicates: 1, Invalid: 1}, res)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestLoadOversizedLineCountsAsInvalid(t *testing.T) {
	t.Parallel()

	input := "alice\n" + strings.Repeat("x", 70000) + "\nbob\r\ncarol"
	res, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Result{Usernames: []string{"alice", "bob", "carol"}, Invalid: 1}, res)
}
