package msgcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := MustDefault()
	require.True(t, c.Has("errors.not_your_turn"))
	require.Equal(t, "It is your opponent's turn.", c.ErrorText("not_your_turn", ""))
	require.Equal(t, "That move is not legal here (illegal move: e2e5).", c.ErrorText("illegal_move", "illegal move: e2e5"))
	require.Equal(t, "mystery: x", c.ErrorText("mystery", "x"))

	s, err := c.Render("http.not_routed", map[string]string{"Method": "GET", "Path": "/x"})
	require.NoError(t, err)
	require.Equal(t, "No such endpoint: GET /x.", s)

	_, err = c.Render("http.not_routed", map[string]string{})
	require.Error(t, err, "missing keys are errors")
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("errors:\n  not_your_turn: \"Wait.\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := New(dir)
	require.NoError(t, err)
	require.Equal(t, "Wait.", c.ErrorText("not_your_turn", ""))
	require.Equal(t, "You are not playing in this match.", c.ErrorText("not_participant", ""))
}

func TestOverrideDir_DuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	body := []byte("errors:\n  not_found: \"x\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644))

	_, err := New(dir)
	require.ErrorContains(t, err, "duplicate override key")
}

func TestOverrideDir_RejectsNonStrings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("errors:\n  not_found: 3\n"), 0o644))
	_, err := New(dir)
	require.Error(t, err)
}
