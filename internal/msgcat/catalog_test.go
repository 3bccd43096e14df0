package msgcat

import (
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestEmbeddedDefaults(t *testing.T) {
    c, err := New("")
    require.NoError(t, err)

    s, err := c.Render("rps.timeout", map[string]any{"Player": "Alice"})
    require.NoError(t, err)
    assert.Equal(t, "⏰ Alice took too long to respond! Game canceled.", s)

    s, err = c.Render("leaderboard.empty", nil)
    require.NoError(t, err)
    assert.Equal(t, "Leaderboard is empty.", s)
}

func TestListsFlattenToNumberedKeys(t *testing.T) {
    c, err := New("")
    require.NoError(t, err)

    keys := c.Keys("rps.comments.tie")
    require.Len(t, keys, 5)
    assert.Equal(t, "rps.comments.tie.1", keys[0])
    assert.True(t, c.Has("rps.comments.bot_win.5"))
    // Keys only lists direct children
    assert.Empty(t, c.Keys("rps.comments"))
}

func TestMissingFieldIsError(t *testing.T) {
    c, err := New("")
    require.NoError(t, err)

    _, err = c.Render("rps.timeout", map[string]any{})
    assert.Error(t, err)
    assert.Equal(t, "fallback", c.RenderOr("rps.timeout", map[string]any{}, "fallback"))
    _, err = c.Render("no.such.key", nil)
    assert.Error(t, err)
}

func TestOverrideDir(t *testing.T) {
    dir := t.TempDir()
    require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("leaderboard:\n  empty: \"Nobody has played yet.\"\n"), 0o644))

    c, err := New(dir)
    require.NoError(t, err)
    s, err := c.Render("leaderboard.empty", nil)
    require.NoError(t, err)
    assert.Equal(t, "Nobody has played yet.", s)
    // untouched keys keep their defaults
    assert.True(t, c.Has("history.empty"))
}

func TestOverrideDuplicateKeyRejected(t *testing.T) {
    dir := t.TempDir()
    body := []byte("help: \"x\"\n")
    require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644))
    require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644))

    _, err := New(dir)
    assert.ErrorContains(t, err, "duplicate override key")
}
