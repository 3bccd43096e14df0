package names

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
)

func TestNameFallbacks(t *testing.T) {
	d := NewDirectory()
	assert.Equal(t, UnknownUser, d.Name(""))
	assert.Equal(t, "u42", d.Name("u42"))

	d.Learn("u42", "Alice")
	assert.Equal(t, "Alice", d.Name("u42"))
}

func TestResolveMention(t *testing.T) {
	d := NewDirectory()
	d.Learn("u1", "Alice")

	id, ok := d.Resolve("@alice")
	assert.True(t, ok)
	assert.Equal(t, domain.PlayerID("u1"), id)

	id, ok = d.Resolve("u1")
	assert.True(t, ok)
	assert.Equal(t, domain.PlayerID("u1"), id)

	_, ok = d.Resolve("@Bob")
	assert.False(t, ok)
	_, ok = d.Resolve("@")
	assert.False(t, ok)
}

func TestRenameDropsOldMention(t *testing.T) {
	d := NewDirectory()
	d.Learn("u1", "Alice")
	d.Learn("u1", "Alicia")

	_, ok := d.Resolve("@Alice")
	assert.False(t, ok)
	id, ok := d.Resolve("@Alicia")
	assert.True(t, ok)
	assert.Equal(t, domain.PlayerID("u1"), id)
}

func TestLearnIgnoresBlank(t *testing.T) {
	d := NewDirectory()
	d.Learn("", "Ghost")
	d.Learn("u1", "  ")
	_, ok := d.Resolve("Ghost")
	assert.False(t, ok)
	assert.Equal(t, "u1", d.Name("u1"))
}
