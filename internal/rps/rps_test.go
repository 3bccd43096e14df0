package rps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]Move{
		"r":        Rock,
		"p":        Paper,
		"s":        Scissors,
		"rock":     Rock,
		"paper":    Paper,
		"scissors": Scissors,
		" Rock ":   Rock,
		"SCISSORS": Scissors,
	}
	for in, want := range cases {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizeIdempotentOnCanonical(t *testing.T) {
	for _, m := range Moves {
		got, err := Normalize(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestAcceptsOnlyMoveTokens(t *testing.T) {
	for _, in := range []string{"", "x", "rocks", "lizard", "rp", "hello"} {
		assert.False(t, Accepts(in), in)
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrUnknownMove, in)
	}
	assert.True(t, Accepts("P"))
}

func TestResolveReflexive(t *testing.T) {
	for _, m := range Moves {
		assert.Equal(t, Tie, Resolve(m, m), m)
	}
}

func TestResolveAntisymmetric(t *testing.T) {
	for _, a := range Moves {
		for _, b := range Moves {
			assert.Equal(t, Resolve(a, b).Swap(), Resolve(b, a), "%s vs %s", a, b)
		}
	}
}

func TestResolveFixedWins(t *testing.T) {
	assert.Equal(t, AWins, Resolve(Rock, Scissors))
	assert.Equal(t, AWins, Resolve(Scissors, Paper))
	assert.Equal(t, AWins, Resolve(Paper, Rock))
	assert.Equal(t, BWins, Resolve(Scissors, Rock))
}

func TestEmoji(t *testing.T) {
	assert.Equal(t, "🪨", Rock.Emoji())
	assert.True(t, Paper.Valid())
	assert.False(t, Move("lizard").Valid())
}
