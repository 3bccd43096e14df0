package rps

import (
	"errors"
	"strings"
)

// Move is a canonical rock-paper-scissors choice.
type Move string

const (
	Rock     Move = "rock"
	Paper    Move = "paper"
	Scissors Move = "scissors"
)

var ErrUnknownMove = errors.New("unknown move")

// Moves lists the canonical moves in draw order.
var Moves = []Move{Rock, Paper, Scissors}

var tokens = map[string]Move{
	"r":        Rock,
	"p":        Paper,
	"s":        Scissors,
	"rock":     Rock,
	"paper":    Paper,
	"scissors": Scissors,
}

var emoji = map[Move]string{
	Rock:     "🪨",
	Paper:    "📄",
	Scissors: "✂️",
}

func token(raw string) string { return strings.ToLower(strings.TrimSpace(raw)) }

// Accepts reports whether raw is one of the accepted move tokens.
func Accepts(raw string) bool {
	_, ok := tokens[token(raw)]
	return ok
}

// Normalize maps an accepted token (shorthand or full word) to its canonical Move.
func Normalize(raw string) (Move, error) {
	if m, ok := tokens[token(raw)]; ok {
		return m, nil
	}
	return "", ErrUnknownMove
}

func (m Move) String() string { return string(m) }

// Emoji returns the icon shown next to the move in reveals.
func (m Move) Emoji() string { return emoji[m] }

func (m Move) Valid() bool {
	_, ok := emoji[m]
	return ok
}
