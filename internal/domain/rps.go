package domain

import "time"

// PlayerID is the platform-assigned user handle (Iris user id, or sender name when absent).
type PlayerID string

type MatchKind string

const (
	MatchSingle MatchKind = "single"
	MatchDuel   MatchKind = "duel"
)

type Result string

const (
	ResultWin  Result = "Win"
	ResultLoss Result = "Loss"
	ResultTie  Result = "Tie"
)

type LeaderboardEntry struct {
	Player PlayerID
	Wins   int
	Losses int
	Ties   int
}

// HistoryRecord is one finished match from a single player's point of view.
// Opponent is empty for matches against the bot.
type HistoryRecord struct {
	Result   Result
	Opponent PlayerID
	At       time.Time
}

// MatchRecord is the archived form of a resolved or timed-out match.
type MatchRecord struct {
	ID           string
	Kind         MatchKind
	Room         string
	ChallengerID PlayerID
	OpponentID   PlayerID
	ChallengerMv string
	OpponentMv   string
	Outcome      string
	WinnerID     PlayerID
	StartedAt    time.Time
	EndedAt      time.Time
}
