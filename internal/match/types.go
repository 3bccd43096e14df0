package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/rps"
)

var (
	ErrAlreadyInSession = errors.New("player already has an open match")
	ErrSelfChallenge    = errors.New("cannot challenge yourself")
	ErrOpponentBusy     = errors.New("opponent already has an open match")
	ErrUnknownOpponent  = errors.New("unknown opponent")
	ErrResponseTimeout  = errors.New("move response timed out")
)

// TimeoutError names the first participant whose wait expired.
type TimeoutError struct {
	Player domain.PlayerID
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %v", e.Player, ErrResponseTimeout)
}

func (e *TimeoutError) Unwrap() error { return ErrResponseTimeout }

// BusyError carries the id of the opponent that already holds a match.
type BusyError struct {
	Player domain.PlayerID
}

func (e *BusyError) Error() string { return fmt.Sprintf("%s: %v", e.Player, ErrOpponentBusy) }

func (e *BusyError) Unwrap() error { return ErrOpponentBusy }

type State int

const (
	StatePendingChallenge State = iota
	StateAwaitingMoves
	StateResolved
	StateClosed
	StateAlreadyInSession
	StateSelfChallengeRejected
	StateOpponentBusyRejected
	StateTimedOut
	// StateFailed means the registry could not be consulted; no session was
	// acquired.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePendingChallenge:
		return "pending_challenge"
	case StateAwaitingMoves:
		return "awaiting_moves"
	case StateResolved:
		return "resolved"
	case StateClosed:
		return "closed"
	case StateAlreadyInSession:
		return "already_in_session"
	case StateSelfChallengeRejected:
		return "self_challenge_rejected"
	case StateOpponentBusyRejected:
		return "opponent_busy_rejected"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is one match from acquisition to release.
// Opponent is empty when playing against the bot.
type Session struct {
	ID         string
	Kind       domain.MatchKind
	Room       string
	Challenger domain.PlayerID
	Opponent   domain.PlayerID
	CreatedAt  time.Time
	Deadline   time.Time
}

// Participants lists the human players in prompt order.
func (s *Session) Participants() []domain.PlayerID {
	if s.Kind == domain.MatchDuel {
		return []domain.PlayerID{s.Challenger, s.Opponent}
	}
	return []domain.PlayerID{s.Challenger}
}

// Outcome is a resolved match. For single matches OpponentMove is the bot's move
// and an empty Winner or Loser stands for the bot.
type Outcome struct {
	ChallengerMove rps.Move
	OpponentMove   rps.Move
	Verdict        rps.Verdict
	Winner         domain.PlayerID
	Loser          domain.PlayerID
}

func (o Outcome) Tie() bool { return o.Verdict == rps.Tie }

// Report is what Play hands back: the terminal state plus whatever was decided.
type Report struct {
	Session *Session
	State   State
	Outcome *Outcome
	Slow    []domain.PlayerID
}

// Request starts a match. Leave Opponent empty to play the bot.
type Request struct {
	Room       string
	Challenger domain.PlayerID
	Opponent   domain.PlayerID
}

// InputChannel prompts a participant and collects an accepted move token.
// Listen must be called before Prompt so that an answer sent while prompts
// are still going out is kept.
type InputChannel interface {
	Listen(s *Session, p domain.PlayerID) Pending
	Prompt(ctx context.Context, s *Session, p domain.PlayerID) error
}

// Pending is a registered wait for one participant's move.
// Wait returns ctx.Err() when ctx ends without a move.
type Pending interface {
	Wait(ctx context.Context) (string, error)
	Cancel()
}

// Notifier delivers match-level announcements to the room.
type Notifier interface {
	Challenge(ctx context.Context, s *Session) error
	Masked(ctx context.Context, s *Session) error
	Reveal(ctx context.Context, s *Session, o Outcome) error
	TimedOut(ctx context.Context, s *Session, slow []domain.PlayerID) error
}

type StatsRecorder interface {
	RecordOutcome(winner, loser domain.PlayerID, tie bool)
	AppendHistory(id domain.PlayerID, result domain.Result, opponent domain.PlayerID)
}

// Archiver stores finished matches. Failures are logged and ignored.
type Archiver interface {
	SaveMatch(ctx context.Context, rec *domain.MatchRecord) error
}
