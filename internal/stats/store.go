package stats

import (
	"errors"
	"sync"

	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/clock"
	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
)

var (
	ErrLeaderboardEmpty = errors.New("leaderboard is empty")
	ErrNoHistory        = errors.New("no match history")
)

// Store accumulates per-player counters and result logs for the lifetime of the process.
// Leaderboard order is first-seen order.
type Store struct {
	mu      sync.RWMutex
	clock   clock.Clock
	order   []domain.PlayerID
	entries map[domain.PlayerID]*domain.LeaderboardEntry
	history map[domain.PlayerID][]domain.HistoryRecord
}

func NewStore(c clock.Clock) *Store {
	if c == nil {
		c = clock.New()
	}
	return &Store{
		clock:   c,
		entries: make(map[domain.PlayerID]*domain.LeaderboardEntry),
		history: make(map[domain.PlayerID][]domain.HistoryRecord),
	}
}

// entry must be called with mu held.
func (s *Store) entry(id domain.PlayerID) *domain.LeaderboardEntry {
	e, ok := s.entries[id]
	if !ok {
		e = &domain.LeaderboardEntry{Player: id}
		s.entries[id] = e
		s.order = append(s.order, id)
	}
	return e
}

// RecordOutcome updates counters for whichever of winner/loser is non-empty.
// With tie set, both supplied players get a tie instead.
func (s *Store) RecordOutcome(winner, loser domain.PlayerID, tie bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tie {
		for _, id := range []domain.PlayerID{winner, loser} {
			if id != "" {
				s.entry(id).Ties++
			}
		}
		return
	}
	if winner != "" {
		s.entry(winner).Wins++
	}
	if loser != "" {
		s.entry(loser).Losses++
	}
}

func (s *Store) AppendHistory(id domain.PlayerID, result domain.Result, opponent domain.PlayerID) {
	if id == "" {
		return
	}
	rec := domain.HistoryRecord{Result: result, Opponent: opponent, At: s.clock.Now()}
	s.mu.Lock()
	s.history[id] = append(s.history[id], rec)
	s.mu.Unlock()
}

// Leaderboard returns a snapshot in first-seen order, or ErrLeaderboardEmpty.
func (s *Store) Leaderboard() ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, ErrLeaderboardEmpty
	}
	out := make([]domain.LeaderboardEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.entries[id])
	}
	return out, nil
}

// Entry returns a copy of one player's counters.
func (s *Store) Entry(id domain.PlayerID) (domain.LeaderboardEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return domain.LeaderboardEntry{Player: id}, false
	}
	return *e, true
}

// History returns the player's records in chronological order, or ErrNoHistory.
func (s *Store) History(id domain.PlayerID) ([]domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.history[id]
	if len(list) == 0 {
		return nil, ErrNoHistory
	}
	return append([]domain.HistoryRecord(nil), list...), nil
}
