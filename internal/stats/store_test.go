package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/mocks"
	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
)

func newStore() (*Store, *mocks.MockClock) {
	clk := mocks.NewMockClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return NewStore(clk), clk
}

func TestEmptyStateIsExplicit(t *testing.T) {
	s, _ := newStore()
	_, err := s.Leaderboard()
	assert.ErrorIs(t, err, ErrLeaderboardEmpty)
	_, err = s.History("u1")
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestRecordOutcomeWinLoss(t *testing.T) {
	s, _ := newStore()
	s.RecordOutcome("alice", "bob", false)

	a, ok := s.Entry("alice")
	require.True(t, ok)
	assert.Equal(t, 1, a.Wins)
	assert.Zero(t, a.Losses)

	b, ok := s.Entry("bob")
	require.True(t, ok)
	assert.Equal(t, 1, b.Losses)
	assert.Zero(t, b.Wins)
}

func TestRecordOutcomeTieAndAbsentPlayer(t *testing.T) {
	s, _ := newStore()
	s.RecordOutcome("alice", "bob", true)
	s.RecordOutcome("alice", "", true)
	s.RecordOutcome("", "bob", false)

	a, _ := s.Entry("alice")
	b, _ := s.Entry("bob")
	assert.Equal(t, 2, a.Ties)
	assert.Equal(t, 1, b.Ties)
	assert.Equal(t, 1, b.Losses)

	_, ok := s.Entry("")
	assert.False(t, ok, "absent participant must never get an entry")
}

func TestLeaderboardFirstSeenOrder(t *testing.T) {
	s, _ := newStore()
	s.RecordOutcome("carol", "", false)
	s.RecordOutcome("alice", "bob", false)
	s.RecordOutcome("bob", "carol", false)

	board, err := s.Leaderboard()
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []domain.PlayerID{"carol", "alice", "bob"},
		[]domain.PlayerID{board[0].Player, board[1].Player, board[2].Player})
	assert.Equal(t, 1, board[0].Wins)
	assert.Equal(t, 1, board[0].Losses)
}

func TestHistoryIsChronologicalAndAppendOnly(t *testing.T) {
	s, clk := newStore()
	s.AppendHistory("alice", domain.ResultWin, "")
	clk.Advance(time.Minute)
	s.AppendHistory("alice", domain.ResultTie, "bob")

	first, err := s.History("alice")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, domain.ResultWin, first[0].Result)
	assert.Empty(t, first[0].Opponent)
	assert.Equal(t, domain.PlayerID("bob"), first[1].Opponent)
	assert.True(t, first[1].At.After(first[0].At))

	// callers get a copy
	first[0].Result = domain.ResultLoss
	again, _ := s.History("alice")
	assert.Equal(t, domain.ResultWin, again[0].Result)
}
