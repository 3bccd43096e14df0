package presenter

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/mocks"
	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/match"
	"github.com/park285/RPS-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/RPS-KakaoTalk-bot/internal/names"
	"github.com/park285/RPS-KakaoTalk-bot/internal/rps"
	"github.com/park285/RPS-KakaoTalk-bot/internal/stats"
)

type captured struct {
	mu     sync.Mutex
	texts  []string
	images []string
}

func (c *captured) SendText(_ context.Context, _ string, message string) error {
	c.mu.Lock()
	c.texts = append(c.texts, message)
	c.mu.Unlock()
	return nil
}

func (c *captured) SendImage(_ context.Context, _ string, imageBase64 string) error {
	c.mu.Lock()
	c.images = append(c.images, imageBase64)
	c.mu.Unlock()
	return nil
}

func newFormatter(t *testing.T, draws ...int) (*Formatter, *names.Directory) {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	dir := names.NewDirectory()
	dir.Learn("u1", "Alice")
	dir.Learn("u2", "Bob")
	return NewFormatter(cat, dir, mocks.NewMockRandom(draws...), "!"), dir
}

func session(kind domain.MatchKind) *match.Session {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &match.Session{ID: "m1", Kind: kind, Room: "room1", Challenger: "u1", CreatedAt: now, Deadline: now.Add(30 * time.Second)}
	if kind == domain.MatchDuel {
		s.Opponent = "u2"
	}
	return s
}

func TestEmptyStatsMessages(t *testing.T) {
	f, _ := newFormatter(t)
	store := stats.NewStore(mocks.NewMockClock(time.Now()))

	assert.Equal(t, "Leaderboard is empty.", f.Leaderboard(store.Leaderboard()))
	assert.Equal(t, "You have no game history yet.", f.History("u1", nil, stats.ErrNoHistory))
}

func TestLeaderboardRows(t *testing.T) {
	f, _ := newFormatter(t)
	store := stats.NewStore(mocks.NewMockClock(time.Now()))
	store.RecordOutcome("u2", "u1", false)
	store.RecordOutcome("u1", "", true)

	out := f.Leaderboard(store.Leaderboard())
	assert.Equal(t, "🏆 Leaderboard\n1. Bob: 1W / 0L / 0T\n2. Alice: 0W / 1L / 1T", out)
}

func TestLongLeaderboardFolds(t *testing.T) {
	f, _ := newFormatter(t)
	entries := make([]domain.LeaderboardEntry, 15)
	for i := range entries {
		entries[i] = domain.LeaderboardEntry{Player: domain.PlayerID("p" + string(rune('a'+i)))}
	}
	out := f.Leaderboard(entries, nil)
	assert.True(t, strings.HasPrefix(out, "🏆 Leaderboard (tap to see all)"+zeroWidthSpace))
	assert.Equal(t, foldPadding, strings.Count(out, zeroWidthSpace))
	assert.Equal(t, 1, strings.Count(out, "Leaderboard"))
	assert.Equal(t, 15, strings.Count(out, "\n"))
}

func TestListingFoldsOnlyPastLimit(t *testing.T) {
	rows := make([]string, foldAfter-1)
	for i := range rows {
		rows[i] = "row"
	}
	out := listing("H", " (more)", rows)
	assert.NotContains(t, out, zeroWidthSpace)
	assert.True(t, strings.HasPrefix(out, "H\nrow"))

	out = listing("H", " (more)", append(rows, "last"))
	assert.True(t, strings.HasPrefix(out, "H (more)"+zeroWidthSpace))
	assert.True(t, strings.HasSuffix(out, "\nrow\nlast"))

	assert.Equal(t, "H", listing("H", " (more)", nil))
}

func TestHistoryRows(t *testing.T) {
	f, _ := newFormatter(t)
	at := time.Date(2025, 3, 4, 5, 6, 0, 0, time.UTC)
	out := f.History("u1", []domain.HistoryRecord{
		{Result: domain.ResultWin, At: at},
		{Result: domain.ResultTie, Opponent: "u2", At: at},
	}, nil)
	assert.Equal(t, "📜 Alice's game history\n03-04 05:06  Result: Win (against bot)\n03-04 05:06  Result: Tie against Bob", out)
}

func TestSingleRevealIncludesComment(t *testing.T) {
	f, _ := newFormatter(t, 0)
	out := f.Reveal(session(domain.MatchSingle), match.Outcome{
		ChallengerMove: rps.Rock, OpponentMove: rps.Scissors, Verdict: rps.AWins, Winner: "u1",
	})
	assert.Equal(t, "Alice's choice: rock 🪨\nBot's choice: scissors ✂️\n🎉 Alice wins! Lucky guess!", out)
}

func TestDuelRevealAndMasked(t *testing.T) {
	f, _ := newFormatter(t)
	s := session(domain.MatchDuel)
	assert.Equal(t, "Alice's choice: ***\nBob's choice: ***", f.Masked(s))

	out := f.Reveal(s, match.Outcome{ChallengerMove: rps.Paper, OpponentMove: rps.Paper, Verdict: rps.Tie})
	assert.Equal(t, "Alice's choice: paper 📄\nBob's choice: paper 📄\n🤝 It's a tie!", out)
}

func TestErrorsAndPrompts(t *testing.T) {
	f, _ := newFormatter(t)
	assert.Equal(t, "You can't challenge yourself!", f.Error(match.ErrSelfChallenge, ""))
	assert.Equal(t, "You are already in an ongoing game! Finish it first.", f.Error(match.ErrAlreadyInSession, ""))
	assert.Equal(t, "Bob is already in a game! Try again later.", f.Error(&match.BusyError{Player: "u2"}, ""))
	assert.Contains(t, f.Error(match.ErrUnknownOpponent, "@Zed"), "@Zed")
	assert.Equal(t, f.Generic(), f.Error(assert.AnError, ""))

	assert.Equal(t, "⏰ Alice took too long to respond! Game canceled.\n⏰ Bob took too long to respond! Game canceled.",
		f.TimedOut([]domain.PlayerID{"u1", "u2"}))
	assert.Contains(t, f.Prompt(session(domain.MatchSingle), "u1", false), "within 30 seconds")
	assert.Contains(t, f.Help(), "!leaderboard")
	assert.Equal(t, "That command doesn't exist! Try !help.", f.UnknownCommand())
}

func TestPresenterSendsCardAfterText(t *testing.T) {
	f, _ := newFormatter(t)
	out := &captured{}
	p := NewPresenter(out, f, NewCardRenderer())

	err := p.Reveal(context.Background(), session(domain.MatchDuel), match.Outcome{
		ChallengerMove: rps.Scissors, OpponentMove: rps.Paper, Verdict: rps.AWins, Winner: "u1", Loser: "u2",
	})
	require.NoError(t, err)
	require.Len(t, out.texts, 1)
	require.Len(t, out.images, 1)

	raw, err := base64.StdEncoding.DecodeString(out.images[0])
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, cardWidth, img.Bounds().Dx())
	assert.Equal(t, cardHeight, img.Bounds().Dy())
}

func TestPresenterWithoutCard(t *testing.T) {
	f, _ := newFormatter(t)
	out := &captured{}
	p := NewPresenter(out, f, nil)

	require.NoError(t, p.TimedOut(context.Background(), session(domain.MatchSingle), []domain.PlayerID{"u1"}))
	require.NoError(t, p.Reveal(context.Background(), session(domain.MatchSingle), match.Outcome{
		ChallengerMove: rps.Rock, OpponentMove: rps.Rock, Verdict: rps.Tie,
	}))
	assert.Len(t, out.texts, 2)
	assert.Empty(t, out.images)
}

func TestCardRejectsUnknownMove(t *testing.T) {
	_, err := NewCardRenderer().RenderPNG(context.Background(), Card{Left: CardSide{Move: "lizard"}, Right: CardSide{Move: rps.Rock}})
	assert.ErrorIs(t, err, rps.ErrUnknownMove)
}
