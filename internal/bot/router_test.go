package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/RPS-KakaoTalk-bot/internal/config"
	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/mocks"
	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/irisfast"
	"github.com/park285/RPS-KakaoTalk-bot/internal/rpsbuilder"
)

type outbox struct {
	mu    sync.Mutex
	texts map[string][]string
}

func (o *outbox) SendText(_ context.Context, room, message string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.texts[room] = append(o.texts[room], message)
	return nil
}

func (o *outbox) SendImage(context.Context, string, string) error { return nil }

func (o *outbox) last(room string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	list := o.texts[room]
	if len(list) == 0 {
		return ""
	}
	return list[len(list)-1]
}

func (o *outbox) all(room string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.texts[room], "\n")
}

func newRouter(t *testing.T, draws ...int) (*Router, *rpsbuilder.Deps, *outbox) {
	t.Helper()
	cfg := &config.AppConfig{BotPrefix: "!", MoveTimeout: time.Second, InputMode: config.InputModeRoom, AllowedRooms: []string{"room1"}}
	out := &outbox{texts: map[string][]string{}}
	deps, err := rpsbuilder.New(context.Background(), cfg, out, nil, rpsbuilder.Overrides{
		Random: mocks.NewMockRandom(draws...),
		Clock:  mocks.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })
	return NewRouter(context.Background(), cfg.BotPrefix, cfg.RoomAllowed, deps, nil), deps, out
}

func message(room, user, name, text string) *irisfast.Message {
	return &irisfast.Message{Room: room, Msg: text, Sender: &name, JSON: &irisfast.MessageJSON{UserID: user}}
}

func TestStatsCommandsWhenEmpty(t *testing.T) {
	r, _, out := newRouter(t)
	ctx := context.Background()

	r.Handle(ctx, message("room1", "u1", "Alice", "!leaderboard"))
	assert.Equal(t, "Leaderboard is empty.", out.last("room1"))

	r.Handle(ctx, message("room1", "u1", "Alice", "!history"))
	assert.Equal(t, "You have no game history yet.", out.last("room1"))
}

func TestHelpAndUnknownCommand(t *testing.T) {
	r, _, out := newRouter(t)
	ctx := context.Background()

	r.Handle(ctx, message("room1", "u1", "Alice", "!"))
	assert.Contains(t, out.last("room1"), "!rps @name")

	r.Handle(ctx, message("room1", "u1", "Alice", "!dance"))
	assert.Equal(t, "That command doesn't exist! Try !help.", out.last("room1"))
}

func TestChallengeGuards(t *testing.T) {
	r, _, out := newRouter(t)
	ctx := context.Background()
	r.OnMessage(message("room1", "u1", "Alice", "hi"))

	r.Handle(ctx, message("room1", "u1", "Alice", "!rps @Alice"))
	assert.Equal(t, "You can't challenge yourself!", out.last("room1"))

	r.Handle(ctx, message("room1", "u1", "Alice", "!rps @Nobody"))
	assert.Contains(t, out.last("room1"), "@Nobody")
}

func TestSingleGameThroughOnMessage(t *testing.T) {
	r, deps, out := newRouter(t, 1) // bot draws paper
	r.OnMessage(message("room1", "u1", "Alice", "hello"))
	done := make(chan struct{})
	go func() {
		r.Handle(context.Background(), message("room1", "u1", "Alice", "!rps"))
		close(done)
	}()
	require.Eventually(t, func() bool { return deps.Hub.Pending() == 1 }, time.Second, time.Millisecond)

	// a second command from the same player is refused while the first is open
	r.Handle(context.Background(), message("room1", "u1", "Alice", "!rps"))
	assert.Equal(t, "You are already in an ongoing game! Finish it first.", out.last("room1"))

	r.OnMessage(message("room1", "u1", "Alice", "s"))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("match did not finish")
	}

	assert.Contains(t, out.all("room1"), "Alice's choice: scissors")
	assert.Contains(t, out.all("room1"), "Alice wins!")
	e, ok := deps.Stats.Entry("u1")
	require.True(t, ok)
	assert.Equal(t, domain.LeaderboardEntry{Player: "u1", Wins: 1}, e)

	r.Handle(context.Background(), message("room1", "u1", "Alice", "!leaderboard"))
	assert.Equal(t, "🏆 Leaderboard\n1. Alice: 1W / 0L / 0T", out.last("room1"))
}

func TestOnMessageIgnoresDisallowedRooms(t *testing.T) {
	r, deps, out := newRouter(t)
	r.OnMessage(message("elsewhere", "u9", "Zed", "!help"))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, out.all("elsewhere"))

	// names are still learned from any room
	id, ok := deps.Names.Resolve("@Zed")
	assert.True(t, ok)
	assert.Equal(t, domain.PlayerID("u9"), id)
}

func TestPanicIsRecovered(t *testing.T) {
	r, deps, out := newRouter(t)
	deps.Stats = nil // forces a nil dereference inside the leaderboard command

	assert.NotPanics(t, func() {
		r.Handle(context.Background(), message("room1", "u1", "Alice", "!leaderboard"))
	})
	assert.Equal(t, deps.Formatter.Generic(), out.last("room1"))
}
