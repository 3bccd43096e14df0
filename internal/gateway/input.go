package gateway

import (
	"context"
	"strings"

	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/irisfast"
	"github.com/park285/RPS-KakaoTalk-bot/internal/match"
	"github.com/park285/RPS-KakaoTalk-bot/internal/rps"
)

// TextSender is the outbound half of irisfast.Egress the inputs need.
type TextSender interface {
	SendText(ctx context.Context, room, message string) error
}

// PromptText renders the prompt shown to p. private selects the
// "answer me in a 1:1 chat" wording.
type PromptText func(s *match.Session, p domain.PlayerID, private bool) string

// RoomInput reads moves from the room the match started in.
type RoomInput struct {
	hub    *Hub
	send   TextSender
	prompt PromptText
}

func NewRoomInput(hub *Hub, send TextSender, prompt PromptText) *RoomInput {
	return &RoomInput{hub: hub, send: send, prompt: prompt}
}

func (in *RoomInput) Prompt(ctx context.Context, s *match.Session, p domain.PlayerID) error {
	return in.send.SendText(ctx, s.Room, in.prompt(s, p, false))
}

func (in *RoomInput) Listen(s *match.Session, p domain.PlayerID) match.Pending {
	room := s.Room
	return moveWait{in.hub.Register(func(m *irisfast.Message) bool {
		return m.Room == room && domain.PlayerID(m.UserID()) == p && rps.Accepts(m.Msg)
	})}
}

// PrivateInput accepts a participant's move from any room, so the move can be
// sent in a 1:1 chat with the bot and stay hidden from the opponent.
type PrivateInput struct {
	hub    *Hub
	send   TextSender
	prompt PromptText
}

func NewPrivateInput(hub *Hub, send TextSender, prompt PromptText) *PrivateInput {
	return &PrivateInput{hub: hub, send: send, prompt: prompt}
}

func (in *PrivateInput) Prompt(ctx context.Context, s *match.Session, p domain.PlayerID) error {
	return in.send.SendText(ctx, s.Room, in.prompt(s, p, true))
}

func (in *PrivateInput) Listen(_ *match.Session, p domain.PlayerID) match.Pending {
	return moveWait{in.hub.Register(func(m *irisfast.Message) bool {
		return domain.PlayerID(m.UserID()) == p && rps.Accepts(m.Msg)
	})}
}

// moveWait adapts a hub Waiter to match.Pending.
type moveWait struct{ w *Waiter }

func (mw moveWait) Wait(ctx context.Context) (string, error) {
	m, err := mw.w.Wait(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(m.Msg), nil
}

func (mw moveWait) Cancel() { mw.w.Cancel() }

var (
	_ match.InputChannel = (*RoomInput)(nil)
	_ match.InputChannel = (*PrivateInput)(nil)
)
