package presenter

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/match"
	"github.com/park285/RPS-KakaoTalk-bot/internal/obslog"
	"github.com/park285/RPS-KakaoTalk-bot/internal/rps"
)

// Sender is the outbound side of irisfast.Egress.
type Sender interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// Presenter delivers match announcements to the room. It implements match.Notifier.
type Presenter struct {
	send   Sender
	format *Formatter
	card   *CardRenderer
}

// NewPresenter builds a Presenter. card may be nil to skip result images.
func NewPresenter(send Sender, format *Formatter, card *CardRenderer) *Presenter {
	return &Presenter{send: send, format: format, card: card}
}

// Text sends a plain message, skipping blanks.
func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return p.send.SendText(ctx, room, message)
}

func (p *Presenter) Challenge(ctx context.Context, s *match.Session) error {
	return p.Text(ctx, s.Room, p.format.Challenge(s))
}

func (p *Presenter) Masked(ctx context.Context, s *match.Session) error {
	return p.Text(ctx, s.Room, p.format.Masked(s))
}

func (p *Presenter) Reveal(ctx context.Context, s *match.Session, o match.Outcome) error {
	if err := p.Text(ctx, s.Room, p.format.Reveal(s, o)); err != nil {
		return err
	}
	if p.card == nil {
		return nil
	}
	png, err := p.card.RenderPNG(ctx, p.cardFor(s, o))
	if err != nil {
		// the text already went out
		obslog.L().Warn("card_render_error", zap.String("match_id", s.ID), zap.Error(err))
		return nil
	}
	return p.send.SendImage(ctx, s.Room, base64.StdEncoding.EncodeToString(png))
}

func (p *Presenter) TimedOut(ctx context.Context, s *match.Session, slow []domain.PlayerID) error {
	return p.Text(ctx, s.Room, p.format.TimedOut(slow))
}

func (p *Presenter) cardFor(s *match.Session, o match.Outcome) Card {
	right := p.format.BotLabel()
	if s.Kind == domain.MatchDuel {
		right = p.format.Name(s.Opponent)
	}
	caption := "Tie"
	switch o.Verdict {
	case rps.AWins:
		caption = p.format.Name(s.Challenger) + " wins"
	case rps.BWins:
		caption = right + " wins"
	}
	return Card{
		Title:   p.format.CardTitle(),
		Left:    CardSide{Label: p.format.Name(s.Challenger), Move: o.ChallengerMove},
		Right:   CardSide{Label: right, Move: o.OpponentMove},
		Verdict: o.Verdict,
		Caption: caption,
	}
}

var _ match.Notifier = (*Presenter)(nil)
