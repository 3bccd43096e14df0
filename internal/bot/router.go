// Package bot turns inbound Iris messages into match plays and stats replies.
package bot

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/irisfast"
	"github.com/park285/RPS-KakaoTalk-bot/internal/match"
	"github.com/park285/RPS-KakaoTalk-bot/internal/rpsbuilder"
)

// RoomFilter reports whether commands from room should be handled.
type RoomFilter func(room string) bool

type Router struct {
	ctx     context.Context
	prefix  string
	allowed RoomFilter
	deps    *rpsbuilder.Deps
	logger  *zap.Logger
}

// NewRouter builds a Router. ctx bounds every match it starts.
func NewRouter(ctx context.Context, prefix string, allowed RoomFilter, deps *rpsbuilder.Deps, logger *zap.Logger) *Router {
	if allowed == nil {
		allowed = func(string) bool { return true }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{ctx: ctx, prefix: strings.TrimSpace(prefix), allowed: allowed, deps: deps, logger: logger}
}

// OnMessage is the WebSocket callback. Waiting matches see every message first;
// whatever they do not consume is treated as a possible command on its own goroutine.
func (r *Router) OnMessage(msg *irisfast.Message) {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return
	}
	r.deps.Names.Learn(domain.PlayerID(msg.UserID()), msg.SenderName())

	if r.deps.Hub.Dispatch(msg) {
		return
	}
	if !r.allowed(msg.Room) {
		r.logger.Debug("room_ignored", zap.String("room", msg.Room))
		return
	}
	if !r.isCommand(msg.Msg) {
		return
	}
	go r.Handle(r.ctx, msg)
}

func (r *Router) isCommand(text string) bool {
	return r.prefix != "" && strings.HasPrefix(strings.TrimSpace(text), r.prefix)
}

// Handle runs one command to completion. A panic is logged and answered with
// the generic error message; it never takes the process down.
func (r *Router) Handle(ctx context.Context, msg *irisfast.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("command_panic", zap.Any("panic", rec), zap.String("room", msg.Room), zap.Stack("stack"))
			r.reply(ctx, msg.Room, r.deps.Formatter.Generic())
		}
	}()

	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Msg), r.prefix))
	if raw == "" {
		r.reply(ctx, msg.Room, r.deps.Formatter.Help())
		return
	}
	parts := strings.Fields(raw)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	user := domain.PlayerID(msg.UserID())
	switch cmd {
	case "rps":
		r.handleRPS(ctx, msg, user, args)
	case "leaderboard", "lb":
		r.reply(ctx, msg.Room, r.deps.Formatter.Leaderboard(r.deps.Stats.Leaderboard()))
	case "history":
		if user == "" {
			r.reply(ctx, msg.Room, r.deps.Formatter.Generic())
			return
		}
		records, err := r.deps.Stats.History(user)
		r.reply(ctx, msg.Room, r.deps.Formatter.History(user, records, err))
	case "help":
		r.reply(ctx, msg.Room, r.deps.Formatter.Help())
	default:
		r.reply(ctx, msg.Room, r.deps.Formatter.UnknownCommand())
	}
}

func (r *Router) handleRPS(ctx context.Context, msg *irisfast.Message, user domain.PlayerID, args []string) {
	if user == "" {
		r.logger.Warn("rps_no_user", zap.String("room", msg.Room))
		r.reply(ctx, msg.Room, r.deps.Formatter.Generic())
		return
	}

	req := match.Request{Room: msg.Room, Challenger: user}
	if len(args) > 0 {
		// display names may contain spaces
		mention := strings.Join(args, " ")
		opp, ok := r.deps.Names.Resolve(mention)
		if !ok {
			r.reply(ctx, msg.Room, r.deps.Formatter.Error(match.ErrUnknownOpponent, mention))
			return
		}
		req.Opponent = opp
	}

	rep, err := r.deps.Match.Play(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, match.ErrResponseTimeout):
		// the timeout notice already went out
	case errors.Is(err, context.Canceled):
		r.logger.Info("match_cancelled", zap.String("room", msg.Room), zap.String("state", rep.State.String()))
	case errors.Is(err, match.ErrAlreadyInSession),
		errors.Is(err, match.ErrSelfChallenge),
		errors.Is(err, match.ErrOpponentBusy):
		r.reply(ctx, msg.Room, r.deps.Formatter.Error(err, ""))
	default:
		r.logger.Error("match_error", zap.String("room", msg.Room), zap.String("state", rep.State.String()), zap.Error(err))
		r.reply(ctx, msg.Room, r.deps.Formatter.Generic())
	}
}

func (r *Router) reply(ctx context.Context, room, text string) {
	if err := r.deps.Presenter.Text(ctx, room, text); err != nil {
		r.logger.Warn("reply_error", zap.String("room", room), zap.Error(err))
	}
}
