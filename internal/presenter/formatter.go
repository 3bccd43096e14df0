package presenter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/random"
	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/match"
	"github.com/park285/RPS-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/RPS-KakaoTalk-bot/internal/names"
	"github.com/park285/RPS-KakaoTalk-bot/internal/rps"
	"github.com/park285/RPS-KakaoTalk-bot/internal/stats"
)

const historyTimeLayout = "01-02 15:04"

// Formatter renders match events and stats into chat text using the message catalog.
type Formatter struct {
	cat    *msgcat.Catalog
	names  *names.Directory
	rand   random.Random
	prefix string
}

func NewFormatter(cat *msgcat.Catalog, dir *names.Directory, rnd random.Random, prefix string) *Formatter {
	return &Formatter{cat: cat, names: dir, rand: rnd, prefix: strings.TrimSpace(prefix)}
}

func (f *Formatter) Prefix() string { return f.prefix }

func (f *Formatter) name(id domain.PlayerID) string { return f.names.Name(id) }

func moveText(m rps.Move) string { return m.String() + " " + m.Emoji() }

func seconds(s *match.Session) int {
	return int(math.Round(s.Deadline.Sub(s.CreatedAt).Seconds()))
}

// Prompt asks p for a move. It matches gateway.PromptText.
func (f *Formatter) Prompt(s *match.Session, p domain.PlayerID, private bool) string {
	key := "rps.prompt.room"
	if private {
		key = "rps.prompt.private"
	}
	data := map[string]any{"Player": f.name(p), "Seconds": seconds(s)}
	return f.cat.RenderOr(key, data, fmt.Sprintf("%s: r, p or s?", f.name(p)))
}

func (f *Formatter) Challenge(s *match.Session) string {
	data := map[string]any{"Challenger": f.name(s.Challenger), "Opponent": f.name(s.Opponent)}
	return f.cat.RenderOr("rps.challenge", data, "New challenge!")
}

func (f *Formatter) Masked(s *match.Session) string {
	data := map[string]any{"Challenger": f.name(s.Challenger), "Opponent": f.name(s.Opponent)}
	return f.cat.RenderOr("rps.masked", data, "***")
}

// Reveal shows both choices and the verdict. Matches against the bot also get a comment.
func (f *Formatter) Reveal(s *match.Session, o match.Outcome) string {
	var sb strings.Builder
	if s.Kind == domain.MatchSingle {
		sb.WriteString(f.cat.RenderOr("rps.reveal.single", map[string]any{
			"Player":     f.name(s.Challenger),
			"PlayerMove": moveText(o.ChallengerMove),
			"BotMove":    moveText(o.OpponentMove),
		}, moveText(o.ChallengerMove)+" / "+moveText(o.OpponentMove)))
		sb.WriteByte('\n')

		var key, group string
		switch o.Verdict {
		case rps.Tie:
			key, group = "rps.result.tie", "rps.comments.tie"
		case rps.AWins:
			key, group = "rps.result.player_win", "rps.comments.player_win"
		default:
			key, group = "rps.result.bot_win", "rps.comments.bot_win"
		}
		sb.WriteString(f.cat.RenderOr(key, map[string]any{"Player": f.name(s.Challenger)}, o.Verdict.String()))
		if c := f.comment(group); c != "" {
			sb.WriteByte(' ')
			sb.WriteString(c)
		}
		return sb.String()
	}

	sb.WriteString(f.cat.RenderOr("rps.reveal.duel", map[string]any{
		"Challenger":     f.name(s.Challenger),
		"ChallengerMove": moveText(o.ChallengerMove),
		"Opponent":       f.name(s.Opponent),
		"OpponentMove":   moveText(o.OpponentMove),
	}, moveText(o.ChallengerMove)+" / "+moveText(o.OpponentMove)))
	sb.WriteByte('\n')
	if o.Tie() {
		sb.WriteString(f.cat.RenderOr("rps.result.tie", nil, "Tie"))
	} else {
		sb.WriteString(f.cat.RenderOr("rps.result.duel_win", map[string]any{
			"Winner": f.name(o.Winner),
			"Loser":  f.name(o.Loser),
		}, f.name(o.Winner)))
	}
	return sb.String()
}

func (f *Formatter) comment(group string) string {
	keys := f.cat.Keys(group)
	if len(keys) == 0 || f.rand == nil {
		return ""
	}
	return f.cat.RenderOr(keys[f.rand.Intn(len(keys))], nil, "")
}

// TimedOut produces one notice line per slow participant.
func (f *Formatter) TimedOut(slow []domain.PlayerID) string {
	lines := make([]string, 0, len(slow))
	for _, p := range slow {
		lines = append(lines, f.cat.RenderOr("rps.timeout", map[string]any{"Player": f.name(p)}, "Game canceled."))
	}
	return strings.Join(lines, "\n")
}

// Error maps match and lookup failures to the user-facing notice.
func (f *Formatter) Error(err error, mention string) string {
	var busy *match.BusyError
	switch {
	case errors.Is(err, match.ErrAlreadyInSession):
		return f.cat.RenderOr("rps.error.already_in_session", nil, err.Error())
	case errors.Is(err, match.ErrSelfChallenge):
		return f.cat.RenderOr("rps.error.self_challenge", nil, err.Error())
	case errors.As(err, &busy):
		return f.cat.RenderOr("rps.error.opponent_busy", map[string]any{"Player": f.name(busy.Player)}, err.Error())
	case errors.Is(err, match.ErrUnknownOpponent):
		return f.cat.RenderOr("rps.error.unknown_opponent", map[string]any{"Mention": mention}, err.Error())
	default:
		return f.Generic()
	}
}

func (f *Formatter) Generic() string {
	return f.cat.RenderOr("rps.error.generic", nil, "Something went wrong.")
}

// Leaderboard renders the board in first-seen order. Pass the store's error
// through so the empty case gets its own message.
func (f *Formatter) Leaderboard(entries []domain.LeaderboardEntry, err error) string {
	if errors.Is(err, stats.ErrLeaderboardEmpty) || (err == nil && len(entries) == 0) {
		return f.cat.RenderOr("leaderboard.empty", nil, "Leaderboard is empty.")
	}
	if err != nil {
		return f.Generic()
	}
	rows := make([]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, f.cat.RenderOr("leaderboard.row", map[string]any{
			"Rank":   i + 1,
			"Player": f.name(e.Player),
			"Wins":   e.Wins,
			"Losses": e.Losses,
			"Ties":   e.Ties,
		}, f.name(e.Player)))
	}
	return listing(f.cat.RenderOr("leaderboard.header", nil, "Leaderboard"), f.cat.RenderOr("see_more", nil, ""), rows)
}

func (f *Formatter) History(player domain.PlayerID, records []domain.HistoryRecord, err error) string {
	if errors.Is(err, stats.ErrNoHistory) || (err == nil && len(records) == 0) {
		return f.cat.RenderOr("history.empty", nil, "You have no game history yet.")
	}
	if err != nil {
		return f.Generic()
	}
	rows := make([]string, 0, len(records))
	for _, r := range records {
		opp := ""
		if r.Opponent != "" {
			opp = f.name(r.Opponent)
		}
		rows = append(rows, f.cat.RenderOr("history.row", map[string]any{
			"When":     r.At.Format(historyTimeLayout),
			"Result":   string(r.Result),
			"Opponent": opp,
		}, string(r.Result)))
	}
	header := f.cat.RenderOr("history.header", map[string]any{"Player": f.name(player)}, "History")
	return listing(header, f.cat.RenderOr("see_more", nil, ""), rows)
}

func (f *Formatter) Help() string {
	return f.cat.RenderOr("help", map[string]any{"Prefix": f.prefix}, "rps, leaderboard, history, help")
}

func (f *Formatter) UnknownCommand() string {
	return f.cat.RenderOr("unknown_command", map[string]any{"Prefix": f.prefix}, "That command doesn't exist!")
}

// CardTitle and BotLabel feed the result card captions.
func (f *Formatter) CardTitle() string { return f.cat.RenderOr("card.title", nil, "Rock Paper Scissors") }

func (f *Formatter) BotLabel() string { return f.cat.RenderOr("card.bot", nil, "Bot") }

func (f *Formatter) Name(id domain.PlayerID) string { return f.name(id) }
