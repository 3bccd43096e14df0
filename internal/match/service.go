package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/clock"
	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/random"
	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/obslog"
	"github.com/park285/RPS-KakaoTalk-bot/internal/rps"
	"github.com/park285/RPS-KakaoTalk-bot/internal/session"
)

const (
	DefaultMoveTimeout = 30 * time.Second

	releaseTimeout = 3 * time.Second
	archiveTimeout = 5 * time.Second
)

type Service struct {
	registry session.Registry
	input    InputChannel
	notify   Notifier
	stats    StatsRecorder
	rand     random.Random
	clock    clock.Clock
	archive  Archiver
	timeout  time.Duration
	logger   *zap.Logger
}

type Option func(*Service)

func WithMoveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithArchive(a Archiver) Option { return func(s *Service) { s.archive = a } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(reg session.Registry, in InputChannel, n Notifier, st StatsRecorder, rnd random.Random, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		input:    in,
		notify:   n,
		stats:    st,
		rand:     rnd,
		clock:    clk,
		timeout:  DefaultMoveTimeout,
		logger:   obslog.Named("match"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MoveTimeout is the per-participant wait bound.
func (s *Service) MoveTimeout() time.Duration { return s.timeout }

// Play runs one match to a terminal state. It blocks until the match is
// resolved or timed out; guard rejections return immediately without touching
// the registry. Every accepted match is released before Play returns.
func (s *Service) Play(ctx context.Context, req Request) (Report, error) {
	if req.Opponent == "" {
		return s.playSingle(ctx, req)
	}
	return s.playDuel(ctx, req)
}

func (s *Service) newSession(kind domain.MatchKind, req Request) *Session {
	now := s.clock.Now()
	return &Session{
		ID:         uuid.NewString(),
		Kind:       kind,
		Room:       req.Room,
		Challenger: req.Challenger,
		Opponent:   req.Opponent,
		CreatedAt:  now,
		Deadline:   now.Add(s.timeout),
	}
}

func (s *Service) playSingle(ctx context.Context, req Request) (Report, error) {
	sess := s.newSession(domain.MatchSingle, req)
	ok, err := s.registry.TryAcquire(ctx, req.Challenger)
	if err != nil {
		return s.registryFailed(sess, err)
	}
	if !ok {
		return Report{Session: sess, State: StateAlreadyInSession}, ErrAlreadyInSession
	}
	defer s.release(sess)

	s.logger.Info("match_start",
		zap.String("match_id", sess.ID),
		zap.String("kind", string(sess.Kind)),
		zap.String("room", sess.Room),
		zap.String("challenger", string(sess.Challenger)),
	)

	moves, slow, err := s.collect(ctx, sess)
	if err != nil {
		return s.finishTimeout(ctx, sess, slow, err)
	}

	human := moves[sess.Challenger]
	bot := rps.Moves[s.rand.Intn(len(rps.Moves))]
	out := Outcome{ChallengerMove: human, OpponentMove: bot, Verdict: rps.Resolve(human, bot)}
	switch out.Verdict {
	case rps.AWins:
		out.Winner = sess.Challenger
	case rps.BWins:
		out.Loser = sess.Challenger
	}
	return s.finishResolved(ctx, sess, out)
}

func (s *Service) playDuel(ctx context.Context, req Request) (Report, error) {
	sess := s.newSession(domain.MatchDuel, req)

	active, err := s.registry.Active(ctx, req.Challenger)
	if err != nil {
		return s.registryFailed(sess, err)
	}
	if active {
		return Report{Session: sess, State: StateAlreadyInSession}, ErrAlreadyInSession
	}
	if req.Challenger == req.Opponent {
		return Report{Session: sess, State: StateSelfChallengeRejected}, ErrSelfChallenge
	}

	busy, err := s.registry.TryAcquirePair(ctx, req.Challenger, req.Opponent)
	if err != nil {
		return s.registryFailed(sess, err)
	}
	switch busy {
	case "":
	case req.Challenger:
		// lost a race with another command from the same challenger
		return Report{Session: sess, State: StateAlreadyInSession}, ErrAlreadyInSession
	default:
		return Report{Session: sess, State: StateOpponentBusyRejected}, &BusyError{Player: busy}
	}
	defer s.release(sess)

	s.logger.Info("match_start",
		zap.String("match_id", sess.ID),
		zap.String("kind", string(sess.Kind)),
		zap.String("room", sess.Room),
		zap.String("challenger", string(sess.Challenger)),
		zap.String("opponent", string(sess.Opponent)),
	)

	// PendingChallenge: challenges are accepted implicitly by answering.
	if err := s.notify.Challenge(ctx, sess); err != nil {
		s.logger.Warn("challenge_notify_error", zap.String("match_id", sess.ID), zap.Error(err))
	}

	moves, slow, err := s.collect(ctx, sess)
	if err != nil {
		return s.finishTimeout(ctx, sess, slow, err)
	}

	a, b := moves[sess.Challenger], moves[sess.Opponent]
	out := Outcome{ChallengerMove: a, OpponentMove: b, Verdict: rps.Resolve(a, b)}
	switch out.Verdict {
	case rps.AWins:
		out.Winner, out.Loser = sess.Challenger, sess.Opponent
	case rps.BWins:
		out.Winner, out.Loser = sess.Opponent, sess.Challenger
	}
	return s.finishResolved(ctx, sess, out)
}

// collect prompts every participant and waits for all of them concurrently,
// each under its own deadline. Every listener is registered before the first
// prompt goes out. On failure it returns the participants that never answered.
func (s *Service) collect(ctx context.Context, sess *Session) (map[domain.PlayerID]rps.Move, []domain.PlayerID, error) {
	players := sess.Participants()
	pending := make(map[domain.PlayerID]Pending, len(players))
	for _, p := range players {
		pending[p] = s.input.Listen(sess, p)
	}
	defer func() {
		for _, w := range pending {
			w.Cancel()
		}
	}()

	for _, p := range players {
		if err := s.input.Prompt(ctx, sess, p); err != nil {
			s.logger.Warn("prompt_error", zap.String("match_id", sess.ID), zap.String("player", string(p)), zap.Error(err))
		}
	}
	if len(players) > 1 {
		if err := s.notify.Masked(ctx, sess); err != nil {
			s.logger.Warn("masked_notify_error", zap.String("match_id", sess.ID), zap.Error(err))
		}
	}

	var mu sync.Mutex
	moves := make(map[domain.PlayerID]rps.Move, len(players))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range players {
		p := p
		g.Go(func() error {
			wctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()
			raw, err := pending[p].Wait(wctx)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return &TimeoutError{Player: p}
				}
				return err
			}
			mv, err := rps.Normalize(raw)
			if err != nil {
				return err
			}
			mu.Lock()
			moves[p] = mv
			mu.Unlock()
			s.logger.Debug("move_received", zap.String("match_id", sess.ID), zap.String("player", string(p)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var slow []domain.PlayerID
		if errors.Is(err, ErrResponseTimeout) {
			// deadlines are shared, so anyone without a move when the first expired is slow too
			mu.Lock()
			for _, p := range players {
				if _, ok := moves[p]; !ok {
					slow = append(slow, p)
				}
			}
			mu.Unlock()
		}
		return nil, slow, err
	}
	return moves, nil, nil
}

// registryFailed reports a registry backend error. Nothing was acquired, so
// there is nothing to release.
func (s *Service) registryFailed(sess *Session, err error) (Report, error) {
	s.logger.Error("registry_error", zap.String("match_id", sess.ID), zap.String("kind", string(sess.Kind)), zap.Error(err))
	return Report{Session: sess, State: StateFailed}, err
}

func (s *Service) finishTimeout(ctx context.Context, sess *Session, slow []domain.PlayerID, err error) (Report, error) {
	if !errors.Is(err, ErrResponseTimeout) {
		s.logger.Warn("match_aborted", zap.String("match_id", sess.ID), zap.Error(err))
		return Report{Session: sess, State: StateTimedOut}, err
	}
	s.logger.Info("match_timeout", zap.String("match_id", sess.ID), zap.Int("slow", len(slow)))
	if nerr := s.notify.TimedOut(ctx, sess, slow); nerr != nil {
		s.logger.Warn("timeout_notify_error", zap.String("match_id", sess.ID), zap.Error(nerr))
	}
	s.save(sess, nil)
	return Report{Session: sess, State: StateTimedOut, Slow: slow}, err
}

func (s *Service) finishResolved(ctx context.Context, sess *Session, out Outcome) (Report, error) {
	s.record(sess, out)
	if err := s.notify.Reveal(ctx, sess, out); err != nil {
		s.logger.Warn("reveal_notify_error", zap.String("match_id", sess.ID), zap.Error(err))
	}
	s.save(sess, &out)
	s.logger.Info("match_resolved",
		zap.String("match_id", sess.ID),
		zap.String("verdict", out.Verdict.String()),
		zap.String("winner", string(out.Winner)),
	)
	return Report{Session: sess, State: StateClosed, Outcome: &out}, nil
}

// record updates stats for human participants only.
func (s *Service) record(sess *Session, out Outcome) {
	if s.stats == nil {
		return
	}
	a, b := sess.Challenger, sess.Opponent
	if out.Tie() {
		s.stats.RecordOutcome(a, b, true)
		s.stats.AppendHistory(a, domain.ResultTie, b)
		s.stats.AppendHistory(b, domain.ResultTie, a)
		return
	}
	s.stats.RecordOutcome(out.Winner, out.Loser, false)
	s.stats.AppendHistory(out.Winner, domain.ResultWin, out.Loser)
	s.stats.AppendHistory(out.Loser, domain.ResultLoss, out.Winner)
}

func (s *Service) save(sess *Session, out *Outcome) {
	if s.archive == nil {
		return
	}
	rec := &domain.MatchRecord{
		ID:           sess.ID,
		Kind:         sess.Kind,
		Room:         sess.Room,
		ChallengerID: sess.Challenger,
		OpponentID:   sess.Opponent,
		StartedAt:    sess.CreatedAt,
		EndedAt:      s.clock.Now(),
		Outcome:      "timeout",
	}
	if out != nil {
		rec.ChallengerMv = string(out.ChallengerMove)
		rec.OpponentMv = string(out.OpponentMove)
		rec.Outcome = out.Verdict.String()
		rec.WinnerID = out.Winner
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := s.archive.SaveMatch(ctx, rec); err != nil {
		s.logger.Warn("archive_error", zap.String("match_id", sess.ID), zap.Error(err))
	}
}

// release runs on every exit path after acquisition, with its own context so
// a cancelled request still frees the registry.
func (s *Service) release(sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	ids := sess.Participants()
	if err := s.registry.Release(ctx, ids...); err != nil {
		s.logger.Error("release_error", zap.String("match_id", sess.ID), zap.Error(err))
	}
}
