package rpsbuilder

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/park285/RPS-KakaoTalk-bot/internal/archive"
    "github.com/park285/RPS-KakaoTalk-bot/internal/config"
    "github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/clock"
    "github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/random"
    "github.com/park285/RPS-KakaoTalk-bot/internal/gateway"
    "github.com/park285/RPS-KakaoTalk-bot/internal/match"
    "github.com/park285/RPS-KakaoTalk-bot/internal/msgcat"
    "github.com/park285/RPS-KakaoTalk-bot/internal/names"
    "github.com/park285/RPS-KakaoTalk-bot/internal/presenter"
    "github.com/park285/RPS-KakaoTalk-bot/internal/session"
    "github.com/park285/RPS-KakaoTalk-bot/internal/stats"
)

// registryGrace keeps Redis locks alive a little past the move deadline.
const registryGrace = 30 * time.Second

type Deps struct {
    Catalog   *msgcat.Catalog
    Names     *names.Directory
    Hub       *gateway.Hub
    Registry  session.Registry
    Stats     *stats.Store
    Archive   *archive.Repository
    Formatter *presenter.Formatter
    Presenter *presenter.Presenter
    Match     *match.Service

    closers []func() error
}

// Overrides swaps collaborators in tests. Zero fields use the real ones.
type Overrides struct {
    Random   random.Random
    Clock    clock.Clock
    Registry session.Registry
}

// New wires the bot's collaborators. Redis and Postgres are only used when
// their URLs are configured.
func New(ctx context.Context, cfg *config.AppConfig, send presenter.Sender, logger *zap.Logger, ov Overrides) (*Deps, error) {
    if cfg == nil {
        return nil, fmt.Errorf("nil config")
    }
    if send == nil {
        return nil, fmt.Errorf("nil sender")
    }
    if logger == nil {
        logger = zap.NewNop()
    }
    rnd := ov.Random
    if rnd == nil {
        rnd = random.New()
    }
    clk := ov.Clock
    if clk == nil {
        clk = clock.New()
    }

    d := &Deps{Names: names.NewDirectory(), Hub: gateway.NewHub()}

    cat, err := msgcat.New(cfg.MessagesDir)
    if err != nil {
        return nil, fmt.Errorf("load messages: %w", err)
    }
    d.Catalog = cat

    d.Registry = ov.Registry
    switch {
    case d.Registry != nil:
    case strings.TrimSpace(cfg.RedisURL) != "":
        rr, err := session.NewRedisRegistryFromURL(ctx, cfg.RedisURL, cfg.MoveTimeout+registryGrace)
        if err != nil {
            return nil, fmt.Errorf("init redis registry: %w", err)
        }
        d.Registry = rr
        d.closers = append(d.closers, rr.Close)
        logger.Info("registry_backend", zap.String("backend", "redis"))
    default:
        d.Registry = session.NewMemoryRegistry()
        logger.Info("registry_backend", zap.String("backend", "memory"))
    }

    if strings.TrimSpace(cfg.DatabaseURL) != "" {
        repo, err := archive.Open(ctx, cfg.DatabaseURL)
        if err != nil {
            _ = d.Close()
            return nil, fmt.Errorf("init archive: %w", err)
        }
        d.Archive = repo
        d.closers = append(d.closers, repo.Close)
    }

    d.Stats = stats.NewStore(clk)
    d.Formatter = presenter.NewFormatter(cat, d.Names, rnd, cfg.BotPrefix)

    var card *presenter.CardRenderer
    if cfg.ResultCard {
        card = presenter.NewCardRenderer()
    }
    d.Presenter = presenter.NewPresenter(send, d.Formatter, card)

    var input match.InputChannel
    if cfg.InputMode == config.InputModePrivate {
        input = gateway.NewPrivateInput(d.Hub, send, d.Formatter.Prompt)
    } else {
        input = gateway.NewRoomInput(d.Hub, send, d.Formatter.Prompt)
    }

    opts := []match.Option{match.WithMoveTimeout(cfg.MoveTimeout), match.WithLogger(logger.Named("match"))}
    if d.Archive != nil {
        opts = append(opts, match.WithArchive(d.Archive))
    }
    d.Match = match.NewService(d.Registry, input, d.Presenter, d.Stats, rnd, clk, opts...)
    return d, nil
}

func (d *Deps) Close() error {
    if d == nil {
        return nil
    }
    var errs []error
    for i := len(d.closers) - 1; i >= 0; i-- {
        if err := d.closers[i](); err != nil {
            errs = append(errs, err)
        }
    }
    d.closers = nil
    return errors.Join(errs...)
}
