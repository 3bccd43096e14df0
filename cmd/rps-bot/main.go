package main

import (
    "context"
    "log"
    "os"
    "os/signal"
    "syscall"
    "time"

    "go.uber.org/zap"

    "github.com/park285/RPS-KakaoTalk-bot/internal/bot"
    appcfg "github.com/park285/RPS-KakaoTalk-bot/internal/config"
    "github.com/park285/RPS-KakaoTalk-bot/internal/irisfast"
    "github.com/park285/RPS-KakaoTalk-bot/internal/obslog"
    "github.com/park285/RPS-KakaoTalk-bot/internal/rpsbuilder"
)

func main() {
    cfg, err := appcfg.Load()
    if err != nil {
        log.Fatalf("config error: %v", err)
    }
    if err := obslog.Init(cfg.Log); err != nil {
        log.Fatalf("logger init error: %v", err)
    }
    defer obslog.Sync()
    logger := obslog.L()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(cfg.Headers))

    ws := irisfast.NewWebSocket(cfg.IrisWSURL, cfg.WSReconnectAttempts)
    ws.SetHeaderProvider(cfg.Headers)

    egress := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger.Named("egress"))

    deps, err := rpsbuilder.New(ctx, cfg, egress, logger, rpsbuilder.Overrides{})
    if err != nil {
        logger.Fatal("init_error", zap.Error(err))
    }
    defer func() {
        if err := deps.Close(); err != nil {
            logger.Warn("close_error", zap.Error(err))
        }
    }()

    router := bot.NewRouter(ctx, cfg.BotPrefix, cfg.RoomAllowed, deps, logger.Named("bot"))
    inbound := irisfast.Listen(ws, router.OnMessage, func(state irisfast.WebSocketState) {
        logger.Info("ws_state", zap.String("state", string(state)))
    })
    if err := inbound.Start(ctx, 10*time.Second); err != nil {
        logger.Error("ws_connect_error", zap.Error(err))
        return
    }

    logger.Info("bot_started",
        zap.String("prefix", cfg.BotPrefix),
        zap.String("egress", cfg.EgressMode),
        zap.String("input_mode", cfg.InputMode),
        zap.Duration("move_timeout", deps.Match.MoveTimeout()),
        zap.Int("allowed_rooms", len(cfg.AllowedRooms)),
    )

    <-ctx.Done()
    logger.Info("bot_stopping")

    if err := inbound.Stop(5 * time.Second); err != nil {
        logger.Warn("ws_close_error", zap.Error(err))
    }
}
