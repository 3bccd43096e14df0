// Command irischeck checks an Iris gateway: it fetches /config and, when
// IRIS_WS_URL is set, prints inbound WebSocket messages for a short window.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/RPS-KakaoTalk-bot/internal/irisfast"
	"github.com/park285/RPS-KakaoTalk-bot/internal/obslog"
)

const observeWindow = 10 * time.Second

func main() {
	baseURL := strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	wsURL := strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	if baseURL == "" {
		log.Fatal("IRIS_BASE_URL is required")
	}

	opts := obslog.DefaultOptions()
	opts.Format = "console"
	if err := obslog.Init(opts); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.Named("irischeck")

	headers := func() map[string]string {
		m := map[string]string{}
		for env, header := range map[string]string{
			"X_USER_ID":    "X-User-Id",
			"X_USER_EMAIL": "X-User-Email",
			"X_SESSION_ID": "X-Session-Id",
		} {
			if v := strings.TrimSpace(os.Getenv(env)); v != "" {
				m[header] = v
			}
		}
		return m
	}

	client := irisfast.NewClient(baseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg, err := client.GetConfig(ctx)
	if err != nil {
		logger.Error("config_error", zap.Error(err))
	} else {
		logger.Info("config_ok",
			zap.Int("port", cfg.Port),
			zap.Int("polling", cfg.PollingSpeed),
			zap.Int("rate", cfg.MessageRate),
			zap.String("endpoint", cfg.WebserverEndpoint),
		)
	}

	if wsURL == "" {
		logger.Info("ws_skipped", zap.String("reason", "IRIS_WS_URL not set"))
		return
	}

	ws := irisfast.NewWebSocket(wsURL, 0)
	ws.SetHeaderProvider(headers)
	inbound := irisfast.Listen(ws, func(msg *irisfast.Message) {
		fmt.Printf("WS msg room=%s user=%s from=%s text=%q\n", msg.Room, msg.UserID(), msg.SenderName(), msg.Msg)
	}, func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})

	if err := inbound.Start(context.Background(), 10*time.Second); err != nil {
		logger.Error("ws_connect_error", zap.Error(err))
		return
	}

	<-time.After(observeWindow)
	_ = inbound.Stop(5 * time.Second)
}
