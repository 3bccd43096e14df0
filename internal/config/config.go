package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/RPS-KakaoTalk-bot/internal/obslog"
)

const (
	InputModeRoom    = "room"
	InputModePrivate = "private"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	EgressMode   string
	EgressDryRun bool

	// Optional backends. Empty disables them.
	RedisURL    string
	DatabaseURL string

	AllowedRooms []string

	MoveTimeout time.Duration
	InputMode   string
	ResultCard  bool
	MessagesDir string

	WSReconnectAttempts int

	Log obslog.Options
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:          "http",
		MoveTimeout:         30 * time.Second,
		InputMode:           InputModeRoom,
		WSReconnectAttempts: 5,
		Log:                 obslog.DefaultOptions(),
	}

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	cfg.BotPrefix = env("BOT_PREFIX")

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.MessagesDir = env("MESSAGES_DIR")
	cfg.AllowedRooms = splitList(env("ALLOWED_ROOMS"))

	if v := strings.ToLower(env("EGRESS_MODE")); v != "" {
		switch v {
		case "http", "ws", "auto":
			cfg.EgressMode = v
		default:
			return nil, fmt.Errorf("EGRESS_MODE must be http, ws or auto (got %q)", v)
		}
	}
	cfg.EgressDryRun = boolEnv("EGRESS_DRYRUN", false)

	if v := env("RPS_MOVE_TIMEOUT"); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return nil, fmt.Errorf("RPS_MOVE_TIMEOUT: %w", err)
		}
		cfg.MoveTimeout = d
	}
	if v := strings.ToLower(env("RPS_INPUT_MODE")); v != "" {
		if v != InputModeRoom && v != InputModePrivate {
			return nil, fmt.Errorf("RPS_INPUT_MODE must be %s or %s (got %q)", InputModeRoom, InputModePrivate, v)
		}
		cfg.InputMode = v
	}
	cfg.ResultCard = boolEnv("RPS_RESULT_CARD", false)
	if v := env("WS_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.WSReconnectAttempts = n
		}
	}

	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := env("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	cfg.Log.Console = boolEnv("LOG_TO_CONSOLE", cfg.Log.Console)
	cfg.Log.ToFile = boolEnv("LOG_TO_FILE", cfg.Log.ToFile)
	cfg.Log.Caller = boolEnv("LOG_CALLER", cfg.Log.Caller)

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	return cfg, nil
}

// Headers returns the X-User-* handshake/request headers that are configured.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

// RoomAllowed reports whether room passes the ALLOWED_ROOMS filter (empty list allows all).
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func boolEnv(k string, def bool) bool {
	v := env(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseTimeout accepts plain seconds ("30") or a Go duration ("45s", "1m").
func parseTimeout(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive")
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}
