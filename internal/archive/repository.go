// Package archive writes finished matches to Postgres as an audit trail.
// Nothing is ever read back by the bot.
package archive

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    _ "github.com/lib/pq"

    "github.com/park285/RPS-KakaoTalk-bot/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS rps_matches (
    match_id      TEXT PRIMARY KEY,
    kind          TEXT NOT NULL,
    room          TEXT NOT NULL,
    challenger_id TEXT NOT NULL,
    opponent_id   TEXT NOT NULL DEFAULT '',
    challenger_mv TEXT NOT NULL DEFAULT '',
    opponent_mv   TEXT NOT NULL DEFAULT '',
    outcome       TEXT NOT NULL,
    winner_id     TEXT NOT NULL DEFAULT '',
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL DEFAULT 0
)`

const upsert = `INSERT INTO rps_matches (
        match_id, kind, room, challenger_id, opponent_id,
        challenger_mv, opponent_mv, outcome, winner_id,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
      ) ON CONFLICT (match_id) DO UPDATE SET
        challenger_mv=EXCLUDED.challenger_mv,
        opponent_mv=EXCLUDED.opponent_mv,
        outcome=EXCLUDED.outcome,
        winner_id=EXCLUDED.winner_id,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

// Execer is the slice of *sql.DB the repository uses.
type Execer interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repository struct {
    db   Execer
    conn *sql.DB
}

// Open connects to Postgres, pings it and makes sure the table exists.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
    if strings.TrimSpace(databaseURL) == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(8)
    db.SetMaxIdleConns(4)
    db.SetConnMaxLifetime(30 * time.Minute)

    pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := db.PingContext(pctx); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ping postgres: %w", err)
    }
    if _, err := db.ExecContext(pctx, schema); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ensure schema: %w", err)
    }
    return &Repository{db: db, conn: db}, nil
}

// New wraps an existing executor (a *sql.DB or *sql.Tx).
func New(db Execer) *Repository { return &Repository{db: db} }

func (r *Repository) Close() error {
    if r == nil || r.conn == nil {
        return nil
    }
    return r.conn.Close()
}

// SaveMatch upserts one match row keyed by match id.
func (r *Repository) SaveMatch(ctx context.Context, rec *domain.MatchRecord) error {
    if r == nil || r.db == nil || rec == nil {
        return nil
    }
    _, err := r.db.ExecContext(ctx, upsert, Args(rec)...)
    return err
}

// Args is the positional parameter list for the upsert statement.
func Args(rec *domain.MatchRecord) []any {
    duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
    if duration < 0 {
        duration = 0
    }
    return []any{
        rec.ID,
        string(rec.Kind),
        rec.Room,
        string(rec.ChallengerID),
        string(rec.OpponentID),
        rec.ChallengerMv,
        rec.OpponentMv,
        strings.TrimSpace(rec.Outcome),
        string(rec.WinnerID),
        rec.StartedAt,
        rec.EndedAt,
        duration,
    }
}
