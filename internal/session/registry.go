package session

import (
	"context"

	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
)

// Registry tracks which players currently have an open match.
// At most one open session exists per player id.
type Registry interface {
	// TryAcquire registers id and returns true iff it had no open session.
	TryAcquire(ctx context.Context, id domain.PlayerID) (bool, error)
	// TryAcquirePair registers both players or neither. When one of them already holds a
	// session, nothing is registered and that player is returned as busy.
	TryAcquirePair(ctx context.Context, a, b domain.PlayerID) (busy domain.PlayerID, err error)
	// Release removes the given ids. Unknown ids are ignored.
	Release(ctx context.Context, ids ...domain.PlayerID) error
	Active(ctx context.Context, id domain.PlayerID) (bool, error)
}
