package session

import (
	"context"
	"sync"

	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
)

// MemoryRegistry is the default process-local registry.
type MemoryRegistry struct {
	mu     sync.Mutex
	active map[domain.PlayerID]struct{}
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{active: make(map[domain.PlayerID]struct{})}
}

func (r *MemoryRegistry) TryAcquire(_ context.Context, id domain.PlayerID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[id]; busy {
		return false, nil
	}
	r.active[id] = struct{}{}
	return true, nil
}

func (r *MemoryRegistry) TryAcquirePair(_ context.Context, a, b domain.PlayerID) (domain.PlayerID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// both checks happen before either write, under one lock
	if _, busy := r.active[a]; busy {
		return a, nil
	}
	if _, busy := r.active[b]; busy {
		return b, nil
	}
	r.active[a] = struct{}{}
	r.active[b] = struct{}{}
	return "", nil
}

func (r *MemoryRegistry) Release(_ context.Context, ids ...domain.PlayerID) error {
	r.mu.Lock()
	for _, id := range ids {
		delete(r.active, id)
	}
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Active(_ context.Context, id domain.PlayerID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok, nil
}
