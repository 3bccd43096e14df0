package mocks

import (
	"sync"
	"time"

	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/clock"
)

type MockClock struct {
	mu      sync.Mutex
	current time.Time
}

var _ clock.Clock = (*MockClock)(nil)

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}
