package mocks

import (
	"sync"

	"github.com/park285/RPS-KakaoTalk-bot/internal/dependencies/random"
)

// MockRandom returns queued values from Intn, then 0 once the queue is drained.
type MockRandom struct {
	mu      sync.Mutex
	results []int
	index   int
}

var _ random.Random = (*MockRandom)(nil)

func NewMockRandom(values ...int) *MockRandom {
	return &MockRandom{results: values}
}

func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index >= len(r.results) {
		return 0
	}
	v := r.results[r.index]
	r.index++
	if n > 0 {
		v %= n
	}
	return v
}

func (r *MockRandom) Queue(values ...int) {
	r.mu.Lock()
	r.results = append(r.results, values...)
	r.mu.Unlock()
}
