package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/rainwatch/backend/internal/domain"
)

// mockLogCapacity bounds the in-memory fetch log.
const mockLogCapacity = 100

// MockRepository implements domain.DataRepository in memory when no database is configured
type MockRepository struct {
	mu   sync.Mutex
	logs []domain.FetchLog
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveFetchLog keeps the most recent entries in memory
func (r *MockRepository) SaveFetchLog(ctx context.Context, entry domain.FetchLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, entry)
	if len(r.logs) > mockLogCapacity {
		r.logs = r.logs[len(r.logs)-mockLogCapacity:]
	}
	return nil
}

// GetFetchLogs returns in-memory entries within the range, newest first
func (r *MockRepository) GetFetchLogs(ctx context.Context, from, to time.Time) ([]domain.FetchLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.FetchLog{}
	for i := len(r.logs) - 1; i >= 0; i-- {
		f := r.logs[i]
		if f.FetchedAt.Before(from) || f.FetchedAt.After(to) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
