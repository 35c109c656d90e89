package mocks

import (
	"context"
	"sync"

	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// MockProcessedLogRepository is an in-memory implementation of
// domain.ProcessedLogRepository for testing.
type MockProcessedLogRepository struct {
	mu      sync.Mutex
	Records map[string]domain.ProcessedRecord
	GetErr  error
	PutErr  error
	Gets    int
	Puts    int
}

func key(tenantID, logID string) string {
	return tenantID + "/" + logID
}

func (m *MockProcessedLogRepository) Get(ctx context.Context, tenantID, logID string) (*domain.ProcessedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	rec, ok := m.Records[key(tenantID, logID)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &rec, nil
}

func (m *MockProcessedLogRepository) Put(ctx context.Context, record domain.ProcessedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.Records == nil {
		m.Records = make(map[string]domain.ProcessedRecord)
	}
	m.Records[key(record.TenantID, record.LogID)] = record
	return nil
}

// MockQueuePublisher is a mock implementation of domain.QueuePublisher.
type MockQueuePublisher struct {
	mu         sync.Mutex
	Published  []domain.LogRecord
	PublishErr error
}

func (m *MockQueuePublisher) Publish(ctx context.Context, record domain.LogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, record)
	return nil
}

// MockWALRepository is a mock implementation of domain.WALRepository.
type MockWALRepository struct {
	mu        sync.Mutex
	Written   []domain.LogRecord
	WriteErr  error
	Truncated bool
}

func (m *MockWALRepository) Write(ctx context.Context, record domain.LogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Written = append(m.Written, record)
	return nil
}

func (m *MockWALRepository) Replay(ctx context.Context, handler func(record domain.LogRecord) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.Written {
		if err := handler(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockWALRepository) Truncate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Written = nil
	m.Truncated = true
	return nil
}
