package mocks

import (
	"context"
	"sync"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/queue"
)

// MockPublisher records published auth events.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, ev queue.AuthEvent) error

	mu     sync.Mutex
	Events []queue.AuthEvent
}

func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

func (m *MockPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

// Types lists the recorded event types in order.
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, ev := range m.Events {
		out[i] = ev.Type
	}
	return out
}
