package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/ehsim/core/problem"
)

// ScheduleMessage is the payload published for the winning schedule.
type ScheduleMessage struct {
	RunID    string            `json:"run_id"`
	Time     time.Time         `json:"time"`
	Cost     float64           `json:"cost"`
	Schedule *problem.Snapshot `json:"schedule"`
}

// PartMessage carries the schedule of one controllable part.
type PartMessage struct {
	RunID string               `json:"run_id"`
	Time  time.Time            `json:"time"`
	Part  problem.PartSchedule `json:"part"`
}

// Publisher sends schedules to the devices.
type Publisher interface {
	PublishSchedule(ctx context.Context, msg ScheduleMessage) error
	Close()
}

// PartTopic returns the per-part topic below base.
func PartTopic(base, partID string) string {
	return strings.TrimSuffix(base, "/") + "/" + partID
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Messages []ScheduleMessage
	Fail     bool
	Closed   bool
	mu       sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishSchedule records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishSchedule(_ context.Context, msg ScheduleMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockPublisher) Sent() []ScheduleMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScheduleMessage(nil), m.Messages...)
}

// Close marks the publisher closed.
func (m *MockPublisher) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}

var (
	_ Publisher = (*PahoPublisher)(nil)
	_ Publisher = (*MockPublisher)(nil)
)
