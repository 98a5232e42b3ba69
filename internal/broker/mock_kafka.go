package appkafka

import (
	"context"
	"errors"
	"sync"

	"example.com/photofeed/internal/models"
	"github.com/segmentio/kafka-go"
)

// MockKafka keeps written messages in memory and serves queued ones to readers.
type MockKafka struct {
	mu              sync.Mutex
	WrittenMessages []kafka.Message // stores messages written via WriteMessages
	ReadMessages    []kafka.Message // queue of messages to be read via ReadMessage
	ShouldFail      bool            // flag to simulate failures during write or read operations
}

// WriteMessages records messages.
func (m *MockKafka) WriteMessages(messages ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock kafka write failed")
	}
	m.WrittenMessages = append(m.WrittenMessages, messages...)
	return nil
}

// Written returns a copy of the recorded messages.
func (m *MockKafka) Written() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]kafka.Message(nil), m.WrittenMessages...)
}

// ReadMessage pops the next queued message.
func (m *MockKafka) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return kafka.Message{}, errors.New("mock kafka read failed")
	}
	if len(m.ReadMessages) == 0 {
		return kafka.Message{}, errors.New("no messages")
	}
	// Take the first message from the queue and remove it
	msg := m.ReadMessages[0]
	m.ReadMessages = m.ReadMessages[1:]
	return msg, nil
}

// Close is a no-op.
func (m *MockKafka) Close() error { return nil }

// MockKafkaFail always fails.
type MockKafkaFail struct{}

func (m *MockKafkaFail) WriteMessages(messages ...kafka.Message) error {
	return errors.New("mock kafka write failed")
}

func (m *MockKafkaFail) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return kafka.Message{}, errors.New("mock kafka read failed")
}

func (m *MockKafkaFail) Close() error { return nil }

// RecordingPublisher keeps published activity in memory for tests.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []models.Activity
}

func (r *RecordingPublisher) Publish(ctx context.Context, a models.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, a)
}

// Kinds returns the kinds of the published events, in order.
func (r *RecordingPublisher) Kinds() []models.ActivityKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]models.ActivityKind, 0, len(r.events))
	for _, a := range r.events {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}
