package appkafka

import (
	"context"
	"encoding/json"
	"time"

	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

var logg = logger.New()

// Publisher records client activity. Publishing never fails the user's action:
// errors are logged and dropped.
type Publisher interface {
	Publish(ctx context.Context, a models.Activity)
}

// NopPublisher discards every event; used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.Activity) {}

// ActivityPublisher writes activity events as JSON, keyed by kind.
type ActivityPublisher struct {
	writer KafkaWriter
}

// NewActivityPublisher wraps a KafkaWriter.
func NewActivityPublisher(w KafkaWriter) *ActivityPublisher {
	return &ActivityPublisher{writer: w}
}

func (p *ActivityPublisher) Publish(ctx context.Context, a models.Activity) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(a)
	if err != nil {
		logg.Error("activity", "Failed to marshal activity event", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(a.Kind),
		Value: data,
	}
	if err := p.writer.WriteMessages(msg); err != nil {
		logg.Error("activity", "Failed to publish activity event", err)
		return
	}
	logg.Debug("activity", "Published "+string(a.Kind)+" event")
}

// DecodeActivity parses a message written by ActivityPublisher.
func DecodeActivity(msg kafka.Message) (models.Activity, error) {
	var a models.Activity
	err := json.Unmarshal(msg.Value, &a)
	return a, err
}
