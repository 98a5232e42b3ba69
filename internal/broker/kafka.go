package appkafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter is the producing side of the activity topic.
type KafkaWriter interface {
	WriteMessages(messages ...kafka.Message) error
	Close() error
}

// KafkaReader is the consuming side of the activity topic.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConfig describes where activity events go.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string        // worker consumer group
	WriteTimeout time.Duration // per publish, the CLI waits for the ack
	ReadTimeout  time.Duration // max wait for a fetch batch
}

var errNoTopic = errors.New("kafka: activity topic is not set")

func (c KafkaConfig) withDefaults() KafkaConfig {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:29092"}
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	return c
}

// RealKafkaWriter publishes through a kafka.Writer. Events with the same key
// (activity kind) land on the same partition.
type RealKafkaWriter struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewKafkaWriter checks that a broker answers before returning, so a CLI
// invocation with Kafka down degrades to no activity events instead of
// stalling every command on publish.
func NewKafkaWriter(ctx context.Context, cfg KafkaConfig) (*RealKafkaWriter, error) {
	cfg = cfg.withDefaults()
	if cfg.Topic == "" {
		return nil, errNoTopic
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.WriteTimeout)
	defer cancel()
	conn, err := kafka.DialContext(dialCtx, "tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka: dial %s: %w", cfg.Brokers[0], err)
	}
	_ = conn.Close()

	return &RealKafkaWriter{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           cfg.WriteTimeout,
			AllowAutoTopicCreation: true,
		},
		timeout: cfg.WriteTimeout,
	}, nil
}

func (w *RealKafkaWriter) WriteMessages(messages ...kafka.Message) error {
	if w.writer == nil {
		return errors.New("kafka writer is closed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	return w.writer.WriteMessages(ctx, messages...)
}

func (w *RealKafkaWriter) Close() error {
	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	return err
}

// RealKafkaReader consumes the activity topic as part of a consumer group.
type RealKafkaReader struct {
	reader *kafka.Reader
}

// NewKafkaReader creates the worker's group reader. Offsets are committed
// once a second.
func NewKafkaReader(cfg KafkaConfig) KafkaReader {
	cfg = cfg.withDefaults()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,   // activity events are tiny
		MaxBytes:       1e6, // 1MB
		MaxWait:        cfg.ReadTimeout,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	return &RealKafkaReader{reader: r}
}

func (r *RealKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return r.reader.ReadMessage(ctx)
}

func (r *RealKafkaReader) Close() error {
	return r.reader.Close()
}
