package appkafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaConfig_Defaults(t *testing.T) {
	c := KafkaConfig{Topic: "photofeed-activity"}.withDefaults()
	assert.Equal(t, []string{"localhost:29092"}, c.Brokers)
	assert.Equal(t, 5*time.Second, c.WriteTimeout)
	assert.Equal(t, 10*time.Second, c.ReadTimeout)

	c = KafkaConfig{Brokers: []string{"kafka:9092"}, WriteTimeout: time.Second}.withDefaults()
	assert.Equal(t, []string{"kafka:9092"}, c.Brokers)
	assert.Equal(t, time.Second, c.WriteTimeout)
}

func TestNewKafkaWriter_RequiresTopic(t *testing.T) {
	_, err := NewKafkaWriter(context.Background(), KafkaConfig{})
	require.ErrorIs(t, err, errNoTopic)
}

func TestNewKafkaWriter_UnreachableBroker(t *testing.T) {
	_, err := NewKafkaWriter(context.Background(), KafkaConfig{
		Brokers:      []string{"127.0.0.1:1"},
		Topic:        "photofeed-activity",
		WriteTimeout: 500 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestRealKafkaWriter_ClosedWriter(t *testing.T) {
	w := &RealKafkaWriter{}
	assert.Error(t, w.WriteMessages())
	assert.NoError(t, w.Close())
}
