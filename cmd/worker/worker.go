package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	appkafka "example.com/photofeed/internal/broker"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
	"example.com/photofeed/internal/store"
)

var logg = logger.New()

const (
	// ActivityKeyPrefix prefixes the store key of every recorded event.
	ActivityKeyPrefix = "activity/"
	// LastActivityKeyPrefix + user id holds that user's newest event.
	LastActivityKeyPrefix = "last-activity/"
)

var errInvalidEvent = errors.New("activity event without id or kind")

// Worker consumes activity events from Kafka and records them in the store concurrently.
type Worker struct {
	store        store.KVStore
	reader       appkafka.KafkaReader
	workerCount  int
	jobQueueSize int

	lastMu sync.Mutex // serializes read-compare-write of last-activity keys
}

// New creates a new concurrent Worker using pre-initialized dependencies.
func New(store store.KVStore, reader appkafka.KafkaReader, workerCount, jobQueueSize int) *Worker {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobQueueSize <= 0 {
		jobQueueSize = workerCount * 10
	}
	return &Worker{
		store:        store,
		reader:       reader,
		workerCount:  workerCount,
		jobQueueSize: jobQueueSize,
	}
}

// Run starts message reading and concurrent processing. It returns once ctx
// is cancelled and every queued event has been handled.
func (w *Worker) Run(ctx context.Context) {
	if w.workerCount <= 0 {
		w.workerCount = 1
	}
	if w.jobQueueSize <= 0 {
		w.jobQueueSize = 10
	}

	logg.Info("worker", "Starting "+fmt.Sprint(w.workerCount)+" workers with queue size "+fmt.Sprint(w.jobQueueSize))

	jobs := make(chan []byte, w.jobQueueSize)
	var wg sync.WaitGroup

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processLoop(ctx, jobs)
		}()
	}

	w.readLoop(ctx, jobs)

	close(jobs)
	wg.Wait()
	logg.Info("worker", "All workers stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into a job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- []byte) {
	var retry int
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
			logg.Error("worker", "Kafka read error, backing off", err)
			if !waitWithContext(ctx, backoff) {
				return
			}
			retry++
			continue
		}
		retry = 0

		if len(msg.Value) == 0 {
			if !waitWithContext(ctx, 50*time.Millisecond) {
				return
			}
			continue
		}

		select {
		case jobs <- msg.Value:
		case <-ctx.Done():
			return
		}
	}
}

// processLoop drains the job queue. Events already queued are still recorded
// after ctx is cancelled.
func (w *Worker) processLoop(ctx context.Context, jobs <-chan []byte) {
	for data := range jobs {
		if err := w.handle(context.WithoutCancel(ctx), data); err != nil {
			logg.Error("worker", "Failed to record activity event", err)
		}
	}
}

// handle decodes one event and stores it under activity/<id>. Redelivered
// events overwrite themselves.
func (w *Worker) handle(ctx context.Context, data []byte) error {
	var a models.Activity
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid JSON in Kafka message: %w", err)
	}
	if a.ID == "" || a.Kind == "" {
		return errInvalidEvent
	}

	normalized, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := w.store.Set(ctx, ActivityKeyPrefix+a.ID, string(normalized)); err != nil {
		return err
	}
	if a.UserID != "" {
		if err := w.updateLast(ctx, a, normalized); err != nil {
			return err
		}
	}
	logg.Debug("worker", "Recorded "+string(a.Kind)+" event")
	return nil
}

// updateLast points last-activity/<user> at a unless a newer event is
// already there. Events arrive out of order across partitions.
func (w *Worker) updateLast(ctx context.Context, a models.Activity, encoded []byte) error {
	w.lastMu.Lock()
	defer w.lastMu.Unlock()

	key := LastActivityKeyPrefix + a.UserID
	raw, ok, err := w.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		var prev models.Activity
		if json.Unmarshal([]byte(raw), &prev) == nil && prev.OccurredAt.After(a.OccurredAt) {
			return nil
		}
	}
	return w.store.Set(ctx, key, string(encoded))
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down the Kafka reader and the store.
func (w *Worker) Close() error {
	logg.Info("worker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		logg.Error("worker", "Error closing Kafka reader", err)
		return err
	}

	logg.Info("worker", "Closing store")
	w.store.Close()
	return nil
}
