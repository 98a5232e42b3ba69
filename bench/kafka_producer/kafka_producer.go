package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"example.com/photofeed/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

var kinds = []models.ActivityKind{
	models.ActivityLogin,
	models.ActivityLike,
	models.ActivityLike,
	models.ActivityPostUpload,
	models.ActivityProfileEdit,
	models.ActivityLogout,
}

// Floods the activity topic so the worker's throughput can be measured.
func main() {
	var (
		total      int
		batchSize  int
		numWorkers int
		broker     string
		topic      string
	)
	flag.IntVar(&total, "n", 100000, "total number of events to send")
	flag.IntVar(&batchSize, "batch", 100, "batch size")
	flag.IntVar(&numWorkers, "workers", 4, "number of parallel producers")
	flag.StringVar(&broker, "broker", "localhost:29092", "Kafka broker")
	flag.StringVar(&topic, "topic", "photofeed-activity", "activity topic")
	flag.Parse()

	// Kafka writer with asynchronous sending enabled
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{broker},
		Topic:   topic,
		Async:   true,
	})
	defer w.Close()

	// One synthetic user per run
	userID := uuid.NewString()
	start := time.Now()

	var successCount, failCount uint64
	jobs := make(chan int, total)
	var wg sync.WaitGroup

	flush := func(batch []kafka.Message) {
		if err := w.WriteMessages(context.Background(), batch...); err != nil {
			atomic.AddUint64(&failCount, uint64(len(batch)))
			fmt.Printf("write error: %v\n", err)
			return
		}
		atomic.AddUint64(&successCount, uint64(len(batch)))
	}

	for wID := 0; wID < numWorkers; wID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]kafka.Message, 0, batchSize)

			for i := range jobs {
				a := models.Activity{
					ID:         uuid.NewString(),
					Kind:       kinds[i%len(kinds)],
					UserID:     userID,
					OccurredAt: time.Now().UTC(),
				}
				if a.Kind == models.ActivityLike || a.Kind == models.ActivityPostUpload {
					a.PostID = fmt.Sprintf("bench-post-%d", i%1000)
				}

				v, err := json.Marshal(a)
				if err != nil {
					atomic.AddUint64(&failCount, 1)
					continue
				}
				batch = append(batch, kafka.Message{Key: []byte(a.Kind), Value: v})

				if len(batch) >= batchSize {
					flush(batch)
					batch = batch[:0]
				}
			}
			if len(batch) > 0 {
				flush(batch)
			}
		}()
	}

	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// --- Benchmark results ---
	elapsed := time.Since(start)
	fmt.Printf("Total events: %d\n", total)
	fmt.Printf("Successful: %d, Failed: %d\n", successCount, failCount)
	fmt.Printf("Elapsed time: %s\n", elapsed)
	fmt.Printf("Throughput: %.2f msg/s\n", float64(successCount)/elapsed.Seconds())
}
