package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"example.com/photofeed/internal/api"
	"example.com/photofeed/internal/models"
)

// loadUser is one simulated client with its own token.
type loadUser struct {
	client *api.Client
	token  string
}

func main() {
	// --- Command-line flags ---
	var server string
	var duration int
	var concurrency int
	var csvFile string
	var trimPercent float64
	var likeRatio float64

	flag.StringVar(&server, "server", "http://localhost:3000", "API base URL")
	flag.IntVar(&duration, "duration", 30, "duration in seconds")
	flag.IntVar(&concurrency, "c", 50, "number of concurrent users")
	flag.StringVar(&csvFile, "csv", "latencies.csv", "CSV file to save latencies")
	flag.Float64Var(&trimPercent, "trim", 1.0, "percent of latency to trim from top and bottom for trimmed mean")
	flag.Float64Var(&likeRatio, "like", 0.2, "fraction of iterations that also like a random post")
	flag.Parse()

	ctx := context.Background()

	// --- Create and log in users ---
	fmt.Printf("Creating %d users...\n", concurrency)
	users := make([]*loadUser, concurrency)
	for i := range users {
		u, err := newLoadUser(ctx, server, i)
		if err != nil {
			panic(fmt.Sprintf("failed to prepare user %d: %v", i, err))
		}
		users[i] = u
	}
	if err := seedPost(ctx, users[0]); err != nil {
		panic(fmt.Sprintf("failed to seed post: %v", err))
	}
	fmt.Println("Users ready.")

	// --- Prepare concurrency test ---
	stopTime := time.Now().Add(time.Duration(duration) * time.Second)
	var wg sync.WaitGroup

	var requests, successes, failures int64
	latencySlices := make([][]float64, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			user := users[idx]
			var local []float64

			for time.Now().Before(stopTime) {
				start := time.Now()
				posts, err := user.client.Feed(ctx)
				if err == nil && len(posts) > 0 && rand.Float64() < likeRatio {
					err = user.client.Like(ctx, posts[rand.Intn(len(posts))].ID)
				}
				local = append(local, time.Since(start).Seconds()*1000)
				atomic.AddInt64(&requests, 1)

				if err != nil {
					atomic.AddInt64(&failures, 1)
					fmt.Printf("Request error: %v\n", err)
					continue
				}
				atomic.AddInt64(&successes, 1)
			}
			latencySlices[idx] = local
		}(i)
	}
	wg.Wait()

	// --- Merge all latencies ---
	var all []float64
	for _, s := range latencySlices {
		all = append(all, s...)
	}
	sort.Float64s(all)

	fmt.Printf("Iterations: %d  Successes: %d  Failures: %d\n", requests, successes, failures)
	fmt.Printf("Latency (ms): trimmed_mean=%.2f p50=%.2f p90=%.2f p99=%.2f\n",
		trimmedMean(all, trimPercent), percentile(all, 50), percentile(all, 90), percentile(all, 99))

	if err := writeCSV(csvFile, all); err != nil {
		fmt.Printf("Failed to write CSV file: %v\n", err)
		return
	}
	fmt.Printf("Saved latencies to %s\n", csvFile)
}

func newLoadUser(ctx context.Context, server string, i int) (*loadUser, error) {
	u := &loadUser{}
	u.client = api.New(server, api.WithTokenSource(api.TokenFunc(func(context.Context) (string, bool) {
		return u.token, u.token != ""
	})))

	name := fmt.Sprintf("load-user-%d-%d", i, time.Now().UnixNano())
	email := name + "@example.com"
	if _, err := u.client.Register(ctx, email, "load-test", name); err != nil {
		return nil, err
	}
	tok, err := u.client.Login(ctx, email, "load-test")
	if err != nil {
		return nil, err
	}
	u.token = tok
	return u, nil
}

// seedPost makes sure the feed is not empty so likes have a target.
func seedPost(ctx context.Context, u *loadUser) error {
	path := filepath.Join(os.TempDir(), "photofeed-load.jpg")
	if err := os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o600); err != nil {
		return err
	}
	_, err := u.client.UploadPost(ctx, "load test", models.ImageFile{Path: path, MimeType: "image/jpeg"})
	return err
}

func writeCSV(name string, latencies []float64) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"latency_ms"})
	for _, d := range latencies {
		_ = w.Write([]string{fmt.Sprintf("%.3f", d)})
	}
	w.Flush()
	return w.Error()
}

// trimmedMean calculates mean latency after trimming top/bottom trimPercent values
func trimmedMean(data []float64, trimPercent float64) float64 {
	if len(data) == 0 {
		return 0
	}
	trim := int(float64(len(data)) * trimPercent / 100.0)
	if trim*2 >= len(data) {
		trim = (len(data) - 1) / 2
	}
	trimmed := data[trim : len(data)-trim]
	var sum float64
	for _, v := range trimmed {
		sum += v
	}
	return sum / float64(len(trimmed))
}

// percentile interpolates the p-th percentile from sorted data
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	k := (p / 100.0) * float64(len(data)-1)
	f := int(k)
	if f+1 >= len(data) {
		return data[len(data)-1]
	}
	return data[f]*(float64(f+1)-k) + data[f+1]*(k-float64(f))
}
