package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"example.com/photofeed/internal/api"
	"example.com/photofeed/internal/models"
	"example.com/photofeed/internal/token"
)

// benchUser is a registered account with its own client.
type benchUser struct {
	id     string
	client *api.Client
	token  string
}

// delivery is one like and how long it took to show up for the post owner.
type delivery struct {
	liker   string
	latency time.Duration
	ok      bool
}

func main() {
	// CLI flags
	var serverAddr string
	var likers, concurrency int
	var pollTimeout int
	var csvFile string

	flag.StringVar(&serverAddr, "server", "http://localhost:3000", "API base URL")
	flag.IntVar(&likers, "likers", 50, "number of users liking the post")
	flag.IntVar(&concurrency, "c", 10, "concurrent likers")
	flag.IntVar(&pollTimeout, "timeout", 10, "seconds to wait for a notification")
	flag.StringVar(&csvFile, "csv", "e2e_latencies.csv", "CSV file to save latencies")
	flag.Parse()

	ctx := context.Background()

	// --- Owner uploads a post ---
	owner, err := newBenchUser(ctx, serverAddr, "owner")
	if err != nil {
		panic(fmt.Sprintf("failed to create owner: %v", err))
	}
	post, err := uploadPost(ctx, owner)
	if err != nil {
		panic(fmt.Sprintf("failed to upload post: %v", err))
	}
	fmt.Printf("Post %s uploaded by %s\n", post.ID, owner.id)

	// --- Create likers ---
	users := make([]*benchUser, likers)
	for i := range users {
		u, err := newBenchUser(ctx, serverAddr, fmt.Sprintf("liker-%d", i))
		if err != nil {
			panic(fmt.Sprintf("failed to create liker %d: %v", i, err))
		}
		users[i] = u
	}
	fmt.Printf("Created %d likers\n", len(users))

	// --- Like and wait for the owner's notification ---
	var mu sync.Mutex
	var results []delivery
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	start := time.Now()

	for _, u := range users {
		wg.Add(1)
		sem <- struct{}{}
		go func(u *benchUser) {
			defer wg.Done()
			defer func() { <-sem }()

			sent := time.Now()
			if err := u.client.Like(ctx, post.ID); err != nil {
				fmt.Printf("like error for %s: %v\n", u.id, err)
				mu.Lock()
				results = append(results, delivery{liker: u.id})
				mu.Unlock()
				return
			}
			ok := waitForNotification(ctx, owner, u.id, time.Duration(pollTimeout)*time.Second)

			mu.Lock()
			results = append(results, delivery{liker: u.id, latency: time.Since(sent), ok: ok})
			mu.Unlock()
		}(u)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// --- Summary ---
	var lat []float64
	delivered := 0
	for _, r := range results {
		if r.ok {
			delivered++
			lat = append(lat, float64(r.latency.Microseconds())/1000)
		}
	}
	sort.Float64s(lat)

	fmt.Printf("Delivered: %d/%d in %s\n", delivered, len(results), elapsed)
	if len(lat) > 0 {
		fmt.Printf("Latency (ms): p50=%.2f p90=%.2f p99=%.2f max=%.2f\n",
			pct(lat, 50), pct(lat, 90), pct(lat, 99), lat[len(lat)-1])
	}

	if err := saveCSV(csvFile, results); err != nil {
		fmt.Printf("Failed to write CSV: %v\n", err)
		return
	}
	fmt.Printf("Saved results to %s\n", csvFile)
}

func newBenchUser(ctx context.Context, server, prefix string) (*benchUser, error) {
	u := &benchUser{}
	u.client = api.New(server, api.WithTokenSource(api.TokenFunc(func(context.Context) (string, bool) {
		return u.token, u.token != ""
	})))

	name := fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	email := name + "@example.com"
	if _, err := u.client.Register(ctx, email, "e2e-bench", name); err != nil {
		return nil, err
	}
	tok, err := u.client.Login(ctx, email, "e2e-bench")
	if err != nil {
		return nil, err
	}
	u.token = tok

	id, err := token.UserID(tok)
	if err != nil {
		return nil, err
	}
	u.id = id
	return u, nil
}

func uploadPost(ctx context.Context, u *benchUser) (*models.Post, error) {
	path := filepath.Join(os.TempDir(), "photofeed-e2e.jpg")
	if err := os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o600); err != nil {
		return nil, err
	}
	return u.client.UploadPost(ctx, "e2e bench", models.ImageFile{Path: path, MimeType: "image/jpeg"})
}

// waitForNotification polls the owner's notifications until a like from likerID shows up.
func waitForNotification(ctx context.Context, owner *benchUser, likerID string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		items, err := owner.client.Notifications(ctx)
		if err == nil {
			for _, n := range items {
				if n.Type == models.NotificationLike && n.From.ID == likerID {
					return true
				}
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func saveCSV(name string, results []delivery) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"liker", "delivered", "latency_ms"})
	for _, r := range results {
		_ = w.Write([]string{r.liker, fmt.Sprint(r.ok), fmt.Sprintf("%.3f", float64(r.latency.Microseconds())/1000)})
	}
	w.Flush()
	return w.Error()
}

// pct returns the nearest-rank percentile of sorted data.
func pct(data []float64, p float64) float64 {
	idx := int(float64(len(data)-1) * p / 100)
	return data[idx]
}
