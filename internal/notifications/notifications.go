// Package notifications reads the current user's notifications, newest first.
package notifications

import (
	"context"
	"errors"
	"sort"
	"sync"

	"example.com/photofeed/internal/generation"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/models"
)

var logg = logger.New()

// ErrSuperseded is returned by a load overtaken by a newer one.
var ErrSuperseded = errors.New("notifications: superseded by a newer load")

// Source is the remote side of the notification list.
type Source interface {
	Notifications(ctx context.Context) ([]models.Notification, error)
}

// Reader holds the last loaded notification list.
type Reader struct {
	src   Source
	loads generation.Counter

	mu    sync.Mutex
	items []models.Notification
	err   error
}

func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// SortByRecency orders list by CreatedAt, newest first. Equal timestamps
// keep their delivered order.
func SortByRecency(list []models.Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// Load fetches and sorts the notifications. Failures are returned as is and
// never retried; the previous list is kept.
func (r *Reader) Load(ctx context.Context) ([]models.Notification, error) {
	gen := r.loads.Next()
	list, err := r.src.Notifications(ctx)
	if err == nil {
		SortByRecency(list)
	}

	var out []models.Notification
	applied := r.loads.Apply(gen, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.err = err
			return
		}
		r.items = list
		r.err = nil
		out = append([]models.Notification(nil), list...)
	})
	if !applied {
		return nil, ErrSuperseded
	}
	if err != nil {
		logg.Error("notifications", "Could not load notifications", err)
		return nil, err
	}
	return out, nil
}

// Items returns a copy of the last loaded list.
func (r *Reader) Items() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.items...)
}

// Err returns the error of the last applied load, or nil.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
