package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// CleanerConfig controls the concurrency characteristics of the cleaner.
type CleanerConfig struct {
	QueueSize int
	Workers   int
}

// Cleaner asynchronously deletes blobs whose metadata is gone: replaced
// thumbnails, removed videos, and uploads stranded by a failed metadata
// write that could not be compensated inline. Deletes are retried once;
// a blob that still cannot be removed is logged and abandoned.
type Cleaner struct {
	blobs  BlobStore
	logger *slog.Logger

	jobs chan string
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var errCleanerClosed = errors.New("blob cleaner closed")

// NewCleaner constructs a background worker pool that deletes orphaned blobs.
func NewCleaner(blobs BlobStore, cfg CleanerConfig, logger *slog.Logger) *Cleaner {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cleaner{
		blobs:  blobs,
		logger: logger,
		jobs:   make(chan string, cfg.QueueSize),
	}

	c.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go c.worker()
	}

	return c
}

// Enqueue schedules deletion of the blobs stored under the provided keys.
// Empty keys are skipped.
func (c *Cleaner) Enqueue(ctx context.Context, keys ...string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errCleanerClosed
	}

	for _, key := range keys {
		if key == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case c.jobs <- key:
		}
	}
	return nil
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (c *Cleaner) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.jobs)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *Cleaner) worker() {
	defer c.wg.Done()

	for key := range c.jobs {
		c.deleteWithRetry(key)
	}
}

func (c *Cleaner) deleteWithRetry(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := c.blobs.Delete(ctx, key)
	if err == nil {
		return
	}
	c.logger.Warn("blob delete failed, retrying", "key", key, "error", err)

	if err := c.blobs.Delete(ctx, key); err != nil {
		c.logger.Error("abandoning orphaned blob", "key", key, "error", err)
	}
}
