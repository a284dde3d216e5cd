package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool manages a pool of goroutines with rate limiting. The fetcher
// uses it to load target pages without hammering the site.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastRequest time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	return &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
		lastRequest: time.Now(),
	}
}

// Submit enqueues a job for execution in the pool. A job whose context is
// already done before a worker slot frees up is dropped, so a cancelled
// run stops queueing page loads instead of draining the backlog.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) {
	wp.wg.Add(1)

	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		wp.wg.Done()
		return
	}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceRateLimit()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	elapsed := time.Since(wp.lastRequest)
	if elapsed < minInterval {
		time.Sleep(minInterval - elapsed)
	}
	wp.lastRequest = time.Now()
}

// LinkSet is a thread-safe set of URLs already scheduled within a run,
// used to fetch each configured target page at most once.
type LinkSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewLinkSet creates an empty LinkSet.
func NewLinkSet() *LinkSet {
	return &LinkSet{seen: make(map[string]struct{})}
}

// Add returns true if the link was newly added, false if already present.
func (s *LinkSet) Add(link string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[link]; exists {
		return false
	}
	s.seen[link] = struct{}{}
	return true
}

// Size returns the number of unique links tracked.
func (s *LinkSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
