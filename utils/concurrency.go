package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded set of goroutines with a minimum
// interval between job starts. The coordinator uses it to pace provider
// launches in concurrent mode so the browsers never spin up in a burst.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastStart   time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job for execution in the pool. The job is dropped,
// not run, if ctx is cancelled before a worker slot frees up or while
// waiting out the rate limit.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) {
	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()

		if ctx.Err() != nil {
			return
		}
		select {
		case wp.semaphore <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-wp.semaphore }()

		if !wp.pace(ctx) {
			return
		}
		job()
	}()
}

// Wait blocks until all submitted jobs have completed or been dropped.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// pace holds the caller until the minimum interval since the previous job
// start has elapsed. Returns false if ctx is cancelled during the wait.
func (wp *WorkerPool) pace(ctx context.Context) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	if !wp.lastStart.IsZero() {
		if wait := minInterval - time.Since(wp.lastStart); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return false
			}
		}
	}
	wp.lastStart = time.Now()
	return true
}

// TokenSet is a thread-safe set of card identifiers used to deduplicate
// product cards across lazy-load scroll cycles.
type TokenSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewTokenSet creates an empty TokenSet.
func NewTokenSet() *TokenSet {
	return &TokenSet{seen: make(map[string]struct{})}
}

// Add returns true if the token was newly added, false if already present.
func (s *TokenSet) Add(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[token]; exists {
		return false
	}
	s.seen[token] = struct{}{}
	return true
}

// Contains returns true if the token has already been recorded.
func (s *TokenSet) Contains(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[token]
	return exists
}

// Size returns the number of unique tokens tracked.
func (s *TokenSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
