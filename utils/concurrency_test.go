package utils

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLinkSetNoDuplicates(t *testing.T) {
	s := NewLinkSet()

	if !s.Add("https://realty.yandex.ru/offer/1/") {
		t.Error("first Add should return true")
	}
	if s.Add("https://realty.yandex.ru/offer/1/") {
		t.Error("second Add of same link should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestLinkSetConcurrency(t *testing.T) {
	s := NewLinkSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		link := "https://realty.yandex.ru/offer/same/"
		pool.Submit(context.Background(), func() {
			if s.Add(link) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var timestamps []time.Time
	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	for i := 0; i < 3; i++ {
		pool.Submit(context.Background(), func() {
			<-mu
			timestamps = append(timestamps, time.Now())
			mu <- struct{}{}
		})
	}
	pool.Wait()

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		min := time.Duration(rateLimitMs) * time.Millisecond
		if gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolDropsJobsAfterCancel(t *testing.T) {
	pool := NewWorkerPool(1, 0)
	ctx, cancel := context.WithCancel(context.Background())

	block := make(chan struct{})
	pool.Submit(ctx, func() { <-block })

	cancel()
	var ran int64
	pool.Submit(ctx, func() { atomic.AddInt64(&ran, 1) })

	close(block)
	pool.Wait()

	if ran != 0 {
		t.Errorf("job submitted after cancel should be dropped, ran %d", ran)
	}
}
