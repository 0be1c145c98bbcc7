package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTokenBucket_Allow(t *testing.T) {
	bucket := NewTokenBucket(10, 1.0)

	// Burst
	for i := 0; i < 10; i++ {
		if !bucket.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	if bucket.Allow() {
		t.Error("Expected 11th request to be denied")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := NewTokenBucket(2, 20.0) // one token every 50ms

	bucket.Allow()
	bucket.Allow()
	if bucket.Allow() {
		t.Fatal("Expected bucket to be empty")
	}

	time.Sleep(80 * time.Millisecond)

	if !bucket.Allow() {
		t.Error("Expected request to be allowed after refill")
	}
}

func TestTokenBucket_Remaining(t *testing.T) {
	bucket := NewTokenBucket(10, 0.001)
	for i := 0; i < 4; i++ {
		bucket.Allow()
	}
	if got := bucket.remaining(); got != 6 {
		t.Errorf("Expected 6 remaining tokens, got %d", got)
	}
}

func TestTokenBucket_WaitBlocksUntilRefill(t *testing.T) {
	bucket := NewTokenBucket(1, 20.0)
	if err := bucket.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := bucket.Wait(context.Background()); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Expected second wait to block for a refill, took %v", elapsed)
	}
}

func TestTokenBucket_WaitHonorsCancellation(t *testing.T) {
	bucket := NewTokenBucket(1, 0) // never refills
	bucket.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := bucket.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestLimiter_PerKeyBuckets(t *testing.T) {
	limiter := NewLimiter(Config{Enabled: true, Limit: 2, Window: time.Hour, Burst: 2})

	if !limiter.Allow("search") || !limiter.Allow("search") {
		t.Fatal("Expected burst of 2 for search")
	}
	if limiter.Allow("search") {
		t.Error("Expected third search call to be denied")
	}
	if !limiter.Allow("github.com") {
		t.Error("Expected a separate bucket for github.com")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	for _, limiter := range []*Limiter{nil, NewLimiter(Config{}), NewLimiter(Config{Enabled: false, Limit: 1, Window: time.Hour})} {
		for i := 0; i < 20; i++ {
			if !limiter.Allow("k") {
				t.Fatalf("Expected disabled limiter to allow everything")
			}
			if err := limiter.Wait(context.Background(), "k"); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(Config{Enabled: true, Limit: 50, Window: time.Hour, Burst: 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if limiter.Allow(fmt.Sprintf("key-%d", i%2)) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if allowed != 100 {
		t.Errorf("Expected 100 allowed across two keys of 50, got %d", allowed)
	}
}
