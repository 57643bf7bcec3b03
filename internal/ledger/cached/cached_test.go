package cached

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

type countingSource struct {
	calls    atomic.Int32
	release  chan struct{}
	err      error
	canceled atomic.Bool
}

func (c *countingSource) FetchTransactions(ctx context.Context, accountID string, r core.DateRange) ([]core.Transaction, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	if ctx.Err() != nil {
		c.canceled.Store(true)
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	return []core.Transaction{{
		ID:     accountID + "-1",
		Amount: decimal.NewFromInt(10),
		Kind:   core.Income,
		Date:   r.Start,
		Status: core.Settled,
	}}, nil
}

func TestFetchIsCachedPerAccountAndRange(t *testing.T) {
	up := &countingSource{}
	s, _ := NewLRU(up, 10, time.Minute)
	ctx := context.Background()
	nov := core.MonthRange(2024, 11)

	for i := 0; i < 3; i++ {
		if _, err := s.FetchTransactions(ctx, "acme", nov); err != nil {
			t.Fatal(err)
		}
	}
	if up.calls.Load() != 1 {
		t.Fatalf("upstream called %d times, want 1", up.calls.Load())
	}
	_, _ = s.FetchTransactions(ctx, "acme", core.MonthRange(2024, 10))
	_, _ = s.FetchTransactions(ctx, "other", nov)
	if up.calls.Load() != 3 {
		t.Fatalf("upstream called %d times, want 3", up.calls.Load())
	}
}

func TestInvalidateDropsOnlyThatAccount(t *testing.T) {
	up := &countingSource{}
	s, lru := NewLRU(up, 10, time.Minute)
	ctx := context.Background()
	nov := core.MonthRange(2024, 11)
	_, _ = s.FetchTransactions(ctx, "acme", nov)
	_, _ = s.FetchTransactions(ctx, "acme", core.AllTime())
	_, _ = s.FetchTransactions(ctx, "acme|x", nov)

	if n := s.Invalidate("acme"); n != 2 {
		t.Fatalf("Invalidate dropped %d entries, want 2", n)
	}
	if lru.Size() != 1 {
		t.Fatalf("expected the other account entry to remain, size %d", lru.Size())
	}
	_, _ = s.FetchTransactions(ctx, "acme", nov)
	if up.calls.Load() != 4 {
		t.Fatalf("expected a refetch after invalidation, calls %d", up.calls.Load())
	}
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	up := &countingSource{release: make(chan struct{})}
	s, _ := NewLRU(up, 10, time.Minute)
	nov := core.MonthRange(2024, 11)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.FetchTransactions(context.Background(), "acme", nov); err != nil {
				t.Error(err)
			}
		}()
	}
	// Let the goroutines pile up on the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(up.release)
	wg.Wait()
	if up.calls.Load() != 1 {
		t.Fatalf("upstream called %d times, want 1", up.calls.Load())
	}
}

func TestCanceledCallerDoesNotFailSharedFetch(t *testing.T) {
	up := &countingSource{release: make(chan struct{})}
	s, lru := NewLRU(up, 10, time.Minute)
	nov := core.MonthRange(2024, 11)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.FetchTransactions(ctx, "acme", nov)
		firstErr <- err
	}()
	for up.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	secondErr := make(chan error, 1)
	go func() {
		txs, err := s.FetchTransactions(context.Background(), "acme", nov)
		if err == nil && len(txs) != 1 {
			err = errors.New("unexpected result")
		}
		secondErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled caller: got %v, want context.Canceled", err)
	}
	close(up.release)
	if err := <-secondErr; err != nil {
		t.Fatalf("waiting caller failed: %v", err)
	}
	if up.canceled.Load() {
		t.Fatalf("upstream saw a canceled context")
	}
	if up.calls.Load() != 1 || lru.Size() != 1 {
		t.Fatalf("calls = %d, cached = %d, want 1 and 1", up.calls.Load(), lru.Size())
	}
}

func TestInvalidationDuringFetchIsNotCached(t *testing.T) {
	up := &countingSource{release: make(chan struct{})}
	s, lru := NewLRU(up, 10, time.Minute)
	nov := core.MonthRange(2024, 11)

	done := make(chan struct{})
	go func() {
		_, _ = s.FetchTransactions(context.Background(), "acme", nov)
		close(done)
	}()
	for up.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	s.Invalidate("acme")
	close(up.release)
	<-done
	if lru.Size() != 0 {
		t.Fatalf("stale result was cached")
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	boom := errors.New("ledger down")
	up := &countingSource{err: boom}
	s, lru := NewLRU(up, 10, time.Minute)
	if _, err := s.FetchTransactions(context.Background(), "acme", core.AllTime()); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if lru.Size() != 0 {
		t.Fatalf("error result must not be cached")
	}
}

func TestCallersGetIndependentCopies(t *testing.T) {
	s, _ := NewLRU(&countingSource{}, 10, time.Minute)
	ctx := context.Background()
	a, _ := s.FetchTransactions(ctx, "acme", core.AllTime())
	a[0].ID = "mutated"
	b, _ := s.FetchTransactions(ctx, "acme", core.AllTime())
	if b[0].ID == "mutated" {
		t.Fatalf("cached slice was shared with a caller")
	}
}
