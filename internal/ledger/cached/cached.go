// Package cached decorates a TransactionSource with a read-through LRU
// cache. Concurrent misses for the same key share one upstream fetch.
package cached

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/ledger"
)

type Source struct {
	next  ledger.TransactionSource
	cache cache.Cache[[]core.Transaction]
	group singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

func New(next ledger.TransactionSource, c cache.Cache[[]core.Transaction]) *Source {
	return &Source{next: next, cache: c, generations: map[string]uint64{}}
}

// NewLRU wraps next with an LRU cache of size entries living for ttl.
func NewLRU(next ledger.TransactionSource, size int, ttl time.Duration) (*Source, *cache.LRUCache[[]core.Transaction]) {
	lru := cache.NewLRUCache[[]core.Transaction](size, ttl)
	return New(next, lru), lru
}

func accountPrefix(accountID string) string {
	return strconv.Quote(accountID) + "|"
}

func key(accountID string, r core.DateRange) string {
	return accountPrefix(accountID) + r.Start.String() + "|" + r.End.String()
}

func (s *Source) generation(accountID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[accountID]
}

func (s *Source) FetchTransactions(ctx context.Context, accountID string, r core.DateRange) ([]core.Transaction, error) {
	k := key(accountID, r)
	if txs, ok := s.cache.Get(k); ok {
		return clone(txs), nil
	}

	gen := s.generation(accountID)
	// The fetch is shared, so it must outlive any single caller.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(k+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		txs, err := s.next.FetchTransactions(fetchCtx, accountID, r)
		if err != nil {
			return nil, err
		}
		// An invalidation during the fetch makes the result stale.
		if s.generation(accountID) == gen {
			s.cache.Set(k, txs)
		}
		return txs, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	v, shared := res.Val, res.Shared
	if shared {
		slog.DebugContext(ctx, "Ledger fetch shared", "account_id", accountID, "range", r.String())
	}
	return clone(v.([]core.Transaction)), nil
}

// Invalidate drops every cached range of the account.
func (s *Source) Invalidate(accountID string) int {
	s.mu.Lock()
	s.generations[accountID]++
	s.mu.Unlock()
	return s.cache.DeletePrefix(accountPrefix(accountID))
}

func clone(in []core.Transaction) []core.Transaction {
	if in == nil {
		return nil
	}
	out := make([]core.Transaction, len(in))
	copy(out, in)
	return out
}

var _ ledger.TransactionSource = (*Source)(nil)
