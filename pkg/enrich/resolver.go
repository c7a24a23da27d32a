// Package enrich resolves peer addresses to hostnames off the model goroutine
// and hands the results back as peers.Completion values.
package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/dnscache"
	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/peers"
)

var (
	ErrNoName = errors.New("no PTR record")
	ErrClosed = errors.New("resolver closed")
)

// AddrResolver is satisfied by *net.Resolver and *dnscache.Resolver.
type AddrResolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

type Config struct {
	// Timeout bounds a single PTR query once it has a concurrency slot.
	// Time spent waiting for the slot is not counted.
	Timeout     time.Duration
	Concurrency int
	// CompletionBuffer is the capacity of the Completions channel. Pending
	// lookups are not bounded by it; a full buffer only delays delivery.
	CompletionBuffer int
}

type Resolver struct {
	lookup  AddrResolver
	timeout time.Duration
	lim     *limiter
	out     chan peers.Completion
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	logger  *zap.Logger
}

func New(lookup AddrResolver, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.CompletionBuffer <= 0 {
		cfg.CompletionBuffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		lookup:  lookup,
		timeout: cfg.Timeout,
		lim:     newLimiter(cfg.Concurrency),
		out:     make(chan peers.Completion, cfg.CompletionBuffer),
		stop:    make(chan struct{}),
		logger:  logger,
	}
}

// NewCached wraps the system resolver in a dnscache so churned peers that
// reconnect do not cost another PTR query.
func NewCached(cfg Config, logger *zap.Logger) (*Resolver, *dnscache.Resolver) {
	cache := &dnscache.Resolver{Timeout: cfg.Timeout}
	return New(cache, cfg, logger), cache
}

func (r *Resolver) Completions() <-chan peers.Completion { return r.out }

// Enrich starts a reverse lookup for address and returns immediately.
func (r *Resolver) Enrich(ref peers.Ref, address string) {
	select {
	case <-r.stop:
		return
	default:
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		c := peers.Completion{Ref: ref, Address: address}
		c.Hostname, c.Err = r.resolve(address)
		select {
		case r.out <- c:
		case <-r.stop:
		}
	}()
}

func (r *Resolver) resolve(address string) (string, error) {
	if !r.lim.acquire(r.stop) {
		return "", ErrClosed
	}
	defer r.lim.release()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	names, err := r.lookup.LookupAddr(ctx, address)
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if n = strings.TrimSuffix(n, "."); n != "" {
			return n, nil
		}
	}
	return "", ErrNoName
}

// Close stops delivery; lookups still running are abandoned.
func (r *Resolver) Close() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

// RefreshLoop periodically drops cache entries nobody asked for since the
// previous refresh.
func RefreshLoop(ctx context.Context, cache *dnscache.Resolver, every time.Duration, logger *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			cache.Refresh(true)
			logger.Debug("dns_cache_refreshed")
		}
	}
}
