package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/common"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"golang.org/x/sync/singleflight"
)

const DefaultInterval = 30 * time.Second

var errRestored = errors.New("restored from cache, awaiting live fetch")

// Poller refreshes the snapshot set on a fixed interval and on demand.
// Readers always see a complete set; overlapping fetches are merged.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	log      logging.Logger
	cache    Cache
	now      func() time.Time

	cur   atomic.Pointer[Set]
	group singleflight.Group

	subMu  sync.Mutex
	subs   map[int]chan *Set
	nextID int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

// WithCache enables warm start and write-through of good sets.
func WithCache(c Cache) Option {
	return func(p *Poller) { p.cache = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

func NewPoller(f Fetcher, interval time.Duration, log logging.Logger, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		fetcher:  f,
		interval: interval,
		log:      log.With("module", "pricefeed"),
		now:      time.Now,
		subs:     make(map[int]chan *Set),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Current returns the latest set, or nil if nothing was ever fetched.
func (p *Poller) Current() *Set {
	return p.cur.Load()
}

// Refresh fetches now without touching the ticker. If a fetch is already
// in flight the caller waits for it and shares its result. On failure the
// previous set is returned marked stale, together with the error.
//
// The fetch itself is not bound to ctx: a caller that gives up returns
// ctx.Err() with the current set and leaves the fetch to the others.
func (p *Poller) Refresh(ctx context.Context) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return p.cur.Load(), err
	}
	ch := p.group.DoChan("fetch", func() (any, error) {
		return p.fetch(context.WithoutCancel(ctx))
	})
	select {
	case r := <-ch:
		if r.Shared {
			p.log.Debug(ctx, "joined in-flight fetch")
		}
		s, _ := r.Val.(*Set)
		return s, r.Err
	case <-ctx.Done():
		return p.cur.Load(), ctx.Err()
	}
}

func (p *Poller) fetch(ctx context.Context) (*Set, error) {
	snaps, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.log.Warn(ctx, "price fetch failed", "error", err)
		prev := p.cur.Load()
		if prev == nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorFeedUnavailable, err)
		}
		stale := prev.markStale(err)
		p.cur.Store(stale)
		p.publish(stale)
		return stale, fmt.Errorf("%w: %v", common.ErrorFeedUnavailable, err)
	}

	s := &Set{Snapshots: snaps, FetchedAt: p.now().UTC()}
	p.cur.Store(s)
	p.publish(s)

	if p.cache != nil {
		if err := p.cache.Save(ctx, s); err != nil {
			p.log.Warn(ctx, "price cache save failed", "error", err)
		}
	}
	p.log.Debug(ctx, "prices refreshed", "assets", len(snaps))
	return s, nil
}

// Warm loads the cached set if the poller has none yet. The restored set
// is served as stale until a live fetch succeeds.
func (p *Poller) Warm(ctx context.Context) {
	if p.cache == nil || p.cur.Load() != nil {
		return
	}
	s, err := p.cache.Load(ctx)
	if err != nil {
		p.log.Warn(ctx, "price cache load failed", "error", err)
		return
	}
	if s == nil {
		return
	}
	if s = s.markStale(errRestored); p.cur.CompareAndSwap(nil, s) {
		p.log.Info(ctx, "price set restored from cache", "fetched_at", s.FetchedAt)
	}
}

// Run fetches once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.Warm(ctx)
	_, _ = p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info(ctx, "poller started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.log.Info(context.WithoutCancel(ctx), "poller stopped")
			return nil
		case <-ticker.C:
			_, _ = p.Refresh(ctx)
		}
	}
}

// Start runs the loop in the background. It is a no-op if already started.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
}

// Stop cancels the loop started by Start and waits for it to exit.
func (p *Poller) Stop() {
	p.runMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Subscribe returns a channel receiving every new set. Slow receivers only
// get the most recent one. The returned func unsubscribes and closes the
// channel.
func (p *Poller) Subscribe() (<-chan *Set, func()) {
	ch := make(chan *Set, 1)
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, id)
			p.subMu.Unlock()
			close(ch)
		})
	}
}

func (p *Poller) publish(s *Set) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
