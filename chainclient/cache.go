package chainclient

import (
	"context"
	"sync"
	"time"

	"github.com/regolith-labs/ore-cli-sub000/utils"

	"go.uber.org/atomic"
)

// FetchFunc loads a fresh value for a Cache.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Cache polls a value in the background and publishes the last one fetched
// successfully.  A failed fetch never clears the value.
type Cache[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]

	value    utils.Latest[T]
	failures atomic.Uint32

	quit    chan struct{}
	wg      sync.WaitGroup
	started bool
	quitMtx sync.Mutex
}

// NewCache creates a cache polling fetch every interval once started.
func NewCache[T any](name string, interval time.Duration, fetch FetchFunc[T]) *Cache[T] {
	return &Cache[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		quit:     make(chan struct{}),
	}
}

// Get returns the latest value, and false only before the first successful
// fetch.
func (c *Cache[T]) Get() (T, bool) {
	return c.value.Get()
}

// Failures returns the number of consecutive failed fetches.
func (c *Cache[T]) Failures() uint32 {
	return c.failures.Load()
}

// Refresh fetches once and publishes the result on success.
func (c *Cache[T]) Refresh(ctx context.Context) (T, error) {
	v, err := c.fetch(ctx)
	if err != nil {
		n := c.failures.Inc()
		log.Warnf("Unable to refresh %v (%d consecutive failures): %v", c.name, n, err)
		return v, err
	}
	c.failures.Store(0)
	c.value.Set(v)
	return v, nil
}

// Start launches the polling goroutine.  It runs until Stop is called or ctx
// is done.  Starting twice is a no-op.
func (c *Cache[T]) Start(ctx context.Context) {
	c.quitMtx.Lock()
	defer c.quitMtx.Unlock()
	if c.started {
		return
	}
	c.started = true

	c.wg.Add(1)
	go c.pollHandler(ctx)
}

// Stop signals the polling goroutine to exit and waits for it.
func (c *Cache[T]) Stop() {
	c.quitMtx.Lock()
	select {
	case <-c.quit:
	default:
		close(c.quit)
	}
	c.quitMtx.Unlock()
	c.wg.Wait()
	log.Tracef("%v cache done", c.name)
}

func (c *Cache[T]) pollHandler(ctx context.Context) {
	defer c.wg.Done()
	defer utils.MyRecover()

	c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
out:
	for {
		select {
		case <-ticker.C:
			c.Refresh(ctx)

		case <-ctx.Done():
			break out

		case <-c.quit:
			break out
		}
	}
}
