package poolclient

import (
	"context"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"

	"github.com/regolith-labs/ore-cli-sub000/drill"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/model"
	"github.com/regolith-labs/ore-cli-sub000/pooljson"
	"github.com/regolith-labs/ore-cli-sub000/utils"

	"go.uber.org/atomic"
)

const (
	seenCacheSize = 4096

	// DefaultContributeRate bounds contributions per second.
	DefaultContributeRate = 20
)

// Contribution is a solution together with the challenge it answers.
type Contribution struct {
	Challenge *model.Challenge
	Solution  drill.Solution
}

// ResultCallback observes the outcome of each contribution attempt.
type ResultCallback func(c *Contribution, err error)

// Contributor submits solutions to the pool in the background.  Solutions
// are queued without bound, deduplicated, validated, signed and posted at a
// bounded rate.  Failures are logged and never block the miner.
type Contributor struct {
	api    *API
	signer solana.PrivateKey

	limiter *rate.Limiter
	seen    *lru.Cache

	enqueue chan *Contribution
	dequeue chan *Contribution

	onResult ResultCallback

	sent   atomic.Uint64
	failed atomic.Uint64

	quit    chan struct{}
	wg      sync.WaitGroup
	started bool
	quitMtx sync.Mutex
}

// NewContributor creates a contributor posting at most perSecond requests per
// second.
func NewContributor(api *API, signer solana.PrivateKey, perSecond float64, onResult ResultCallback) (*Contributor, error) {
	seen, err := lru.New(seenCacheSize)
	if err != nil {
		return nil, err
	}
	if perSecond <= 0 {
		perSecond = DefaultContributeRate
	}
	return &Contributor{
		api:      api,
		signer:   signer,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		seen:     seen,
		enqueue:  make(chan *Contribution),
		dequeue:  make(chan *Contribution),
		onResult: onResult,
		quit:     make(chan struct{}),
	}, nil
}

// Start launches the queue and the submit handler.
func (c *Contributor) Start(ctx context.Context) {
	c.quitMtx.Lock()
	defer c.quitMtx.Unlock()
	if c.started {
		return
	}
	c.started = true

	c.wg.Add(2)
	go c.handler()
	go c.submitHandler(ctx)
}

// Stop drops queued contributions and waits for the handlers to exit.
func (c *Contributor) Stop() {
	c.quitMtx.Lock()
	select {
	case <-c.quit:
	default:
		close(c.quit)
	}
	c.quitMtx.Unlock()
	c.wg.Wait()
	log.Tracef("Contributor done, %d sent, %d failed", c.sent.Load(), c.failed.Load())
}

// Stats returns the number of accepted and failed contributions.
func (c *Contributor) Stats() (sent, failed uint64) {
	return c.sent.Load(), c.failed.Load()
}

// Submit queues sol for challenge.  It never blocks on the pool.
func (c *Contributor) Submit(challenge *model.Challenge, sol drill.Solution) {
	select {
	case c.enqueue <- &Contribution{Challenge: challenge, Solution: sol}:
	case <-c.quit:
	}
}

// Stream returns a channel for the search engine to publish solutions of
// challenge on, and a function that stops forwarding once the search is
// over.
func (c *Contributor) Stream(challenge *model.Challenge, capacity int) (chan<- drill.Solution, func()) {
	ch := make(chan drill.Solution, capacity)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer utils.MyRecover()
		for sol := range ch {
			c.Submit(challenge, sol)
		}
	}()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			close(ch)
			<-done
		})
	}
}

// handler maintains the queue of contributions.
func (c *Contributor) handler() {
	defer c.wg.Done()

	var queue []*Contribution
	var dequeue chan *Contribution
	var next *Contribution
out:
	for {
		select {
		case n := <-c.enqueue:
			if len(queue) == 0 {
				next = n
				dequeue = c.dequeue
			}
			queue = append(queue, n)

		case dequeue <- next:
			queue[0] = nil
			queue = queue[1:]
			if len(queue) != 0 {
				next = queue[0]
			} else {
				dequeue = nil
			}

		case <-c.quit:
			break out
		}
	}
	if len(queue) > 0 {
		log.Debugf("Dropping %d queued contributions", len(queue))
	}
}

func (c *Contributor) submitHandler(ctx context.Context) {
	defer c.wg.Done()
	defer utils.MyRecover()
out:
	for {
		select {
		case n := <-c.dequeue:
			c.contribute(ctx, n)

		case <-ctx.Done():
			break out

		case <-c.quit:
			break out
		}
	}
}

func contributionKey(n *Contribution) string {
	return hex.EncodeToString(n.Challenge.Challenge[:]) + ":" +
		strconv.FormatUint(n.Solution.NonceUint64(), 10)
}

func (c *Contributor) contribute(ctx context.Context, n *Contribution) {
	if ok, _ := c.seen.ContainsOrAdd(contributionKey(n), struct{}{}); ok {
		return
	}
	if !n.Challenge.Accepts(n.Solution) {
		c.report(n, errcode.ErrInvalidSolution)
		return
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return
	}

	sig, err := c.signer.Sign(n.Solution.Bytes())
	if err != nil {
		c.report(n, err)
		return
	}
	cmd := pooljson.NewContributeCmd(
		c.signer.PublicKey().String(),
		pooljson.Solution{D: n.Solution.Digest, N: n.Solution.Nonce},
		sig.String(),
	)
	c.report(n, c.api.Contribute(ctx, cmd))
}

func (c *Contributor) report(n *Contribution, err error) {
	if err != nil {
		c.failed.Inc()
		log.Warnf("Contribution of nonce %d failed: %v", n.Solution.NonceUint64(), err)
	} else {
		c.sent.Inc()
		log.Debugf("Contributed nonce %d (difficulty %d)", n.Solution.NonceUint64(),
			n.Solution.ToHash().Difficulty())
	}
	if c.onResult != nil {
		c.onResult(n, err)
	}
}
