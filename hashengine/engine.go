// Package hashengine searches the nonce space for the best proof-of-work
// solution.  One worker runs per requested core on its own OS thread; the
// workers share a single best difficulty cell updated with compare and swap.
package hashengine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/drill"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/utils"

	"go.uber.org/atomic"
)

// Hasher hashes a nonce against a challenge.  Implementations need not be
// safe for concurrent use.
type Hasher interface {
	Hash(challenge [drill.ChallengeSize]byte, nonce uint64) drill.Hash
}

// Progress is reported periodically by the first worker.
type Progress struct {
	Elapsed        time.Duration
	BestDifficulty uint32
	Hashes         uint64
}

// HashRate returns the hashes per second observed so far.
func (p Progress) HashRate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Hashes) / p.Elapsed.Seconds()
}

// Config describes one search run.
type Config struct {
	Challenge     [drill.ChallengeSize]byte
	MinDifficulty uint32

	// Cutoff is the soft deadline.  Once it has passed, workers stop as soon
	// as the global best meets MinDifficulty.
	Cutoff time.Duration

	// StartNonces holds one start nonce per worker.
	StartNonces []uint64

	// Cores lists the core each worker is pinned to.  Workers beyond the
	// length of Cores are not pinned.
	Cores []int

	// Solutions, when set, receives every new global best that meets
	// MinDifficulty.  Sends never block; the consumer must keep up or drain
	// into its own queue.
	Solutions chan<- drill.Solution

	// OnProgress is called from the first worker at most once per
	// ProgressInterval.
	OnProgress       func(Progress)
	ProgressInterval time.Duration

	// NewHasher creates the hasher of each worker.  drill.NewHasher is used
	// when nil.
	NewHasher func() Hasher
}

// Result is the best solution found by a search run.
type Result struct {
	Solution   drill.Solution
	Hash       drill.Hash
	Difficulty uint32
	Hashes     uint64
	Elapsed    time.Duration
}

// searchState is shared by all workers of a run.  The difficulty cell is read
// on the hot path; the nonce and hash change rarely and sit behind a mutex.
type searchState struct {
	bestDifficulty atomic.Uint32
	hashes         atomic.Uint64

	mtx      sync.Mutex
	bestHash drill.Hash
	bestNon  uint64
	bestDiff uint32
}

// offer publishes a candidate if it strictly improves the global best and
// reports whether it did.
func (s *searchState) offer(h drill.Hash, nonce uint64, difficulty uint32) bool {
	for {
		cur := s.bestDifficulty.Load()
		if difficulty <= cur {
			return false
		}
		if s.bestDifficulty.CompareAndSwap(cur, difficulty) {
			break
		}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	// A slower CAS winner may arrive after a faster, better one.
	if difficulty <= s.bestDiff {
		return false
	}
	s.bestHash = h
	s.bestNon = nonce
	s.bestDiff = difficulty
	return true
}

type workerResult struct {
	hash       drill.Hash
	nonce      uint64
	difficulty uint32
	hashes     uint64
}

// Search runs the workers described by cfg and returns the best solution
// across all of them.  It returns early only when ctx is cancelled; the cutoff
// is a soft target that is exceeded until an acceptable solution exists.
func Search(ctx context.Context, cfg Config) (*Result, error) {
	workers := len(cfg.StartNonces)
	if workers == 0 {
		cfg.StartNonces = SoloStartNonces(1)
		workers = 1
	}
	if cfg.NewHasher == nil {
		cfg.NewHasher = func() Hasher { return drill.NewHasher() }
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = time.Second
	}

	log.Debugf("Searching with %d workers, min difficulty %d, cutoff %v",
		workers, cfg.MinDifficulty, cfg.Cutoff)

	state := &searchState{}
	results := make([]workerResult, workers)
	start := time.Now()

	// A panicking worker ends the whole search.
	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		panicMtx sync.Mutex
		panicErr error
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			defer utils.RecoverWith(func(p interface{}) {
				panicMtx.Lock()
				if panicErr == nil {
					panicErr = fmt.Errorf("%w: worker %d: %v", errcode.ErrWorkerPanic, id, p)
				}
				panicMtx.Unlock()
				cancel()
			})

			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if id < len(cfg.Cores) {
				if err := pinToCore(cfg.Cores[id]); err != nil {
					log.Debugf("Worker %d not pinned to core %d: %v", id, cfg.Cores[id], err)
				}
			}

			results[id] = runWorker(searchCtx, id, &cfg, state, start)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if panicErr != nil {
		return nil, panicErr
	}

	best := results[0]
	var hashes uint64
	for _, r := range results {
		hashes += r.hashes
		if r.difficulty > best.difficulty {
			best = r
		}
	}
	// Equal difficulties go to the worker that reached them first.
	state.mtx.Lock()
	if state.bestDiff > 0 && state.bestDiff >= best.difficulty {
		best.hash = state.bestHash
		best.nonce = state.bestNon
		best.difficulty = state.bestDiff
	}
	state.mtx.Unlock()

	res := &Result{
		Solution:   drill.NewSolution(best.hash.Digest, best.nonce),
		Hash:       best.hash,
		Difficulty: best.difficulty,
		Hashes:     hashes,
		Elapsed:    time.Since(start),
	}
	log.Debugf("Search done: difficulty %d, nonce %d, %d hashes in %v",
		res.Difficulty, best.nonce, hashes, res.Elapsed)
	return res, nil
}

func runWorker(ctx context.Context, id int, cfg *Config, state *searchState,
	start time.Time) workerResult {

	hasher := cfg.NewHasher()
	nonce := cfg.StartNonces[id]
	res := workerResult{nonce: nonce}
	first := true
	lastProgress := start
	var sinceCheck uint64

	for {
		h := hasher.Hash(cfg.Challenge, nonce)
		difficulty := h.Difficulty()
		if first || difficulty > res.difficulty {
			first = false
			res.hash = h
			res.nonce = nonce
			res.difficulty = difficulty

			if state.offer(h, nonce, difficulty) &&
				difficulty >= cfg.MinDifficulty && cfg.Solutions != nil {

				select {
				case cfg.Solutions <- drill.NewSolution(h.Digest, nonce):
				default:
					log.Warnf("Solution queue full, dropping nonce %d", nonce)
				}
			}
		}
		res.hashes++
		sinceCheck++
		nonce++

		if sinceCheck < constdef.CheckInterval {
			continue
		}
		state.hashes.Add(sinceCheck)
		sinceCheck = 0

		select {
		case <-ctx.Done():
			return res
		default:
		}

		now := time.Now()
		elapsed := now.Sub(start)
		if id == 0 && cfg.OnProgress != nil && now.Sub(lastProgress) >= cfg.ProgressInterval {
			lastProgress = now
			cfg.OnProgress(Progress{
				Elapsed:        elapsed,
				BestDifficulty: state.bestDifficulty.Load(),
				Hashes:         state.hashes.Load(),
			})
		}
		if elapsed >= cfg.Cutoff && state.bestDifficulty.Load() >= cfg.MinDifficulty {
			return res
		}
	}
}
