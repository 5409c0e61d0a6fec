// Package txmgr builds, signs, broadcasts and confirms transactions.  A
// transaction is re-signed with a fresh blockhash and priority fee every few
// broadcast attempts, rebroadcast on a fixed interval, and its signature
// status is polled on a separate interval until it lands or fails.
package txmgr

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/regolith-labs/ore-cli-sub000/chainclient"
	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/model"
	"github.com/regolith-labs/ore-cli-sub000/utils"

	"go.uber.org/atomic"
)

// State is the lifecycle state of a submission.
type State int

const (
	StateBuilt State = iota
	StateSigned
	StateBroadcasting
	StateConfirmed
	StateFailed
	StateExpired
)

var stateStrings = map[State]string{
	StateBuilt:        "Built",
	StateSigned:       "Signed",
	StateBroadcasting: "Broadcasting",
	StateConfirmed:    "Confirmed",
	StateFailed:       "Failed",
	StateExpired:      "Expired",
}

func (s State) String() string {
	if str, ok := stateStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("Unknown State (%d)", int(s))
}

// Chain is what the submitter needs from the chain client.
// *chainclient.Client implements it.
type Chain interface {
	chainclient.RPC
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	LatestBlockhash(ctx context.Context) (chainclient.Blockhash, error)
	FreshBlockhash(ctx context.Context) (chainclient.Blockhash, error)
}

// Config holds the submission policy.
type Config struct {
	// Tip, in lamports, paid to a relay.  When non-zero transactions are
	// sent through the tip sender instead of the chain.
	Tip uint64

	MaxAttempts     int
	RefreshEvery    int
	SendInterval    time.Duration
	ConfirmInterval time.Duration
	ConfirmChecks   int

	// MinBalance is the fee payer balance at or below which submissions
	// are refused.
	MinBalance uint64
}

// DefaultConfig returns the default policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     constdef.DefaultMaxAttempts,
		RefreshEvery:    constdef.DefaultRefreshEvery,
		SendInterval:    constdef.DefaultSendInterval,
		ConfirmInterval: constdef.DefaultConfirmInterval,
		ConfirmChecks:   constdef.DefaultConfirmChecks,
		MinBalance:      constdef.MinSolBalance,
	}
}

// Submitter delivers transactions signed by one key.
type Submitter struct {
	chain  Chain
	tipRPC chainclient.RPC
	signer solana.PrivateKey
	fees   FeeEstimator
	cfg    Config

	randMtx sync.Mutex
	rand    *rand.Rand

	// onState observes state transitions with the attempt counter.
	onState func(State, int)
}

// NewSubmitter creates a submitter.  tipRPC may be nil when cfg.Tip is zero.
func NewSubmitter(chain Chain, tipRPC chainclient.RPC, signer solana.PrivateKey,
	fees FeeEstimator, cfg Config) *Submitter {

	if cfg.RefreshEvery <= 0 {
		cfg.RefreshEvery = constdef.DefaultRefreshEvery
	}
	if cfg.ConfirmChecks <= 0 {
		cfg.ConfirmChecks = constdef.DefaultConfirmChecks
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = constdef.DefaultMaxAttempts
	}
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = constdef.DefaultSendInterval
	}
	if cfg.ConfirmInterval <= 0 {
		cfg.ConfirmInterval = constdef.DefaultConfirmInterval
	}
	if fees == nil {
		fees = StaticFee(0)
	}
	return &Submitter{
		chain:  chain,
		tipRPC: tipRPC,
		signer: signer,
		fees:   fees,
		cfg:    cfg,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Submitter) setState(st State, attempts int) {
	log.Tracef("Transaction %v (attempts %d)", st, attempts)
	if s.onState != nil {
		s.onState(st, attempts)
	}
}

func (s *Submitter) sender() chainclient.RPC {
	if s.cfg.Tip > 0 && s.tipRPC != nil {
		return s.tipRPC
	}
	return s.chain
}

// pendingTx is one signed snapshot.  It is never modified after signing.
type pendingTx struct {
	tx          *solana.Transaction
	sig         solana.Signature
	blockhash   chainclient.Blockhash
	priorityFee uint64
}

// build assembles compute budget instructions, the caller instructions and
// the optional tip, then signs the result.
func (s *Submitter) build(ctx context.Context, ixs []solana.Instruction, computeUnits uint32) (*pendingTx, error) {
	payer := s.signer.PublicKey()

	fee, err := s.fees.Estimate(ctx, writableAccounts(ixs))
	if err != nil {
		return nil, err
	}

	bh, err := s.chain.FreshBlockhash(ctx)
	if err != nil {
		log.Debugf("Unable to fetch a fresh blockhash, using the cached one: %v", err)
		bh, err = s.chain.LatestBlockhash(ctx)
		if err != nil {
			return nil, fmt.Errorf("no blockhash available: %w", err)
		}
	}

	all := make([]solana.Instruction, 0, len(ixs)+3)
	all = append(all,
		computebudget.NewSetComputeUnitLimitInstruction(computeUnits).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(fee).Build(),
	)
	all = append(all, ixs...)
	if s.cfg.Tip > 0 {
		s.randMtx.Lock()
		all = append(all, tipInstruction(payer, s.cfg.Tip, s.rand))
		s.randMtx.Unlock()
	}

	tx, err := solana.NewTransaction(all, bh.Hash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, err
	}
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &s.signer
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pendingTx{tx: tx, sig: tx.Signatures[0], blockhash: bh, priorityFee: fee}, nil
}

func writableAccounts(ixs []solana.Instruction) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	var res []solana.PublicKey
	for _, ix := range ixs {
		for _, meta := range ix.Accounts() {
			if !meta.IsWritable {
				continue
			}
			if _, ok := seen[meta.PublicKey]; ok {
				continue
			}
			seen[meta.PublicKey] = struct{}{}
			res = append(res, meta.PublicKey)
		}
	}
	return res
}

// cycleResult is the outcome of one broadcast and confirm cycle.
type cycleResult struct {
	confirmed bool
	progErr   *errcode.ProgramError
}

// Submit delivers ixs and blocks until the transaction is confirmed or a
// fatal condition is reached.  NeedsReset program errors restart the attempt
// counter; other program errors, an insufficient fee payer balance and
// running out of attempts are returned.
func (s *Submitter) Submit(ctx context.Context, ixs []solana.Instruction, computeUnits uint32) (*model.SubmitResult, error) {
	payer := s.signer.PublicKey()
	balance, err := s.chain.Balance(ctx, payer)
	if err != nil {
		log.Warnf("Unable to fetch balance of %v: %v", utils.ShortKey(payer.String()), err)
	} else if balance <= s.cfg.MinBalance {
		return nil, fmt.Errorf("%w: %v SOL, need more than %v SOL", errcode.ErrInsufficientBalance,
			utils.LamportsToSol(balance), utils.LamportsToSol(s.cfg.MinBalance))
	}
	s.setState(StateBuilt, 0)

	var (
		attempts atomic.Int64
		total    atomic.Int64
		pending  *pendingTx
		signedAt int64
	)
	result := &model.SubmitResult{Tip: s.cfg.Tip}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempts.Load() > int64(s.cfg.MaxAttempts) {
			s.setState(StateFailed, int(attempts.Load()))
			result.Attempts = int(total.Load())
			result.Err = errcode.ErrMaxRetries
			return result, errcode.ErrMaxRetries
		}

		if pending == nil || attempts.Load()-signedAt >= int64(s.cfg.RefreshEvery) {
			next, err := s.build(ctx, ixs, computeUnits)
			if err != nil {
				log.Warnf("Unable to sign transaction: %v", err)
				if !s.sleep(ctx, s.cfg.SendInterval) {
					return nil, ctx.Err()
				}
				attempts.Inc()
				continue
			}
			if pending != nil && pending.blockhash.Hash != next.blockhash.Hash {
				s.setState(StateExpired, int(attempts.Load()))
			}
			pending = next
			signedAt = attempts.Load()
			result.Signature = pending.sig.String()
			result.PriorityFee = pending.priorityFee
			s.setState(StateSigned, int(attempts.Load()))
			log.Debugf("Signed %v with priority fee %d", pending.sig, pending.priorityFee)
		}

		// The cycle ends once the next refresh or the attempt ceiling is due.
		limit := signedAt + int64(s.cfg.RefreshEvery)
		if ceiling := int64(s.cfg.MaxAttempts) + 1; ceiling < limit {
			limit = ceiling
		}
		s.setState(StateBroadcasting, int(attempts.Load()))
		res := s.runCycle(ctx, pending, &attempts, &total, limit)

		switch {
		case res.confirmed:
			s.setState(StateConfirmed, int(attempts.Load()))
			result.Attempts = int(total.Load())
			log.Infof("Transaction %v confirmed after %d sends", pending.sig, result.Attempts)
			return result, nil

		case res.progErr != nil && errors.Is(res.progErr, errcode.ErrNeedsReset):
			log.Infof("Program needs reset, resubmitting")
			attempts.Store(0)
			pending = nil

		case res.progErr != nil:
			s.setState(StateFailed, int(attempts.Load()))
			result.Attempts = int(total.Load())
			result.Err = res.progErr
			log.Errorf("Transaction %v failed: %v", pending.sig, describe(res.progErr))
			return result, res.progErr
		}
	}
}

// runCycle broadcasts p on SendInterval and polls its status on
// ConfirmInterval until it resolves, ConfirmChecks polls have passed or the
// attempt counter reaches limit.  Both loops stop as soon as either finishes.
func (s *Submitter) runCycle(ctx context.Context, p *pendingTx, attempts, total *atomic.Int64,
	limit int64) cycleResult {

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer utils.MyRecover()
		defer cancel()
		s.broadcastHandler(cycleCtx, p, attempts, total, limit)
	}()

	res := s.confirm(cycleCtx, p)
	cancel()
	wg.Wait()
	return res
}

// broadcastHandler sends p until ctx is done or the attempt counter reaches
// limit.
func (s *Submitter) broadcastHandler(ctx context.Context, p *pendingTx, attempts, total *atomic.Int64,
	limit int64) {

	opts := rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentConfirmed,
	}
	ticker := time.NewTicker(s.cfg.SendInterval)
	defer ticker.Stop()

	for {
		if _, err := s.sender().SendTransactionWithOpts(ctx, p.tx, opts); err != nil && ctx.Err() == nil {
			log.Debugf("Send %v failed: %v", p.sig, err)
		}
		total.Inc()
		if attempts.Inc() >= limit {
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Submitter) confirm(ctx context.Context, p *pendingTx) cycleResult {
	ticker := time.NewTicker(s.cfg.ConfirmInterval)
	defer ticker.Stop()

	for i := 0; i < s.cfg.ConfirmChecks; i++ {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return cycleResult{}
		}

		res, err := s.chain.GetSignatureStatuses(ctx, false, p.sig)
		if err != nil {
			log.Debugf("Unable to fetch status of %v: %v", p.sig, err)
			continue
		}
		if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
			continue
		}
		status := res.Value[0]
		if status.Err != nil {
			return cycleResult{progErr: parseTransactionError(status.Err)}
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return cycleResult{confirmed: true}
		}
	}
	return cycleResult{}
}

func (s *Submitter) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
