package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/regolith-labs/ore-cli-sub000/chainclient"
	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/hashengine"
	"github.com/regolith-labs/ore-cli-sub000/model"
	"github.com/regolith-labs/ore-cli-sub000/program"
	"github.com/regolith-labs/ore-cli-sub000/txmgr"
	"github.com/regolith-labs/ore-cli-sub000/utils"
)

// retryDelay is the pause after a failed mining cycle.
const retryDelay = 2 * time.Second

// miner owns the components of one mining run.
type miner struct {
	cfg        *config
	signer     solana.PrivateKey
	authority  solana.PublicKey
	httpClient *http.Client
	history    *historyRecorder

	// solo only
	chain     *chainclient.Client
	submitter *txmgr.Submitter
	builder   program.InstructionBuilder
	buses     *chainclient.BusSelector
	balance   uint64

	// search is hashengine.Search outside of tests.
	search func(ctx context.Context, cfg hashengine.Config) (*hashengine.Result, error)
}

// newRPCClient returns a node client sending through httpClient.
func newRPCClient(url string, httpClient *http.Client) *rpc.Client {
	return rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(url, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	}))
}

func newMiner(cfg *config) (*miner, error) {
	signer, err := solana.PrivateKeyFromSolanaKeygenFile(cfg.Keypair)
	if err != nil {
		return nil, fmt.Errorf("unable to load keypair %v: %w", cfg.Keypair, err)
	}
	m := &miner{
		cfg:        cfg,
		signer:     signer,
		authority:  signer.PublicKey(),
		httpClient: utils.NewHTTPClient(cfg.proxyConfig(), defaultHTTPTimeout),
		search:     hashengine.Search,
	}

	mode := model.ModeSolo
	if cfg.pooled() {
		mode = model.ModePool
	}
	m.history, err = newHistoryRecorder(cfg.dbConfig(), !cfg.DisableAutoCreateDB, mode, m.authority.String())
	if err != nil {
		return nil, fmt.Errorf("unable to open history database: %w", err)
	}
	if cfg.pooled() {
		return m, nil
	}

	m.chain = chainclient.NewClient(newRPCClient(cfg.RPCURL, m.httpClient), m.authority, cfg.WSURL)

	var fees txmgr.FeeEstimator = txmgr.StaticFee(cfg.PriorityFee)
	if cfg.DynamicFeeURL != "" {
		fees = txmgr.NewDynamicFee(cfg.DynamicFeeURL, m.httpClient, cfg.PriorityFee, cfg.PriorityFeeCap)
	}
	var tipRPC chainclient.RPC
	if cfg.Tip > 0 {
		tipRPC = newRPCClient(cfg.TipURL, m.httpClient)
	}
	subCfg := txmgr.DefaultConfig()
	subCfg.Tip = cfg.Tip
	subCfg.RefreshEvery = cfg.RefreshEvery
	subCfg.MaxAttempts = cfg.MaxAttempts
	subCfg.ConfirmChecks = cfg.ConfirmChecks
	m.submitter = txmgr.NewSubmitter(m.chain, tipRPC, signer, fees, subCfg)

	m.builder = program.NewBuilder(cfg.boostProgram)
	m.buses = chainclient.NewBusSelector(m.chain, rand.New(rand.NewSource(time.Now().UnixNano())))
	return m, nil
}

// run mines until ctx is done or a fatal error occurs.
func (m *miner) run(ctx context.Context) error {
	minrLog.Infof("Mining as %v with %d %s", m.authority, m.cfg.workers,
		pickNoun(uint64(m.cfg.workers), "core", "cores"))
	m.history.summary(ctx)
	if m.cfg.pooled() {
		return m.runPool(ctx)
	}

	m.chain.Start(ctx)
	defer m.chain.Stop()
	return m.runSolo(ctx)
}

func (m *miner) runSolo(ctx context.Context) error {
	proof, err := m.chain.GetProof(ctx, m.authority)
	if err != nil {
		return fmt.Errorf("unable to fetch proof of %v: %w", m.authority, err)
	}
	m.balance = proof.Balance
	minrLog.Infof("Proof balance %.11f, %d total hashes",
		utils.AmountToUI(proof.Balance, constdef.TokenDecimals), proof.TotalHashes)

	source := chainclient.NewProofSource(m.chain)
	var lastHashAt int64
	for {
		challenge, err := source.NextChallenge(ctx, lastHashAt)
		if err != nil {
			return err
		}
		lastHashAt = challenge.LastHashAt

		err = m.mineSolo(ctx, challenge)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errcode.IsFatal(err):
			return err
		default:
			minrLog.Warnf("Mining cycle failed: %v", err)
			if !sleepCtx(ctx, retryDelay) {
				return ctx.Err()
			}
		}
	}
}

// mineSolo searches challenge and lands the best solution on chain.
func (m *miner) mineSolo(ctx context.Context, challenge *model.Challenge) error {
	now := time.Now().Unix()
	if clock, err := m.chain.GetClock(ctx); err == nil {
		now = clock.UnixTimestamp
	} else {
		minrLog.Debugf("Unable to fetch clock, using local time: %v", err)
	}
	cutoff := utils.Cutoff(challenge.LastHashAt, now, m.cfg.BufferTime)

	res, err := m.search(ctx, hashengine.Config{
		Challenge:     challenge.Challenge,
		MinDifficulty: challenge.MinDifficulty,
		Cutoff:        cutoff,
		StartNonces:   hashengine.SoloStartNonces(m.cfg.workers),
		Cores:         hashengine.CoreIDs(m.cfg.workers),
		OnProgress:    progress.searchProgress,
	})
	if err != nil {
		return err
	}
	reportSearch(res)

	if !challenge.Accepts(res.Solution) {
		return fmt.Errorf("%w: difficulty %d, need %d", errcode.ErrInvalidSolution,
			res.Difficulty, challenge.MinDifficulty)
	}
	record := m.history.solution(ctx, challenge, res.Solution)

	ixs, computeUnits := m.mineInstructions(ctx, res)
	progress.update("Submitting transaction...")
	result, err := m.submitter.Submit(ctx, ixs, computeUnits)
	if result != nil && result.Err == nil && record != nil {
		record.Reward = m.rewardSince(ctx)
	}
	m.history.submitResult(ctx, record, result)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			progress.fail(err)
		}
		return err
	}
	progress.finish("OK %v", result.Signature)
	return nil
}

// mineInstructions builds the instructions of the mine transaction of res
// and the compute budget they need.
func (m *miner) mineInstructions(ctx context.Context, res *hashengine.Result) ([]solana.Instruction, uint32) {
	signer := m.authority
	ixs := []solana.Instruction{m.builder.Auth(program.ProofAddress(m.authority))}
	computeUnits := constdef.MineComputeUnits

	if m.shouldReset(ctx) {
		minrLog.Debug("Epoch ending, bundling reset")
		ixs = append(ixs, m.builder.Reset(signer))
		computeUnits += constdef.ResetComputeUnits
	}

	bus := m.buses.Select(ctx)
	ixs = append(ixs, m.builder.Mine(signer, m.authority, bus, res.Solution, m.cfg.boostKeys))
	if rotate := m.builder.Rotate(signer); rotate != nil {
		ixs = append(ixs, rotate)
	}
	return ixs, computeUnits
}

// shouldReset reports whether the current epoch is about to end.  When the
// chain cannot be read it assumes it is not.
func (m *miner) shouldReset(ctx context.Context) bool {
	cfg, err := m.chain.Config(ctx)
	if err != nil {
		minrLog.Debugf("Unable to fetch config: %v", err)
		return false
	}
	clock, err := m.chain.GetClock(ctx)
	if err != nil {
		minrLog.Debugf("Unable to fetch clock: %v", err)
		return false
	}
	return utils.NeedsReset(cfg.LastResetAt, clock.UnixTimestamp)
}

// rewardSince returns the proof balance gained since the last call.
func (m *miner) rewardSince(ctx context.Context) uint64 {
	proof, err := m.chain.GetProof(ctx, m.authority)
	if err != nil {
		minrLog.Debugf("Unable to fetch proof: %v", err)
		return 0
	}
	var reward uint64
	if proof.Balance > m.balance {
		reward = proof.Balance - m.balance
	}
	m.balance = proof.Balance
	minrLog.Infof("Reward %.11f, balance %.11f",
		utils.AmountToUI(reward, constdef.TokenDecimals),
		utils.AmountToUI(proof.Balance, constdef.TokenDecimals))
	return reward
}

func reportSearch(res *hashengine.Result) {
	rate := hashengine.Progress{Elapsed: res.Elapsed, Hashes: res.Hashes}.HashRate()
	progress.finish("Best hash %v (difficulty %d) in %v, %s", solana.Hash(res.Hash.H),
		res.Difficulty, res.Elapsed.Truncate(time.Millisecond), formatHashRate(rate))
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
