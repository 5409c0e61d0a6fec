package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/dal/do"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/hashengine"
	"github.com/regolith-labs/ore-cli-sub000/model"
	"github.com/regolith-labs/ore-cli-sub000/poolclient"
	"github.com/regolith-labs/ore-cli-sub000/pooljson"
	"github.com/regolith-labs/ore-cli-sub000/utils"
)

const (
	// staleBackoff is the pause after the pool kept serving a stale
	// challenge.
	staleBackoff = 5 * time.Second

	// solutionStreamSize buffers streamed solutions between the search
	// workers and the contributor queue.
	solutionStreamSize = 64
)

// poolMember returns the member record of the miner, registering with the
// pool when it does not know the miner yet.
func (m *miner) poolMember(ctx context.Context, api *poolclient.API) (*pooljson.MemberResult, error) {
	authority := m.authority.String()
	member, err := api.Member(ctx, authority)
	if err == nil {
		return member, nil
	}
	if !poolclient.IsStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("unable to fetch pool member: %w", err)
	}
	minrLog.Infof("Registering %v with the pool", utils.ShortKey(authority))
	member, err = api.Register(ctx, authority)
	if err != nil {
		return nil, fmt.Errorf("unable to register with pool: %w", err)
	}
	return member, nil
}

func (m *miner) runPool(ctx context.Context) error {
	api := poolclient.NewAPI(m.cfg.PoolURL, m.httpClient)
	api.UserAgent = utils.GetNodeDesc(version())

	poolAddr, err := api.PoolAddress(ctx)
	if err != nil {
		return fmt.Errorf("unable to reach pool %v: %w", m.cfg.PoolURL, err)
	}
	member, err := m.poolMember(ctx, api)
	if err != nil {
		return err
	}
	minrLog.Infof("Pool %v, member %d, balance %.11f", poolAddr, member.ID,
		utils.AmountToUI(uint64(member.TotalBalance), constdef.TokenDecimals))

	contributor, err := poolclient.NewContributor(api, m.signer, m.cfg.ContributeRate, nil)
	if err != nil {
		return err
	}
	contributor.Start(ctx)
	defer contributor.Stop()

	// Event lookups outlive the search that triggered them.
	var events sync.WaitGroup
	defer events.Wait()

	source := poolclient.NewChallengeSource(api, m.authority.String(), uint64(member.ID), m.cfg.StaleRetries)
	var lastHashAt int64
	for {
		challenge, err := source.NextChallenge(ctx, lastHashAt)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, errcode.ErrStaleChallenge):
			minrLog.Warnf("Pool challenge is stale, backing off for %v", staleBackoff)
			if !sleepCtx(ctx, staleBackoff) {
				return ctx.Err()
			}
			continue
		default:
			minrLog.Warnf("%v", err)
			if !sleepCtx(ctx, retryDelay) {
				return ctx.Err()
			}
			continue
		}
		lastHashAt = challenge.LastHashAt

		record, err := m.minePool(ctx, contributor, challenge)
		if err != nil {
			return err
		}
		sent, failed := contributor.Stats()
		minrLog.Debugf("Contributions so far: %d sent, %d failed", sent, failed)

		events.Add(1)
		go func() {
			defer events.Done()
			defer utils.MyRecover()
			m.followPoolEvent(ctx, api, record)
		}()
	}
}

// minePool searches the slice of the nonce space this device owns, streaming
// every improvement to the pool, then queues the final best.  Only
// cancellation, a device id the pool cannot place and a failed search are
// returned.
func (m *miner) minePool(ctx context.Context, contributor *poolclient.Contributor,
	challenge *model.Challenge) (*do.MiningRecord, error) {

	starts, err := hashengine.PoolStartNonces(hashengine.PoolAssignment{
		Members:     challenge.NumMembers,
		MemberIndex: challenge.MemberIndex,
		Devices:     uint64(challenge.NumDevices),
		DeviceID:    m.cfg.DeviceID,
	}, m.cfg.workers)
	if err != nil {
		return nil, err
	}
	cutoff := utils.Cutoff(challenge.LastHashAt, time.Now().Unix(), m.cfg.BufferTime)

	stream, stopStream := contributor.Stream(challenge, solutionStreamSize)
	res, err := m.search(ctx, hashengine.Config{
		Challenge:     challenge.Challenge,
		MinDifficulty: challenge.MinDifficulty,
		Cutoff:        cutoff,
		StartNonces:   starts,
		Cores:         hashengine.CoreIDs(m.cfg.workers),
		Solutions:     stream,
		OnProgress:    progress.searchProgress,
	})
	stopStream()
	if err != nil {
		return nil, err
	}
	reportSearch(res)

	contributor.Submit(challenge, res.Solution)
	return m.history.solution(ctx, challenge, res.Solution), nil
}

// followPoolEvent reports the outcome of the last pool submission and
// answers a commit request carried by it.
func (m *miner) followPoolEvent(ctx context.Context, api *poolclient.API, record *do.MiningRecord) {
	res, err := api.LatestEvent(ctx, m.authority.String())
	if err != nil {
		if ctx.Err() == nil {
			minrLog.Debugf("No pool event: %v", err)
		}
		return
	}
	event := model.ConvertEventResultToMiningEvent(res)
	minrLog.Infof("Pool landed %v: difficulty %d (yours %d), reward %.11f (yours %.11f)",
		utils.ShortKey(event.Signature), event.Difficulty, event.MemberDifficulty,
		utils.AmountToUI(event.NetReward, constdef.TokenDecimals),
		utils.AmountToUI(event.MemberReward, constdef.TokenDecimals))
	m.history.poolEvent(ctx, record, event)

	if res.CommitRequest != "" {
		if err := m.commit(ctx, api, res.CommitRequest); err != nil {
			minrLog.Warnf("Unable to commit pool balance: %v", err)
		}
	}
}

// commit co-signs the balance update transaction prepared by the pool and
// hands it back.
func (m *miner) commit(ctx context.Context, api *poolclient.API, encoded string) error {
	tx, err := solana.TransactionFromBase64(encoded)
	if err != nil {
		return fmt.Errorf("malformed commit request: %w", err)
	}
	_, err = tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(m.authority) {
			return &m.signer
		}
		return nil
	})
	if err != nil {
		return err
	}
	signed, err := tx.ToBase64()
	if err != nil {
		return err
	}
	res, err := api.Commit(ctx, pooljson.NewCommitCmd(m.authority.String(), signed,
		tx.Message.RecentBlockhash.String()))
	if err != nil {
		return err
	}
	minrLog.Infof("Committed pool balance %.11f", utils.AmountToUI(res.Balance, constdef.TokenDecimals))
	return nil
}
