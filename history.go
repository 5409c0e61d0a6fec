package main

import (
	"context"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
	"github.com/regolith-labs/ore-cli-sub000/dal"
	"github.com/regolith-labs/ore-cli-sub000/dal/do"
	"github.com/regolith-labs/ore-cli-sub000/drill"
	"github.com/regolith-labs/ore-cli-sub000/model"
	"github.com/regolith-labs/ore-cli-sub000/service"
	"github.com/regolith-labs/ore-cli-sub000/utils"
)

// historyRecorder writes the mining history when a database is configured.
// A nil recorder records nothing.  Recording failures are logged and never
// interrupt mining.
type historyRecorder struct {
	svc       service.HistoryService
	mode      string
	authority string
}

func newHistoryRecorder(dbCfg *dal.DBConfig, autoCreate bool, mode, authority string) (*historyRecorder, error) {
	if dbCfg == nil {
		minrLog.Debug("No history database configured")
		return nil, nil
	}
	if err := dal.InitDB(dbCfg, autoCreate); err != nil {
		return nil, err
	}
	return &historyRecorder{
		svc:       service.GetHistoryService(),
		mode:      mode,
		authority: authority,
	}, nil
}

func (h *historyRecorder) solution(ctx context.Context, challenge *model.Challenge, sol drill.Solution) *do.MiningRecord {
	if h == nil {
		return nil
	}
	record, err := h.svc.RecordSolution(ctx, dal.GetDB(ctx), h.mode, h.authority, challenge, sol)
	if err != nil {
		minrLog.Warnf("Unable to record solution: %v", err)
		return nil
	}
	return record
}

func (h *historyRecorder) submitResult(ctx context.Context, record *do.MiningRecord, result *model.SubmitResult) {
	if h == nil || result == nil {
		return
	}
	if err := h.svc.RecordSubmitResult(ctx, dal.GetDB(ctx), record, result); err != nil {
		minrLog.Warnf("Unable to record transaction %v: %v", result.Signature, err)
	}
}

func (h *historyRecorder) poolEvent(ctx context.Context, record *do.MiningRecord, event *model.MiningEvent) {
	if h == nil {
		return
	}
	if err := h.svc.RecordPoolEvent(ctx, dal.GetDB(ctx), record, event); err != nil {
		minrLog.Warnf("Unable to record pool event %v: %v", event.Signature, err)
	}
}

// summary logs the recorded totals of the authority.
func (h *historyRecorder) summary(ctx context.Context) {
	if h == nil {
		return
	}
	total, err := h.svc.GetTotalReward(ctx, dal.GetDB(ctx), h.authority)
	if err != nil {
		minrLog.Warnf("Unable to read mining history: %v", err)
		return
	}
	recent, err := h.svc.GetRecent(ctx, dal.GetDB(ctx), h.authority, 1)
	if err != nil || len(recent) == 0 {
		minrLog.Infof("Recorded rewards of %v: %.11f", utils.ShortKey(h.authority),
			utils.AmountToUI(total, constdef.TokenDecimals))
		return
	}
	minrLog.Infof("Recorded rewards of %v: %.11f, last solution at %v (difficulty %d)",
		utils.ShortKey(h.authority), utils.AmountToUI(total, constdef.TokenDecimals),
		recent[0].CreatedAt.Format("2006-01-02 15:04:05"), recent[0].Difficulty)
}
