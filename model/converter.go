package model

import (
	"encoding/hex"
	"time"

	"github.com/regolith-labs/ore-cli-sub000/dal/do"
	"github.com/regolith-labs/ore-cli-sub000/drill"
	"github.com/regolith-labs/ore-cli-sub000/pooljson"
)

const (
	ModeSolo = "solo"
	ModePool = "pool"
)

func ConvertSolutionToDO(mode string, authority string, challenge *Challenge,
	sol drill.Solution) *do.MiningRecord {

	if challenge == nil {
		return nil
	}
	return &do.MiningRecord{
		Mode:       mode,
		Authority:  authority,
		Challenge:  hex.EncodeToString(challenge.Challenge[:]),
		Nonce:      sol.NonceUint64(),
		Difficulty: sol.ToHash().Difficulty(),
		LastHashAt: challenge.LastHashAt,
	}
}

func ConvertSubmitResultToDO(result *SubmitResult) *do.TransactionRecord {
	if result == nil {
		return nil
	}
	rec := &do.TransactionRecord{
		Signature:   result.Signature,
		Attempts:    result.Attempts,
		PriorityFee: result.PriorityFee,
		Tip:         result.Tip,
		Confirmed:   1,
	}
	if result.Err != nil {
		rec.Confirmed = 0
		rec.Info = result.Err.Error()
	}
	return rec
}

func ConvertEventResultToMiningEvent(ev *pooljson.EventResult) *MiningEvent {
	if ev == nil {
		return nil
	}
	return &MiningEvent{
		Signature:        ev.Signature,
		Block:            ev.Block,
		Timestamp:        time.Unix(ev.Timestamp, 0),
		Difficulty:       ev.Difficulty,
		MemberDifficulty: ev.MemberDifficulty,
		NetReward:        ev.NetReward,
		MemberReward:     ev.MemberReward,
	}
}
