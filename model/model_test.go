package model

import (
	"errors"
	"testing"

	"github.com/regolith-labs/ore-cli-sub000/drill"
	"github.com/regolith-labs/ore-cli-sub000/pooljson"
)

func TestConvertSolutionToDO(t *testing.T) {
	c := &Challenge{MinDifficulty: 0, LastHashAt: 1700000000}
	c.Challenge[0] = 0xff
	sol := drill.HashNonce(c.Challenge, 7)

	rec := ConvertSolutionToDO(ModeSolo, "auth", c, drill.NewSolution(sol.Digest, 7))
	if rec.Nonce != 7 || rec.Mode != ModeSolo || rec.LastHashAt != 1700000000 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Difficulty != sol.Difficulty() {
		t.Errorf("difficulty %d, want %d", rec.Difficulty, sol.Difficulty())
	}
	if !c.Accepts(drill.NewSolution(sol.Digest, 7)) {
		t.Error("valid solution rejected")
	}
	if ConvertSolutionToDO(ModePool, "auth", nil, drill.Solution{}) != nil {
		t.Error("nil challenge converted")
	}
}

func TestConvertSubmitResultToDO(t *testing.T) {
	t.Run("test_1", func(t *testing.T) {
		rec := ConvertSubmitResultToDO(&SubmitResult{Signature: "sig", Attempts: 3})
		if rec.Confirmed != 1 || rec.Attempts != 3 {
			t.Errorf("unexpected record %+v", rec)
		}
	})
	t.Run("test_2", func(t *testing.T) {
		rec := ConvertSubmitResultToDO(&SubmitResult{Err: errors.New("boom")})
		if rec.Confirmed != 0 || rec.Info != "boom" {
			t.Errorf("unexpected record %+v", rec)
		}
	})
}

func TestConvertEventResultToMiningEvent(t *testing.T) {
	ev := ConvertEventResultToMiningEvent(&pooljson.EventResult{
		Signature:    "sig",
		Timestamp:    1700000000,
		Difficulty:   21,
		MemberReward: 500,
	})
	if ev.Signature != "sig" || ev.Difficulty != 21 || ev.MemberReward != 500 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Timestamp.Unix() != 1700000000 {
		t.Errorf("timestamp %v", ev.Timestamp)
	}
	if ConvertEventResultToMiningEvent(nil) != nil {
		t.Error("nil event converted")
	}
}
