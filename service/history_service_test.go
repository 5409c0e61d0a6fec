package service

import (
	"context"
	"errors"
	"testing"

	"github.com/regolith-labs/ore-cli-sub000/dal/dao"
	"github.com/regolith-labs/ore-cli-sub000/dal/do"
	"github.com/regolith-labs/ore-cli-sub000/drill"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/model"

	"gorm.io/gorm"
)

type memMiningRecordDAO struct {
	dao.MiningRecordDAO
	records []*do.MiningRecord
	rewards map[uint64]uint64
}

func (m *memMiningRecordDAO) Create(ctx context.Context, tx *gorm.DB, record *do.MiningRecord) (int64, error) {
	record.ID = uint64(len(m.records) + 1)
	m.records = append(m.records, record)
	return 1, nil
}

func (m *memMiningRecordDAO) SetReward(ctx context.Context, tx *gorm.DB, id uint64, signature string, reward uint64) (int64, error) {
	if m.rewards == nil {
		m.rewards = make(map[uint64]uint64)
	}
	m.rewards[id] = reward
	return 1, nil
}

func TestHistoryServiceImpl_RecordSolution(t *testing.T) {
	records := &memMiningRecordDAO{}
	h := &HistoryServiceImpl{
		miningRecordDao:      records,
		transactionRecordDao: dao.GetTransactionRecordDAOImpl(),
	}
	ctx := context.Background()
	c := &model.Challenge{LastHashAt: 1}
	sol := drill.NewSolution(drill.HashNonce(c.Challenge, 9).Digest, 9)

	t.Run("test_1", func(t *testing.T) {
		rec, err := h.RecordSolution(ctx, nil, model.ModePool, "auth", c, sol)
		if err != nil {
			t.Fatal(err.Error())
		}
		if rec.ID != 1 || rec.Nonce != 9 {
			t.Errorf("unexpected record %+v", rec)
		}
		err = h.RecordPoolEvent(ctx, nil, rec, &model.MiningEvent{Signature: "sig", MemberReward: 77})
		if err != nil {
			t.Error(err.Error())
		}
		if records.rewards[1] != 77 {
			t.Errorf("reward %d, want 77", records.rewards[1])
		}
	})

	t.Run("test_2", func(t *testing.T) {
		if _, err := h.RecordSolution(ctx, nil, model.ModeSolo, "auth", nil, sol); err == nil {
			t.Error("nil challenge recorded")
		}
	})

	t.Run("test_3", func(t *testing.T) {
		err := h.RecordSubmitResult(ctx, nil, nil, &model.SubmitResult{Signature: "sig"})
		if !errors.Is(err, errcode.ErrNilGormDB) {
			t.Errorf("got %v", err)
		}
	})
}
