package service

import (
	"context"
	"errors"

	"github.com/regolith-labs/ore-cli-sub000/dal/dao"
	"github.com/regolith-labs/ore-cli-sub000/dal/do"
	"github.com/regolith-labs/ore-cli-sub000/drill"
	"github.com/regolith-labs/ore-cli-sub000/model"

	"gorm.io/gorm"
)

// HistoryService records what the miner submitted and what it earned.
type HistoryService interface {
	RecordSolution(ctx context.Context, tx *gorm.DB, mode string, authority string,
		challenge *model.Challenge, sol drill.Solution) (*do.MiningRecord, error)
	RecordSubmitResult(ctx context.Context, tx *gorm.DB, record *do.MiningRecord, result *model.SubmitResult) error
	RecordPoolEvent(ctx context.Context, tx *gorm.DB, record *do.MiningRecord, event *model.MiningEvent) error
	GetRecent(ctx context.Context, tx *gorm.DB, authority string, limit int) ([]*do.MiningRecord, error)
	GetTotalReward(ctx context.Context, tx *gorm.DB, authority string) (uint64, error)
	GetRecordCount(ctx context.Context, tx *gorm.DB, authority string) (int64, error)
	GetTransaction(ctx context.Context, tx *gorm.DB, signature string) (*do.TransactionRecord, error)
	GetFailedTransactions(ctx context.Context, tx *gorm.DB, limit int) ([]*do.TransactionRecord, error)
}

type HistoryServiceImpl struct {
	miningRecordDao      dao.MiningRecordDAO
	transactionRecordDao dao.TransactionRecordDAO
}

var historyService HistoryService = &HistoryServiceImpl{
	miningRecordDao:      dao.GetMiningRecordDAOImpl(),
	transactionRecordDao: dao.GetTransactionRecordDAOImpl(),
}

func GetHistoryService() HistoryService {
	return historyService
}

func (h *HistoryServiceImpl) RecordSolution(ctx context.Context, tx *gorm.DB, mode string, authority string,
	challenge *model.Challenge, sol drill.Solution) (*do.MiningRecord, error) {

	record := model.ConvertSolutionToDO(mode, authority, challenge, sol)
	if record == nil {
		return nil, errors.New("nil challenge when recording solution")
	}
	_, err := h.miningRecordDao.Create(ctx, tx, record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RecordSubmitResult stores the transaction and, when it confirmed, links its
// signature to the mining record in the same database transaction.
func (h *HistoryServiceImpl) RecordSubmitResult(ctx context.Context, tx *gorm.DB, record *do.MiningRecord,
	result *model.SubmitResult) error {

	txRecord := model.ConvertSubmitResultToDO(result)
	if txRecord == nil {
		return errors.New("nil submit result")
	}
	if tx == nil {
		_, err := h.transactionRecordDao.Create(ctx, tx, txRecord)
		return err
	}
	return tx.Transaction(func(dbTx *gorm.DB) error {
		if _, err := h.transactionRecordDao.Create(ctx, dbTx, txRecord); err != nil {
			return err
		}
		if record == nil || txRecord.Confirmed == 0 {
			return nil
		}
		_, err := h.miningRecordDao.SetReward(ctx, dbTx, record.ID, result.Signature, record.Reward)
		return err
	})
}

func (h *HistoryServiceImpl) RecordPoolEvent(ctx context.Context, tx *gorm.DB, record *do.MiningRecord,
	event *model.MiningEvent) error {

	if record == nil || event == nil {
		return nil
	}
	_, err := h.miningRecordDao.SetReward(ctx, tx, record.ID, event.Signature, event.MemberReward)
	return err
}

func (h *HistoryServiceImpl) GetRecent(ctx context.Context, tx *gorm.DB, authority string, limit int) ([]*do.MiningRecord, error) {
	return h.miningRecordDao.GetByAuthority(ctx, tx, authority, limit)
}

func (h *HistoryServiceImpl) GetTotalReward(ctx context.Context, tx *gorm.DB, authority string) (uint64, error) {
	return h.miningRecordDao.TotalReward(ctx, tx, authority)
}

func (h *HistoryServiceImpl) GetRecordCount(ctx context.Context, tx *gorm.DB, authority string) (int64, error) {
	return h.miningRecordDao.GetRecordNum(ctx, tx, authority)
}

func (h *HistoryServiceImpl) GetTransaction(ctx context.Context, tx *gorm.DB, signature string) (*do.TransactionRecord, error) {
	return h.transactionRecordDao.GetBySignature(ctx, tx, signature)
}

// GetFailedTransactions lists the newest transactions that never confirmed.
func (h *HistoryServiceImpl) GetFailedTransactions(ctx context.Context, tx *gorm.DB, limit int) ([]*do.TransactionRecord, error) {
	return h.transactionRecordDao.GetFailed(ctx, tx, limit)
}
