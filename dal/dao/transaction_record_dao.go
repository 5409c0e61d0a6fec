package dao

import (
	"context"
	"errors"

	"github.com/regolith-labs/ore-cli-sub000/dal/do"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/utils"

	"gorm.io/gorm"
)

type TransactionRecordDAO interface {
	Create(ctx context.Context, tx *gorm.DB, record *do.TransactionRecord) (int64, error)
	GetBySignature(ctx context.Context, tx *gorm.DB, signature string) (*do.TransactionRecord, error)
	GetFailed(ctx context.Context, tx *gorm.DB, limit int) ([]*do.TransactionRecord, error)
}

type TransactionRecordDAOImpl struct{}

var transactionRecordDAO TransactionRecordDAO = &TransactionRecordDAOImpl{}

func GetTransactionRecordDAOImpl() TransactionRecordDAO {
	return transactionRecordDAO
}

func (m *TransactionRecordDAOImpl) Create(ctx context.Context, tx *gorm.DB, record *do.TransactionRecord) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	if record == nil {
		return 0, errors.New("nil transaction record when creating")
	}

	query := tx.Create(record)
	return query.RowsAffected, query.Error
}

func (m *TransactionRecordDAOImpl) GetBySignature(ctx context.Context, tx *gorm.DB, signature string) (*do.TransactionRecord, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	if utils.IsBlank(signature) {
		return nil, errors.New("internal error: blank signature")
	}

	var res do.TransactionRecord
	query := tx.Model(&do.TransactionRecord{}).Where("signature = ?", signature).Take(&res)
	if query.Error != nil {
		return nil, query.Error
	}
	return &res, nil
}

func (m *TransactionRecordDAOImpl) GetFailed(ctx context.Context, tx *gorm.DB, limit int) ([]*do.TransactionRecord, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	var res []*do.TransactionRecord
	query := tx.Model(&do.TransactionRecord{}).Where("confirmed = ?", 0).Order("id desc").Limit(limit).Find(&res)
	return res, query.Error
}
