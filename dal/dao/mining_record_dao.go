package dao

import (
	"context"
	"errors"

	"github.com/regolith-labs/ore-cli-sub000/dal/do"
	"github.com/regolith-labs/ore-cli-sub000/errcode"
	"github.com/regolith-labs/ore-cli-sub000/utils"

	"gorm.io/gorm"
)

type MiningRecordDAO interface {
	Create(ctx context.Context, tx *gorm.DB, record *do.MiningRecord) (int64, error)
	GetByAuthority(ctx context.Context, tx *gorm.DB, authority string, limit int) ([]*do.MiningRecord, error)
	GetRecordNum(ctx context.Context, tx *gorm.DB, authority string) (int64, error)
	SetReward(ctx context.Context, tx *gorm.DB, id uint64, signature string, reward uint64) (int64, error)
	TotalReward(ctx context.Context, tx *gorm.DB, authority string) (uint64, error)
}

type MiningRecordDAOImpl struct{}

var miningRecordDAO MiningRecordDAO = &MiningRecordDAOImpl{}

func GetMiningRecordDAOImpl() MiningRecordDAO {
	return miningRecordDAO
}

func (m *MiningRecordDAOImpl) Create(ctx context.Context, tx *gorm.DB, record *do.MiningRecord) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	if record == nil {
		return 0, errors.New("nil mining record when creating")
	}

	query := tx.Create(record)
	return query.RowsAffected, query.Error
}

func (m *MiningRecordDAOImpl) GetByAuthority(ctx context.Context, tx *gorm.DB, authority string, limit int) ([]*do.MiningRecord, error) {
	if tx == nil {
		return nil, errcode.ErrNilGormDB
	}

	if utils.IsBlank(authority) {
		return nil, errors.New("internal error: blank authority")
	}

	var res []*do.MiningRecord
	query := tx.Model(&do.MiningRecord{}).Where("authority = ?", authority).Order("id desc").Limit(limit).Find(&res)
	return res, query.Error
}

func (m *MiningRecordDAOImpl) GetRecordNum(ctx context.Context, tx *gorm.DB, authority string) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	var res int64
	query := tx.Model(&do.MiningRecord{}).Where("authority = ?", authority).Count(&res)
	return res, query.Error
}

func (m *MiningRecordDAOImpl) SetReward(ctx context.Context, tx *gorm.DB, id uint64, signature string, reward uint64) (int64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	query := tx.Model(&do.MiningRecord{}).Where("id = ?", id).
		Updates(do.MiningRecord{Signature: signature, Reward: reward})
	return query.RowsAffected, query.Error
}

func (m *MiningRecordDAOImpl) TotalReward(ctx context.Context, tx *gorm.DB, authority string) (uint64, error) {
	if tx == nil {
		return 0, errcode.ErrNilGormDB
	}

	var total uint64
	query := tx.Model(&do.MiningRecord{}).Select("COALESCE(SUM(reward), 0)").
		Where("authority = ?", authority).Scan(&total)
	return total, query.Error
}
