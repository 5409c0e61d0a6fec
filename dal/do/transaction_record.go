package do

import "time"

type TransactionRecord struct {
	ID          uint64 `gorm:"primaryKey"`
	Signature   string `gorm:"type:varchar(100);not null;index"`
	Attempts    int    `gorm:"not null;default:0"`
	PriorityFee uint64 `gorm:"not null;default:0"`
	Tip         uint64 `gorm:"not null;default:0"`
	Confirmed   int    `gorm:"not null;default:0"`
	Info        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
