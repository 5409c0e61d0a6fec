package do

import "time"

type MiningRecord struct {
	ID         uint64 `gorm:"primaryKey"`
	Mode       string `gorm:"type:varchar(8);not null;index"`
	Authority  string `gorm:"index:idx_authority;type:varchar(64);not null"`
	Challenge  string `gorm:"not null;type:varchar(64);index"`
	LastHashAt int64  `gorm:"not null;default:0"`
	Nonce      uint64 `gorm:"not null;default:0"`
	Difficulty uint32 `gorm:"not null;default:0"`
	Signature  string `gorm:"type:varchar(100);index"`
	Reward     uint64 `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
