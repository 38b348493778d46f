package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FillBuy  = "BUY"
	FillSell = "SELL"
)

// SpotFill is one row of a position's append-only fill log. The opening buy
// is recorded here too, so buy-side fees aggregate from a single table.
// Fills are never edited or deleted on their own; they go away only when the
// whole position is deleted under the ledger's delete rules.
type SpotFill struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	SpotPositionID uint64 `gorm:"not null;index"`

	Type     string          `gorm:"type:varchar(10);not null;index"`
	Price    decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Quantity decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Fee      decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	// RealizedPnL is set on SELL fills only, net of fee. A closing sell
	// realizes the full remaining cost basis, dust included.
	RealizedPnL *decimal.Decimal `gorm:"column:realized_pnl;type:numeric(30,10)"`

	Notes      *string `gorm:"type:text"`
	Screenshot *string `gorm:"type:varchar(255)"`

	FilledAt  time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (SpotFill) TableName() string {
	return "spot_fills"
}
