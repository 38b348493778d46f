package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SpotOpen   = "OPEN"
	SpotClosed = "CLOSED"
)

// SpotPosition is the parent aggregate of a spot holding. AvgEntryPrice and
// RemainingQuantity are weighted-average aggregates recomputed on every BUY
// fill; SELL fills only reduce quantity and accumulate RealizedPnL.
// The row transitions to CLOSED when the remaining quantity reaches zero
// within the configured epsilon and is never reopened.
type SpotPosition struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	TradingAccountID uint64 `gorm:"not null;index"`

	Symbol string `gorm:"type:varchar(30);not null;index"`
	Status string `gorm:"type:varchar(10);not null;default:'OPEN';index"`

	AvgEntryPrice     decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	RemainingQuantity decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	// RealizedPnL is cumulative across all exits, net of sell fees.
	RealizedPnL decimal.Decimal `gorm:"column:realized_pnl;type:numeric(30,10);not null;default:0"`

	TargetBuyPrice  *decimal.Decimal `gorm:"type:numeric(30,10)"`
	TargetSellPrice *decimal.Decimal `gorm:"type:numeric(30,10)"`
	HoldingPeriod   *string          `gorm:"type:varchar(50)"`
	Notes           *string          `gorm:"type:text"`

	OpenedAt       time.Time `gorm:"type:timestamptz;not null;index"`
	LastActivityAt time.Time `gorm:"type:timestamptz;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SpotPosition) TableName() string {
	return "spot_positions"
}
