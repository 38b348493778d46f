package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FuturesOpen      = "OPEN"
	FuturesClosed    = "CLOSED"
	FuturesCancelled = "CANCELLED"

	DirectionLong  = "LONG"
	DirectionShort = "SHORT"

	MarginCross    = "CROSS"
	MarginIsolated = "ISOLATED"
)

// FuturesPosition is a whole leveraged position lifecycle in one record:
// opened with committed margin, then exactly one transition to CLOSED (PnL
// settled against the balance) or CANCELLED (margin returned untouched).
// Terminal rows are never mutated again.
type FuturesPosition struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	TradingAccountID uint64 `gorm:"not null;index"`

	Symbol     string  `gorm:"type:varchar(30);not null;index"`
	Direction  string  `gorm:"type:varchar(10);not null"`
	Leverage   int     `gorm:"not null;default:1"`
	MarginMode string  `gorm:"type:varchar(10);not null;default:'CROSS'"`
	OrderType  *string `gorm:"type:varchar(20)"`

	EntryPrice decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Quantity   decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Margin     decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	TakeProfit *decimal.Decimal `gorm:"type:numeric(30,10)"`
	StopLoss   *decimal.Decimal `gorm:"type:numeric(30,10)"`

	Status    string           `gorm:"type:varchar(10);not null;default:'OPEN';index"`
	ExitPrice *decimal.Decimal `gorm:"type:numeric(30,10)"`
	// Fee is the close fee; nothing is charged at open.
	Fee        decimal.Decimal  `gorm:"type:numeric(30,10);not null;default:0"`
	PnL        *decimal.Decimal `gorm:"column:pnl;type:numeric(30,10)"`
	ExitReason *string          `gorm:"type:varchar(50)"`
	Notes      *string          `gorm:"type:text"`

	EnteredAt time.Time  `gorm:"type:timestamptz;not null;index"`
	ExitedAt  *time.Time `gorm:"type:timestamptz;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (FuturesPosition) TableName() string {
	return "futures_positions"
}
