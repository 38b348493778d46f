package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account strategy classification.
const (
	StrategySpot    = "SPOT"
	StrategyFutures = "FUTURES"
)

// TradingAccount holds a single cash balance in its declared currency.
// Balance is the only persisted cash value; it is mutated exclusively by
// the ledger's balance mutator, always inside the same transaction as the
// event that justifies the change.
type TradingAccount struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`

	Name         string `gorm:"type:varchar(100);not null"`
	Exchange     string `gorm:"type:varchar(50)"`
	Currency     string `gorm:"type:varchar(10);not null;default:'USD'"`
	MarketType   string `gorm:"type:varchar(20);not null;index"`
	StrategyType string `gorm:"type:varchar(10);not null;index"`

	// InitialBalance is the seed recorded at setup; it never changes and
	// anchors the conservation audit.
	InitialBalance decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	Balance        decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (TradingAccount) TableName() string {
	return "trading_accounts"
}
