package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CashDeposit  = "DEPOSIT"
	CashWithdraw = "WITHDRAW"
)

// CashTransaction is one row of the append-only deposit/withdraw log.
// Rows are never updated or deleted; the account balance change is committed
// in the same transaction that inserts the row.
type CashTransaction struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	TradingAccountID uint64 `gorm:"not null;index"`

	Type   string          `gorm:"type:varchar(10);not null;index"`
	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Date  time.Time `gorm:"type:timestamptz;not null;index"`
	Notes *string   `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (CashTransaction) TableName() string {
	return "cash_transactions"
}
