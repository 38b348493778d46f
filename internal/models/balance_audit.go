package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BalanceAudit is one run of the conservation check: for every account,
// the balance recomputed from first principles versus the stored scalar.
type BalanceAudit struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	RanAt           time.Time       `gorm:"type:timestamptz;not null;index"`
	AccountsChecked int             `gorm:"not null"`
	DriftCount      int             `gorm:"not null"`
	MaxAbsDrift     decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	// Details carries per-account expected/actual/drift rows.
	Details datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (BalanceAudit) TableName() string {
	return "balance_audits"
}
