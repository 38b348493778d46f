package service

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradejournal/internal/ledger"
	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// BalanceMutator is the single authority over trading_accounts.balance.
// All methods run against an account row already locked FOR UPDATE inside
// the caller's transaction, so the check-then-write below cannot race.
type BalanceMutator struct {
	Repo repository.Repository
}

// Debit takes amount out of the balance; it fails up front with
// ErrInsufficientFunds when the balance cannot cover it.
func (m *BalanceMutator) Debit(tx *gorm.DB, account *models.TradingAccount, amount decimal.Decimal) error {
	if m == nil || m.Repo == nil || account == nil {
		return nil
	}
	if amount.GreaterThan(account.Balance) {
		return ledger.ErrInsufficientFunds
	}
	account.Balance = account.Balance.Sub(amount)
	return m.Repo.SetAccountBalanceTx(tx, account.ID, account.Balance)
}

// Credit adds amount to the balance. It never fails.
func (m *BalanceMutator) Credit(tx *gorm.DB, account *models.TradingAccount, amount decimal.Decimal) error {
	if m == nil || m.Repo == nil || account == nil {
		return nil
	}
	account.Balance = account.Balance.Add(amount)
	return m.Repo.SetAccountBalanceTx(tx, account.ID, account.Balance)
}

// Settle applies a signed adjustment. It exists for futures settlement,
// where a loss beyond the committed margin legitimately drives the balance
// negative; conservation wins over a zero floor.
func (m *BalanceMutator) Settle(tx *gorm.DB, account *models.TradingAccount, delta decimal.Decimal) error {
	if m == nil || m.Repo == nil || account == nil {
		return nil
	}
	account.Balance = account.Balance.Add(delta)
	return m.Repo.SetAccountBalanceTx(tx, account.ID, account.Balance)
}
