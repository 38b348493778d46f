package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradejournal/internal/ledger"
	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// LedgerService executes every balance-affecting command. Each operation is
// one unit of work: per-account lock, transaction, row lock, pure
// calculation, then exactly one balance mutation committed together with
// exactly one position/ledger row write. Any error aborts the whole thing.
type LedgerService struct {
	Repo    repository.Repository
	Locks   *ledger.AccountLocks
	Calc    ledger.Calculator
	Mutator *BalanceMutator
	Logger  *zap.Logger
}

func NewLedgerService(repo repository.Repository, locks *ledger.AccountLocks, calc ledger.Calculator, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		Repo:    repo,
		Locks:   locks,
		Calc:    calc,
		Mutator: &BalanceMutator{Repo: repo},
		Logger:  logger,
	}
}

func (s *LedgerService) withAccount(ctx context.Context, accountID uint64, fn func(tx *gorm.DB, account *models.TradingAccount) error) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	if accountID == 0 {
		return ledger.ErrNotFound
	}
	if s.Locks != nil {
		release, err := s.Locks.Acquire(ctx, accountID)
		if err != nil {
			return err
		}
		defer release()
	}
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		account, err := s.Repo.GetAccountForUpdateTx(tx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return ledger.ErrNotFound
		}
		return fn(tx, account)
	})
}

// --- Cash ledger ------------------------------------------------------------

type CashCmd struct {
	AccountID uint64
	Amount    decimal.Decimal
	Date      time.Time
	Notes     *string
}

func (s *LedgerService) Deposit(ctx context.Context, cmd CashCmd) (*models.CashTransaction, error) {
	if err := ledger.ValidateAmount(cmd.Amount); err != nil {
		return nil, err
	}
	item := &models.CashTransaction{
		TradingAccountID: cmd.AccountID,
		Type:             models.CashDeposit,
		Amount:           cmd.Amount,
		Date:             cmd.Date.UTC(),
		Notes:            cmd.Notes,
	}
	err := s.withAccount(ctx, cmd.AccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		if err := s.Mutator.Credit(tx, account, cmd.Amount); err != nil {
			return err
		}
		return s.Repo.InsertCashTransactionTx(tx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, cmd CashCmd) (*models.CashTransaction, error) {
	if err := ledger.ValidateAmount(cmd.Amount); err != nil {
		return nil, err
	}
	item := &models.CashTransaction{
		TradingAccountID: cmd.AccountID,
		Type:             models.CashWithdraw,
		Amount:           cmd.Amount,
		Date:             cmd.Date.UTC(),
		Notes:            cmd.Notes,
	}
	err := s.withAccount(ctx, cmd.AccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		if err := s.Mutator.Debit(tx, account, cmd.Amount); err != nil {
			return err
		}
		return s.Repo.InsertCashTransactionTx(tx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// --- Spot -------------------------------------------------------------------

type OpenSpotCmd struct {
	AccountID       uint64
	Symbol          string
	Price           decimal.Decimal
	Quantity        decimal.Decimal
	Fee             decimal.Decimal
	Date            time.Time
	TargetBuyPrice  *decimal.Decimal
	TargetSellPrice *decimal.Decimal
	HoldingPeriod   *string
	Notes           *string
	Screenshot      *string
}

// OpenSpot creates a position from its first buy. The opening buy is
// recorded as a fill so the fill log is the complete history.
func (s *LedgerService) OpenSpot(ctx context.Context, cmd OpenSpotCmd) (*models.SpotPosition, error) {
	if err := ledger.ValidateFill(cmd.Price, cmd.Quantity, cmd.Fee); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(cmd.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", ledger.ErrValidation)
	}

	buy := s.Calc.ApplyBuy(decimal.Zero, decimal.Zero, cmd.Price, cmd.Quantity, cmd.Fee)
	date := cmd.Date.UTC()
	position := &models.SpotPosition{
		TradingAccountID:  cmd.AccountID,
		Symbol:            symbol,
		Status:            models.SpotOpen,
		AvgEntryPrice:     buy.AvgEntryPrice,
		RemainingQuantity: buy.RemainingQuantity,
		RealizedPnL:       decimal.Zero,
		TargetBuyPrice:    cmd.TargetBuyPrice,
		TargetSellPrice:   cmd.TargetSellPrice,
		HoldingPeriod:     cmd.HoldingPeriod,
		Notes:             cmd.Notes,
		OpenedAt:          date,
		LastActivityAt:    date,
	}

	err := s.withAccount(ctx, cmd.AccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		if err := s.Mutator.Debit(tx, account, buy.Outlay); err != nil {
			return err
		}
		if err := s.Repo.InsertSpotPositionTx(tx, position); err != nil {
			return err
		}
		return s.Repo.InsertSpotFillTx(tx, &models.SpotFill{
			SpotPositionID: position.ID,
			Type:           models.FillBuy,
			Price:          cmd.Price,
			Quantity:       cmd.Quantity,
			Fee:            cmd.Fee,
			Screenshot:     cmd.Screenshot,
			FilledAt:       date,
		})
	})
	if err != nil {
		return nil, err
	}
	return position, nil
}

type FillSpotCmd struct {
	PositionID uint64
	Type       string
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Fee        decimal.Decimal
	Date       time.Time
	Notes      *string
	Screenshot *string
}

// FillSpot applies a DCA buy or a partial/full sell against an open
// position. The weighted average moves only on buys; sells realize PnL on
// the sold portion and close the position when the remainder is dust.
func (s *LedgerService) FillSpot(ctx context.Context, cmd FillSpotCmd) (*models.SpotFill, error) {
	fillType := strings.ToUpper(strings.TrimSpace(cmd.Type))
	if fillType != models.FillBuy && fillType != models.FillSell {
		return nil, fmt.Errorf("%w: fill type must be BUY or SELL", ledger.ErrValidation)
	}
	if err := ledger.ValidateFill(cmd.Price, cmd.Quantity, cmd.Fee); err != nil {
		return nil, err
	}

	// Unlocked read to learn which account to serialize on; the row is
	// re-read under lock inside the transaction.
	peek, err := s.Repo.GetSpotPositionByID(ctx, cmd.PositionID)
	if err != nil {
		return nil, err
	}
	if peek == nil {
		return nil, ledger.ErrNotFound
	}

	date := cmd.Date.UTC()
	fill := &models.SpotFill{
		SpotPositionID: cmd.PositionID,
		Type:           fillType,
		Price:          cmd.Price,
		Quantity:       cmd.Quantity,
		Fee:            cmd.Fee,
		Notes:          cmd.Notes,
		Screenshot:     cmd.Screenshot,
		FilledAt:       date,
	}

	err = s.withAccount(ctx, peek.TradingAccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		position, err := s.Repo.GetSpotPositionForUpdateTx(tx, cmd.PositionID)
		if err != nil {
			return err
		}
		if position == nil {
			return ledger.ErrNotFound
		}
		if position.Status != models.SpotOpen {
			return ledger.ErrInvalidState
		}

		if fillType == models.FillBuy {
			buy := s.Calc.ApplyBuy(position.AvgEntryPrice, position.RemainingQuantity, cmd.Price, cmd.Quantity, cmd.Fee)
			if err := s.Mutator.Debit(tx, account, buy.Outlay); err != nil {
				return err
			}
			if err := s.Repo.UpdateSpotPositionTx(tx, position.ID, map[string]any{
				"avg_entry_price":    buy.AvgEntryPrice,
				"remaining_quantity": buy.RemainingQuantity,
				"last_activity_at":   date,
			}); err != nil {
				return err
			}
			return s.Repo.InsertSpotFillTx(tx, fill)
		}

		sell, err := s.Calc.ApplySell(position.AvgEntryPrice, position.RemainingQuantity, cmd.Price, cmd.Quantity, cmd.Fee)
		if err != nil {
			return err
		}
		if err := s.Mutator.Credit(tx, account, sell.Proceeds); err != nil {
			return err
		}
		status := models.SpotOpen
		if sell.Closed {
			status = models.SpotClosed
		}
		if err := s.Repo.UpdateSpotPositionTx(tx, position.ID, map[string]any{
			"remaining_quantity": sell.RemainingQuantity,
			"realized_pnl":       position.RealizedPnL.Add(sell.RealizedPnL),
			"status":             status,
			"last_activity_at":   date,
		}); err != nil {
			return err
		}
		pnl := sell.RealizedPnL
		fill.RealizedPnL = &pnl
		return s.Repo.InsertSpotFillTx(tx, fill)
	})
	if err != nil {
		return nil, err
	}
	return fill, nil
}

// DeleteSpotPosition removes a position and refunds its buy outlay. Only
// allowed while the position is OPEN with no sells: once PnL has been
// realized, removing the fills would double-count it against the balance.
func (s *LedgerService) DeleteSpotPosition(ctx context.Context, positionID uint64) error {
	peek, err := s.Repo.GetSpotPositionByID(ctx, positionID)
	if err != nil {
		return err
	}
	if peek == nil {
		return ledger.ErrNotFound
	}
	return s.withAccount(ctx, peek.TradingAccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		position, err := s.Repo.GetSpotPositionForUpdateTx(tx, positionID)
		if err != nil {
			return err
		}
		if position == nil {
			return ledger.ErrNotFound
		}
		if position.Status != models.SpotOpen {
			return ledger.ErrInvalidState
		}
		sells, err := s.Repo.CountSpotFillsByTypeTx(tx, positionID, models.FillSell)
		if err != nil {
			return err
		}
		if sells > 0 {
			return ledger.ErrInvalidState
		}
		refund, err := s.Repo.SumSpotBuyOutlayTx(tx, positionID)
		if err != nil {
			return err
		}
		if err := s.Mutator.Credit(tx, account, refund); err != nil {
			return err
		}
		return s.Repo.DeleteSpotPositionTx(tx, positionID)
	})
}

// --- Futures ----------------------------------------------------------------

type OpenFuturesCmd struct {
	AccountID  uint64
	Symbol     string
	Direction  string
	Leverage   int
	MarginMode string
	OrderType  *string
	EntryPrice decimal.Decimal
	Quantity   decimal.Decimal
	Margin     decimal.Decimal
	TakeProfit *decimal.Decimal
	StopLoss   *decimal.Decimal
	Notes      *string
	Date       time.Time
}

func (s *LedgerService) OpenFutures(ctx context.Context, cmd OpenFuturesCmd) (*models.FuturesPosition, error) {
	if err := ledger.ValidateFill(cmd.EntryPrice, cmd.Quantity, decimal.Zero); err != nil {
		return nil, err
	}
	if err := ledger.ValidateAmount(cmd.Margin); err != nil {
		return nil, err
	}
	direction := strings.ToUpper(strings.TrimSpace(cmd.Direction))
	if direction != models.DirectionLong && direction != models.DirectionShort {
		return nil, fmt.Errorf("%w: direction must be LONG or SHORT", ledger.ErrValidation)
	}
	marginMode := strings.ToUpper(strings.TrimSpace(cmd.MarginMode))
	if marginMode != models.MarginCross && marginMode != models.MarginIsolated {
		return nil, fmt.Errorf("%w: margin mode must be CROSS or ISOLATED", ledger.ErrValidation)
	}
	if cmd.Leverage < 1 || cmd.Leverage > 125 {
		return nil, fmt.Errorf("%w: leverage must be between 1 and 125", ledger.ErrValidation)
	}
	symbol := strings.ToUpper(strings.TrimSpace(cmd.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", ledger.ErrValidation)
	}

	position := &models.FuturesPosition{
		TradingAccountID: cmd.AccountID,
		Symbol:           symbol,
		Direction:        direction,
		Leverage:         cmd.Leverage,
		MarginMode:       marginMode,
		OrderType:        cmd.OrderType,
		EntryPrice:       cmd.EntryPrice,
		Quantity:         cmd.Quantity,
		Margin:           cmd.Margin,
		TakeProfit:       cmd.TakeProfit,
		StopLoss:         cmd.StopLoss,
		Status:           models.FuturesOpen,
		Fee:              decimal.Zero,
		Notes:            cmd.Notes,
		EnteredAt:        cmd.Date.UTC(),
	}
	err := s.withAccount(ctx, cmd.AccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		if err := s.Mutator.Debit(tx, account, cmd.Margin); err != nil {
			return err
		}
		return s.Repo.InsertFuturesPositionTx(tx, position)
	})
	if err != nil {
		return nil, err
	}
	return position, nil
}

type CloseFuturesCmd struct {
	PositionID uint64
	ExitPrice  decimal.Decimal
	Fee        decimal.Decimal
	Reason     *string
	Date       time.Time
}

// CloseFutures settles an open position exactly once: margin plus net PnL
// comes back to the balance and the row becomes terminal.
func (s *LedgerService) CloseFutures(ctx context.Context, cmd CloseFuturesCmd) (*models.FuturesPosition, error) {
	if cmd.ExitPrice.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: exit price must be positive", ledger.ErrValidation)
	}
	if cmd.Fee.IsNegative() {
		return nil, fmt.Errorf("%w: fee must not be negative", ledger.ErrValidation)
	}

	peek, err := s.Repo.GetFuturesPositionByID(ctx, cmd.PositionID)
	if err != nil {
		return nil, err
	}
	if peek == nil {
		return nil, ledger.ErrNotFound
	}

	var out *models.FuturesPosition
	err = s.withAccount(ctx, peek.TradingAccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		position, err := s.Repo.GetFuturesPositionForUpdateTx(tx, cmd.PositionID)
		if err != nil {
			return err
		}
		if position == nil {
			return ledger.ErrNotFound
		}
		if position.Status != models.FuturesOpen {
			return ledger.ErrInvalidState
		}

		res := s.Calc.CloseFutures(position.Direction, position.EntryPrice, cmd.ExitPrice, position.Quantity, position.Margin, cmd.Fee)
		if err := s.Mutator.Settle(tx, account, res.Returned); err != nil {
			return err
		}

		date := cmd.Date.UTC()
		net := res.NetPnL
		position.Status = models.FuturesClosed
		position.ExitPrice = &cmd.ExitPrice
		position.Fee = cmd.Fee
		position.PnL = &net
		position.ExitReason = cmd.Reason
		position.ExitedAt = &date
		out = position
		return s.Repo.UpdateFuturesPositionTx(tx, position.ID, map[string]any{
			"status":      models.FuturesClosed,
			"exit_price":  cmd.ExitPrice,
			"fee":         cmd.Fee,
			"pnl":         net,
			"exit_reason": cmd.Reason,
			"exited_at":   date,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type CancelFuturesCmd struct {
	PositionID uint64
	Note       *string
	Date       time.Time
}

// CancelFutures voids an open position with no market exposure realized:
// margin comes back untouched, PnL and fee are recorded as zero, and the
// exit fields mirror the entry so the terminal record is complete.
func (s *LedgerService) CancelFutures(ctx context.Context, cmd CancelFuturesCmd) (*models.FuturesPosition, error) {
	peek, err := s.Repo.GetFuturesPositionByID(ctx, cmd.PositionID)
	if err != nil {
		return nil, err
	}
	if peek == nil {
		return nil, ledger.ErrNotFound
	}

	var out *models.FuturesPosition
	err = s.withAccount(ctx, peek.TradingAccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		position, err := s.Repo.GetFuturesPositionForUpdateTx(tx, cmd.PositionID)
		if err != nil {
			return err
		}
		if position == nil {
			return ledger.ErrNotFound
		}
		if position.Status != models.FuturesOpen {
			return ledger.ErrInvalidState
		}

		res := s.Calc.CancelFutures(position.Margin)
		if err := s.Mutator.Credit(tx, account, res.Returned); err != nil {
			return err
		}

		date := cmd.Date.UTC()
		zero := decimal.Zero
		reason := "CANCELLED"
		position.Status = models.FuturesCancelled
		position.ExitPrice = &position.EntryPrice
		position.Fee = decimal.Zero
		position.PnL = &zero
		position.ExitReason = &reason
		position.ExitedAt = &date
		if cmd.Note != nil {
			position.Notes = cmd.Note
		}
		out = position
		updates := map[string]any{
			"status":      models.FuturesCancelled,
			"exit_price":  position.EntryPrice,
			"fee":         decimal.Zero,
			"pnl":         decimal.Zero,
			"exit_reason": reason,
			"exited_at":   date,
		}
		if cmd.Note != nil {
			updates["notes"] = *cmd.Note
		}
		return s.Repo.UpdateFuturesPositionTx(tx, position.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteFuturesPosition removes a position record. OPEN positions refund
// their margin; CANCELLED ones hold no cash and delete cleanly. CLOSED
// positions back realized PnL in the balance and must stay.
func (s *LedgerService) DeleteFuturesPosition(ctx context.Context, positionID uint64) error {
	peek, err := s.Repo.GetFuturesPositionByID(ctx, positionID)
	if err != nil {
		return err
	}
	if peek == nil {
		return ledger.ErrNotFound
	}
	return s.withAccount(ctx, peek.TradingAccountID, func(tx *gorm.DB, account *models.TradingAccount) error {
		position, err := s.Repo.GetFuturesPositionForUpdateTx(tx, positionID)
		if err != nil {
			return err
		}
		if position == nil {
			return ledger.ErrNotFound
		}
		switch position.Status {
		case models.FuturesOpen:
			if err := s.Mutator.Credit(tx, account, position.Margin); err != nil {
				return err
			}
		case models.FuturesCancelled:
			// no cash held
		default:
			return ledger.ErrInvalidState
		}
		return s.Repo.DeleteFuturesPositionTx(tx, positionID)
	})
}

// DeleteAccount removes an account only when nothing references it; a
// cascade here would silently destroy the history that backs the balance.
func (s *LedgerService) DeleteAccount(ctx context.Context, accountID uint64) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	account, err := s.Repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ledger.ErrNotFound
	}
	busy, err := s.Repo.AccountHasActivity(ctx, accountID)
	if err != nil {
		return err
	}
	if busy {
		return ledger.ErrAccountReferenced
	}
	if s.Logger != nil {
		s.Logger.Info("deleting trading account", zap.Uint64("account_id", accountID))
	}
	return s.Repo.DeleteAccount(ctx, accountID)
}
