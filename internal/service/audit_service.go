package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// AuditService recomputes every account balance from first principles and
// compares it against the stored scalar. The conservation identity it
// checks:
//
//	balance = initial + netFlow + realizedPnL − openSpotCostBasis − openFuturesMargin
//
// where realizedPnL nets futures settlements, spot sell PnL, and spot buy
// fees. Any drift means a write path bypassed the mutator.
type AuditService struct {
	Repo      repository.Repository
	Logger    *zap.Logger
	Tolerance decimal.Decimal
}

func NewAuditService(repo repository.Repository, logger *zap.Logger) *AuditService {
	return &AuditService{
		Repo:      repo,
		Logger:    logger,
		Tolerance: decimal.New(1, -8),
	}
}

// AccountDrift is one audited account, persisted in the audit details when
// drift is nonzero.
type AccountDrift struct {
	AccountID uint64          `json:"account_id"`
	Expected  decimal.Decimal `json:"expected"`
	Actual    decimal.Decimal `json:"actual"`
	Drift     decimal.Decimal `json:"drift"`
}

func (s *AuditService) expectedBalance(ctx context.Context, account *models.TradingAccount) (decimal.Decimal, error) {
	ids := []uint64{account.ID}
	flow, err := s.Repo.SumNetFlow(ctx, ids, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	futures, err := s.Repo.SumFuturesRealizedPnL(ctx, ids, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	spotSell, err := s.Repo.SumSpotSellPnL(ctx, ids, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	buyFees, err := s.Repo.SumSpotBuyFees(ctx, ids, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	spotBasis, err := s.Repo.SumOpenSpotCostBasis(ctx, ids)
	if err != nil {
		return decimal.Zero, err
	}
	margin, err := s.Repo.SumOpenFuturesMargin(ctx, ids)
	if err != nil {
		return decimal.Zero, err
	}
	return account.InitialBalance.
		Add(flow).
		Add(futures).
		Add(spotSell).
		Sub(buyFees).
		Sub(spotBasis).
		Sub(margin), nil
}

// Recent returns the latest audit runs, newest first.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.BalanceAudit, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Repo.ListBalanceAudits(ctx, limit)
}

// RunOnce audits every account and persists the run. It keeps going past
// per-account failures so one broken account does not hide the rest.
func (s *AuditService) RunOnce(ctx context.Context) (*models.BalanceAudit, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	started := time.Now().UTC()
	ids, err := s.Repo.ListAccountIDs(ctx)
	if err != nil {
		return nil, err
	}

	var drifts []AccountDrift
	maxAbs := decimal.Zero
	checked := 0
	for _, id := range ids {
		account, err := s.Repo.GetAccountByID(ctx, id)
		if err != nil || account == nil {
			if s.Logger != nil {
				s.Logger.Warn("audit: load account failed", zap.Uint64("account_id", id), zap.Error(err))
			}
			continue
		}
		expected, err := s.expectedBalance(ctx, account)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("audit: recompute failed", zap.Uint64("account_id", id), zap.Error(err))
			}
			continue
		}
		checked++
		drift := account.Balance.Sub(expected)
		if drift.Abs().LessThanOrEqual(s.Tolerance) {
			continue
		}
		drifts = append(drifts, AccountDrift{
			AccountID: id,
			Expected:  expected,
			Actual:    account.Balance,
			Drift:     drift,
		})
		if drift.Abs().GreaterThan(maxAbs) {
			maxAbs = drift.Abs()
		}
		if s.Logger != nil {
			s.Logger.Warn("audit: balance drift",
				zap.Uint64("account_id", id),
				zap.String("expected", expected.String()),
				zap.String("actual", account.Balance.String()),
				zap.String("drift", drift.String()))
		}
	}

	audit := &models.BalanceAudit{
		RanAt:           started,
		AccountsChecked: checked,
		DriftCount:      len(drifts),
		MaxAbsDrift:     maxAbs,
	}
	if len(drifts) > 0 {
		raw, err := json.Marshal(drifts)
		if err != nil {
			return nil, err
		}
		audit.Details = raw
	}
	if err := s.Repo.InsertBalanceAudit(ctx, audit); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("balance audit finished",
			zap.Int("accounts", checked),
			zap.Int("drifts", len(drifts)),
			zap.Duration("took", time.Since(started)))
	}
	return audit, nil
}
