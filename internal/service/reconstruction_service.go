package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradejournal/internal/repository"
)

// ReconstructionService derives historical balances by walking the ledger
// backwards from the current balance. Nothing historical is stored: for any
// past instant T, balance(T) = balance(now) − netFlow(T..now] − pnl(T..now],
// where pnl nets futures settlements, spot sell PnL (already fee-net), and
// spot buy fees.
type ReconstructionService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func NewReconstructionService(repo repository.Repository, logger *zap.Logger) *ReconstructionService {
	return &ReconstructionService{Repo: repo, Logger: logger}
}

// BalancePoint is one reconstructed sample.
type BalancePoint struct {
	Date    time.Time       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceChanges holds percentage change over the standard dashboard windows.
type BalanceChanges struct {
	Today decimal.Decimal `json:"today"`
	Week  decimal.Decimal `json:"week"`
	Month decimal.Decimal `json:"month"`
	Year  decimal.Decimal `json:"year"`
}

// windowSums totals the window (since..now] as its two components: signed
// cash flow, and realized PnL (futures settlements plus fee-net spot sell
// PnL minus spot buy fees).
func (s *ReconstructionService) windowSums(ctx context.Context, accountIDs []uint64, since time.Time) (flow, pnl decimal.Decimal, err error) {
	flow, err = s.Repo.SumNetFlow(ctx, accountIDs, &since, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	futures, err := s.Repo.SumFuturesRealizedPnL(ctx, accountIDs, &since, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	spotSell, err := s.Repo.SumSpotSellPnL(ctx, accountIDs, &since, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	buyFees, err := s.Repo.SumSpotBuyFees(ctx, accountIDs, &since, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return flow, futures.Add(spotSell).Sub(buyFees), nil
}

func (s *ReconstructionService) periodDelta(ctx context.Context, accountIDs []uint64, since time.Time) (decimal.Decimal, error) {
	flow, pnl, err := s.windowSums(ctx, accountIDs, since)
	if err != nil {
		return decimal.Zero, err
	}
	return flow.Add(pnl), nil
}

// Reconstruction summarizes one reconstructed window: the balance at its
// start, the move since then, and the flow/PnL components that explain it.
type Reconstruction struct {
	StartBalance decimal.Decimal `json:"start_balance"`
	ChangePct    decimal.Decimal `json:"change_pct"`
	NetFlow      decimal.Decimal `json:"net_flow"`
	PnL          decimal.Decimal `json:"pnl"`
}

// Reconstruct derives the window from start to now in one pass:
// startBalance = current − netFlow − pnl, with both components reported
// separately alongside the percentage move.
func (s *ReconstructionService) Reconstruct(ctx context.Context, accountIDs []uint64, start time.Time) (Reconstruction, error) {
	if s == nil || s.Repo == nil {
		return Reconstruction{}, nil
	}
	current, err := s.Repo.SumAccountBalances(ctx, accountIDs)
	if err != nil {
		return Reconstruction{}, err
	}
	flow, pnl, err := s.windowSums(ctx, accountIDs, start)
	if err != nil {
		return Reconstruction{}, err
	}
	startBalance := current.Sub(flow).Sub(pnl)
	return Reconstruction{
		StartBalance: startBalance,
		ChangePct:    ChangePct(startBalance, current),
		NetFlow:      flow,
		PnL:          pnl,
	}, nil
}

// BalanceAt reconstructs the combined balance of the given accounts as it
// stood at the given instant.
func (s *ReconstructionService) BalanceAt(ctx context.Context, accountIDs []uint64, at time.Time) (decimal.Decimal, error) {
	if s == nil || s.Repo == nil {
		return decimal.Zero, nil
	}
	current, err := s.Repo.SumAccountBalances(ctx, accountIDs)
	if err != nil {
		return decimal.Zero, err
	}
	delta, err := s.periodDelta(ctx, accountIDs, at)
	if err != nil {
		return decimal.Zero, err
	}
	return current.Sub(delta), nil
}

// DailySeries reconstructs one sample per day for the trailing window,
// oldest first, ending with the live balance. Each sample is taken at the
// start of its day in UTC.
func (s *ReconstructionService) DailySeries(ctx context.Context, accountIDs []uint64, days int) ([]BalancePoint, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if days < 1 {
		days = 1
	}
	now := time.Now().UTC()
	current, err := s.Repo.SumAccountBalances(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	points := make([]BalancePoint, 0, days+1)
	for i := days; i >= 1; i-- {
		day := now.AddDate(0, 0, -i).Truncate(24 * time.Hour)
		delta, err := s.periodDelta(ctx, accountIDs, day)
		if err != nil {
			return nil, err
		}
		points = append(points, BalancePoint{Date: day, Balance: current.Sub(delta)})
	}
	points = append(points, BalancePoint{Date: now, Balance: current})
	return points, nil
}

// ChangePct reports the percentage move from start to current. A zero start
// maps to 100% when there is anything now and 0% otherwise, so a freshly
// funded account does not divide by zero.
func ChangePct(start, current decimal.Decimal) decimal.Decimal {
	if start.IsZero() {
		if current.GreaterThan(decimal.Zero) {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return current.Sub(start).Div(start.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
}

// Changes reconstructs the balance at the head of each dashboard window and
// reports the percentage move since then.
func (s *ReconstructionService) Changes(ctx context.Context, accountIDs []uint64) (BalanceChanges, error) {
	out := BalanceChanges{
		Today: decimal.Zero,
		Week:  decimal.Zero,
		Month: decimal.Zero,
		Year:  decimal.Zero,
	}
	if s == nil || s.Repo == nil {
		return out, nil
	}
	current, err := s.Repo.SumAccountBalances(ctx, accountIDs)
	if err != nil {
		return out, err
	}
	now := time.Now().UTC()
	windows := []struct {
		since time.Time
		dst   *decimal.Decimal
	}{
		{time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), &out.Today},
		{now.AddDate(0, 0, -7), &out.Week},
		{now.AddDate(0, 0, -30), &out.Month},
		{now.AddDate(-1, 0, 0), &out.Year},
	}
	for _, w := range windows {
		delta, err := s.periodDelta(ctx, accountIDs, w.since)
		if err != nil {
			return out, err
		}
		*w.dst = ChangePct(current.Sub(delta), current)
	}
	return out, nil
}
