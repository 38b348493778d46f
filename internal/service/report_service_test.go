package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func TestWinRate(t *testing.T) {
	cases := []struct {
		wins, closed int64
		want         string
	}{
		{0, 0, "0"},
		{1, 2, "50"},
		{2, 3, "66.67"},
		{5, 5, "100"},
	}
	for _, tc := range cases {
		if got := WinRate(tc.wins, tc.closed); !got.Equal(dec(tc.want)) {
			t.Fatalf("WinRate(%d, %d) = %s, want %s", tc.wins, tc.closed, got, tc.want)
		}
	}
}

func seedReportData(t *testing.T, repo *stubRepo) (winner, loser uint64) {
	t.Helper()
	ctx := context.Background()
	svc := newTestLedger(repo)
	a := repo.addAccount("10000")
	now := time.Now().UTC()

	position, err := svc.OpenSpot(ctx, OpenSpotCmd{
		AccountID: a.ID, Symbol: "BTC", Price: dec("100"), Quantity: dec("10"), Fee: dec("0"), Date: now,
	})
	if err != nil {
		t.Fatalf("open spot: %v", err)
	}
	if _, err := svc.FillSpot(ctx, FillSpotCmd{
		PositionID: position.ID, Type: models.FillSell, Price: dec("150"), Quantity: dec("10"), Fee: dec("0"), Date: now,
	}); err != nil {
		t.Fatalf("sell: %v", err)
	}
	winner = position.ID

	fut, err := svc.OpenFutures(ctx, OpenFuturesCmd{
		AccountID: a.ID, Symbol: "ETH", Direction: models.DirectionLong,
		Leverage: 5, MarginMode: models.MarginIsolated,
		EntryPrice: dec("100"), Quantity: dec("1"), Margin: dec("20"), Date: now,
	})
	if err != nil {
		t.Fatalf("open futures: %v", err)
	}
	if _, err := svc.CloseFutures(ctx, CloseFuturesCmd{PositionID: fut.ID, ExitPrice: dec("90"), Fee: dec("0"), Date: now}); err != nil {
		t.Fatalf("close futures: %v", err)
	}
	loser = fut.ID

	// One still open so OpenPositions is nonzero.
	if _, err := svc.OpenSpot(ctx, OpenSpotCmd{
		AccountID: a.ID, Symbol: "SOL", Price: dec("10"), Quantity: dec("5"), Fee: dec("0"), Date: now,
	}); err != nil {
		t.Fatalf("open second spot: %v", err)
	}
	return winner, loser
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	seedReportData(t, repo)

	svc := NewReportService(repo, NewReconstructionService(repo, zap.NewNop()), zap.NewNop())
	summary, err := svc.Dashboard(ctx, nil)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	// Spot +500, futures -10.
	if !summary.NetProfit.Equal(dec("490")) {
		t.Fatalf("net profit = %s, want 490", summary.NetProfit)
	}
	if summary.ClosedTrades != 2 {
		t.Fatalf("closed = %d, want 2", summary.ClosedTrades)
	}
	if !summary.WinRate.Equal(dec("50")) {
		t.Fatalf("win rate = %s, want 50", summary.WinRate)
	}
	if summary.OpenPositions != 1 {
		t.Fatalf("open = %d, want 1", summary.OpenPositions)
	}
	if !summary.TotalBalance.Equal(dec("10440")) {
		t.Fatalf("total balance = %s, want 10440", summary.TotalBalance)
	}
}

func TestPortfolioAllocation(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	spot := repo.addAccount("750")
	futures := repo.addAccount("250")
	futures.StrategyType = models.StrategyFutures

	svc := NewReportService(repo, nil, zap.NewNop())
	portfolio, err := svc.Portfolio(ctx, nil)
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if !portfolio.TotalBalance.Equal(dec("1000")) {
		t.Fatalf("total = %s, want 1000", portfolio.TotalBalance)
	}
	byID := map[uint64]PortfolioEntry{}
	for _, e := range portfolio.Accounts {
		byID[e.Account.ID] = e
	}
	if !byID[spot.ID].AllocationPct.Equal(dec("75")) {
		t.Fatalf("spot allocation = %s, want 75", byID[spot.ID].AllocationPct)
	}
	if !byID[futures.ID].AllocationPct.Equal(dec("25")) {
		t.Fatalf("futures allocation = %s, want 25", byID[futures.ID].AllocationPct)
	}
	if !portfolio.ByStrategy[models.StrategySpot].Equal(dec("75")) ||
		!portfolio.ByStrategy[models.StrategyFutures].Equal(dec("25")) {
		t.Fatalf("by strategy = %v", portfolio.ByStrategy)
	}
}

func TestCalendarYear(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	seedReportData(t, repo)

	svc := NewReportService(repo, nil, zap.NewNop())
	year := time.Now().UTC().Year()
	calendar, err := svc.Calendar(ctx, nil, year)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if calendar.Year != year {
		t.Fatalf("year = %d, want %d", calendar.Year, year)
	}
	if len(calendar.Days) != 1 {
		t.Fatalf("days = %d, want 1 (all activity today)", len(calendar.Days))
	}
	today := calendar.Days[0]
	if today.Date != time.Now().UTC().Format("2006-01-02") {
		t.Fatalf("day = %s, want today", today.Date)
	}
	// Three spot fills plus one futures entry (same-day close folds in).
	if today.Trades != 4 {
		t.Fatalf("trades = %d, want 4", today.Trades)
	}
	if !today.PnL.Equal(dec("490")) {
		t.Fatalf("pnl = %s, want 490", today.PnL)
	}
	if len(calendar.Years) != 1 || calendar.Years[0] != year {
		t.Fatalf("years = %v", calendar.Years)
	}
}

func TestMonthlyReport(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	seedReportData(t, repo)

	svc := NewReportService(repo, nil, zap.NewNop())
	now := time.Now().UTC()
	report, err := svc.Monthly(ctx, nil, now.Year())
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(report.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(report.Months))
	}
	row := report.Months[int(now.Month())-1]
	if row.SpotTrades != 1 || !row.SpotPnL.Equal(dec("500")) {
		t.Fatalf("spot row = %+v", row)
	}
	if row.FuturesCount != 1 || !row.FuturesPnL.Equal(dec("-10")) {
		t.Fatalf("futures row = %+v", row)
	}
	if !row.TotalPnL.Equal(dec("490")) || !report.TotalPnL.Equal(dec("490")) {
		t.Fatalf("totals: row %s report %s", row.TotalPnL, report.TotalPnL)
	}
	for i, m := range report.Months {
		if i == int(now.Month())-1 {
			continue
		}
		if !m.TotalPnL.IsZero() {
			t.Fatalf("month %d nonzero: %+v", m.Month, m)
		}
	}
}

func TestActivityLog(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	account := repo.addAccount("0")
	ledgerSvc := newTestLedger(repo)
	now := time.Now().UTC()

	if _, err := ledgerSvc.Deposit(ctx, CashCmd{AccountID: account.ID, Amount: dec("1000"), Date: now.AddDate(0, 0, -10)}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := ledgerSvc.Withdraw(ctx, CashCmd{AccountID: account.ID, Amount: dec("200"), Date: now.AddDate(0, 0, -2)}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	svc := NewReportService(repo, NewReconstructionService(repo, zap.NewNop()), zap.NewNop())
	since := now.AddDate(0, 0, -5)
	log, err := svc.Activity(ctx, []uint64{account.ID}, repository.ListCashTransactionsParams{Since: &since})
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if log.Total != 1 || len(log.Items) != 1 {
		t.Fatalf("items in range = %d/%d, want 1", len(log.Items), log.Total)
	}
	if !log.Inflow.IsZero() || !log.Outflow.Equal(dec("200")) || !log.NetFlow.Equal(dec("-200")) {
		t.Fatalf("flows: in %s out %s net %s", log.Inflow, log.Outflow, log.NetFlow)
	}
	// 1000 five days ago, 800 now.
	if !log.ChangePct.Equal(dec("-20")) {
		t.Fatalf("change pct = %s, want -20", log.ChangePct)
	}
}
