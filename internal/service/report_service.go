package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// ReportService serves the read-only aggregate views: dashboard summary,
// portfolio allocation, trade calendar, and the monthly report. It never
// touches the balance; everything here is derived from committed rows.
type ReportService struct {
	Repo           repository.Repository
	Reconstruction *ReconstructionService
	Logger         *zap.Logger
}

func NewReportService(repo repository.Repository, recon *ReconstructionService, logger *zap.Logger) *ReportService {
	return &ReportService{Repo: repo, Reconstruction: recon, Logger: logger}
}

// DashboardSummary is the landing-page snapshot.
type DashboardSummary struct {
	TotalBalance  decimal.Decimal `json:"total_balance"`
	Changes       BalanceChanges  `json:"changes"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	ClosedTrades  int64           `json:"closed_trades"`
	WinRate       decimal.Decimal `json:"win_rate"`
	OpenPositions int64           `json:"open_positions"`
}

// WinRate is wins over closed trades as a percentage, zero when nothing has
// closed yet.
func WinRate(wins, closed int64) decimal.Decimal {
	if closed <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(wins).
		Div(decimal.NewFromInt(closed)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

func (s *ReportService) Dashboard(ctx context.Context, accountIDs []uint64) (*DashboardSummary, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	total, err := s.Repo.SumAccountBalances(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	stats, err := s.Repo.TradeStats(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	changes := BalanceChanges{}
	if s.Reconstruction != nil {
		changes, err = s.Reconstruction.Changes(ctx, accountIDs)
		if err != nil {
			return nil, err
		}
	}
	return &DashboardSummary{
		TotalBalance:  total,
		Changes:       changes,
		NetProfit:     stats.NetProfit,
		ClosedTrades:  stats.ClosedTrades,
		WinRate:       WinRate(stats.Wins, stats.ClosedTrades),
		OpenPositions: stats.OpenPositions,
	}, nil
}

// PortfolioEntry is one account with its share of the combined balance.
type PortfolioEntry struct {
	Account       models.TradingAccount `json:"account"`
	AllocationPct decimal.Decimal       `json:"allocation_pct"`
}

type Portfolio struct {
	TotalBalance decimal.Decimal            `json:"total_balance"`
	Accounts     []PortfolioEntry           `json:"accounts"`
	ByStrategy   map[string]decimal.Decimal `json:"by_strategy"`
}

// Portfolio lists every account with its allocation share and rolls the
// shares up by strategy type.
func (s *ReportService) Portfolio(ctx context.Context, userID *uint64) (*Portfolio, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	accounts, err := s.Repo.ListAccounts(ctx, repository.ListAccountsParams{UserID: userID})
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	out := &Portfolio{
		TotalBalance: total,
		Accounts:     make([]PortfolioEntry, 0, len(accounts)),
		ByStrategy:   map[string]decimal.Decimal{},
	}
	hundred := decimal.NewFromInt(100)
	for _, a := range accounts {
		pct := decimal.Zero
		if total.GreaterThan(decimal.Zero) {
			pct = a.Balance.Div(total).Mul(hundred).Round(2)
		}
		out.Accounts = append(out.Accounts, PortfolioEntry{Account: a, AllocationPct: pct})
		out.ByStrategy[a.StrategyType] = out.ByStrategy[a.StrategyType].Add(pct)
	}
	return out, nil
}

// CalendarDay is one day with activity: fills landed or futures positions
// entered/exited.
type CalendarDay struct {
	Date   string          `json:"date"`
	Trades int64           `json:"trades"`
	PnL    decimal.Decimal `json:"pnl"`
}

type Calendar struct {
	Year  int           `json:"year"`
	Days  []CalendarDay `json:"days"`
	Years []int         `json:"years"`
}

const calendarDayFormat = "2006-01-02"

// Calendar builds the per-day trade view for one year. Spot activity comes
// from the fill log; futures count on their entry day and, when closed,
// realize their PnL on the exit day.
func (s *ReportService) Calendar(ctx context.Context, accountIDs []uint64, year int) (*Calendar, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	type bucket struct {
		trades int64
		pnl    decimal.Decimal
	}
	days := map[string]*bucket{}
	touch := func(key string) *bucket {
		b, ok := days[key]
		if !ok {
			b = &bucket{pnl: decimal.Zero}
			days[key] = b
		}
		return b
	}

	spot, err := s.Repo.DailySpotActivity(ctx, accountIDs, year)
	if err != nil {
		return nil, err
	}
	for _, row := range spot {
		b := touch(row.Day.UTC().Format(calendarDayFormat))
		b.trades += row.Trades
		b.pnl = b.pnl.Add(row.PnL)
	}

	futures, err := s.Repo.ListFuturesPositions(ctx, repository.ListFuturesPositionsParams{
		AccountIDs: accountIDs,
		Year:       &year,
		Limit:      -1,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range futures {
		if p.EnteredAt.UTC().Year() == year {
			touch(p.EnteredAt.UTC().Format(calendarDayFormat)).trades++
		}
		if p.Status == models.FuturesClosed && p.ExitedAt != nil && p.PnL != nil && p.ExitedAt.UTC().Year() == year {
			b := touch(p.ExitedAt.UTC().Format(calendarDayFormat))
			if p.ExitedAt.UTC().Format(calendarDayFormat) != p.EnteredAt.UTC().Format(calendarDayFormat) || p.EnteredAt.UTC().Year() != year {
				b.trades++
			}
			b.pnl = b.pnl.Add(*p.PnL)
		}
	}

	years, err := s.Repo.ActivityYears(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	out := &Calendar{Year: year, Days: make([]CalendarDay, 0, len(days)), Years: years}
	for key, b := range days {
		out.Days = append(out.Days, CalendarDay{Date: key, Trades: b.trades, PnL: b.pnl})
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date < out.Days[j].Date })
	return out, nil
}

// ActivityLog is the cash ledger view: the transactions in range plus the
// flow totals and balance move over that range.
type ActivityLog struct {
	Items     []models.CashTransaction `json:"items"`
	Total     int64                    `json:"total"`
	Inflow    decimal.Decimal          `json:"inflow"`
	Outflow   decimal.Decimal          `json:"outflow"`
	NetFlow   decimal.Decimal          `json:"net_flow"`
	ChangePct decimal.Decimal          `json:"change_pct"`
}

// Activity lists cash transactions and sums the window's flows. ChangePct
// compares the reconstructed balance at the window start against now.
func (s *ReportService) Activity(ctx context.Context, accountIDs []uint64, params repository.ListCashTransactionsParams) (*ActivityLog, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	params.AccountIDs = accountIDs
	items, err := s.Repo.ListCashTransactions(ctx, params)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo.CountCashTransactions(ctx, params)
	if err != nil {
		return nil, err
	}

	out := &ActivityLog{
		Items:     items,
		Total:     total,
		ChangePct: decimal.Zero,
	}
	out.Inflow, err = s.Repo.SumCashByType(ctx, accountIDs, models.CashDeposit, params.Since, params.Until)
	if err != nil {
		return nil, err
	}
	out.Outflow, err = s.Repo.SumCashByType(ctx, accountIDs, models.CashWithdraw, params.Since, params.Until)
	if err != nil {
		return nil, err
	}
	out.NetFlow = out.Inflow.Sub(out.Outflow)

	if s.Reconstruction != nil && params.Since != nil {
		current, err := s.Repo.SumAccountBalances(ctx, accountIDs)
		if err != nil {
			return nil, err
		}
		start, err := s.Reconstruction.BalanceAt(ctx, accountIDs, *params.Since)
		if err != nil {
			return nil, err
		}
		out.ChangePct = ChangePct(start, current)
	}
	return out, nil
}

// MonthlyReportRow is one calendar month of closed-trade outcomes.
type MonthlyReportRow struct {
	Month        int             `json:"month"`
	SpotTrades   int64           `json:"spot_trades"`
	SpotPnL      decimal.Decimal `json:"spot_pnl"`
	FuturesCount int64           `json:"futures_trades"`
	FuturesPnL   decimal.Decimal `json:"futures_pnl"`
	TotalPnL     decimal.Decimal `json:"total_pnl"`
}

type MonthlyReport struct {
	Year     int                `json:"year"`
	Months   []MonthlyReportRow `json:"months"`
	TotalPnL decimal.Decimal    `json:"total_pnl"`
}

// Monthly merges spot sell PnL and closed futures PnL into a twelve-row
// report for the year.
func (s *ReportService) Monthly(ctx context.Context, accountIDs []uint64, year int) (*MonthlyReport, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	spot, err := s.Repo.MonthlySpotSellPnL(ctx, accountIDs, year)
	if err != nil {
		return nil, err
	}
	futures, err := s.Repo.MonthlyFuturesPnL(ctx, accountIDs, year)
	if err != nil {
		return nil, err
	}

	out := &MonthlyReport{Year: year, Months: make([]MonthlyReportRow, 12), TotalPnL: decimal.Zero}
	for i := range out.Months {
		out.Months[i] = MonthlyReportRow{
			Month:      i + 1,
			SpotPnL:    decimal.Zero,
			FuturesPnL: decimal.Zero,
			TotalPnL:   decimal.Zero,
		}
	}
	for _, row := range spot {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		m := &out.Months[row.Month-1]
		m.SpotTrades = row.Trades
		m.SpotPnL = row.PnL
	}
	for _, row := range futures {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		m := &out.Months[row.Month-1]
		m.FuturesCount = row.Trades
		m.FuturesPnL = row.PnL
	}
	for i := range out.Months {
		m := &out.Months[i]
		m.TotalPnL = m.SpotPnL.Add(m.FuturesPnL)
		out.TotalPnL = out.TotalPnL.Add(m.TotalPnL)
	}
	return out, nil
}
