package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// stubRepo is an in-memory repository.Repository for service tests. Writes
// that commit through InTx in production apply directly here; the tested
// failure paths all abort before the first write, so rollback is not
// simulated.
type stubRepo struct {
	accounts map[uint64]*models.TradingAccount
	cash     []models.CashTransaction
	spots    map[uint64]*models.SpotPosition
	fills    []models.SpotFill
	futures  map[uint64]*models.FuturesPosition
	audits   []models.BalanceAudit
	nextID   uint64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		accounts: map[uint64]*models.TradingAccount{},
		spots:    map[uint64]*models.SpotPosition{},
		futures:  map[uint64]*models.FuturesPosition{},
	}
}

func (r *stubRepo) id() uint64 {
	r.nextID++
	return r.nextID
}

func (r *stubRepo) addAccount(balance string) *models.TradingAccount {
	b := decimal.RequireFromString(balance)
	a := &models.TradingAccount{
		ID:             r.id(),
		UserID:         1,
		Name:           "test",
		Exchange:       "binance",
		Currency:       "USDT",
		MarketType:     "Crypto",
		StrategyType:   models.StrategySpot,
		InitialBalance: b,
		Balance:        b,
	}
	r.accounts[a.ID] = a
	return a
}

func (r *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (r *stubRepo) CreateAccount(ctx context.Context, item *models.TradingAccount) error {
	item.ID = r.id()
	r.accounts[item.ID] = item
	return nil
}

func (r *stubRepo) GetAccountByID(ctx context.Context, id uint64) (*models.TradingAccount, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *stubRepo) GetAccountForUpdateTx(tx *gorm.DB, id uint64) (*models.TradingAccount, error) {
	return r.GetAccountByID(context.Background(), id)
}

func (r *stubRepo) SetAccountBalanceTx(tx *gorm.DB, id uint64, balance decimal.Decimal) error {
	if a, ok := r.accounts[id]; ok {
		a.Balance = balance
	}
	return nil
}

func (r *stubRepo) ListAccounts(ctx context.Context, params repository.ListAccountsParams) ([]models.TradingAccount, error) {
	var out []models.TradingAccount
	for _, a := range r.accounts {
		if params.UserID != nil && a.UserID != *params.UserID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *stubRepo) ListAccountIDs(ctx context.Context) ([]uint64, error) {
	var out []uint64
	for id := range r.accounts {
		out = append(out, id)
	}
	return out, nil
}

func (r *stubRepo) SumAccountBalances(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.accounts {
		if !idMatch(accountIDs, a.ID) {
			continue
		}
		sum = sum.Add(a.Balance)
	}
	return sum, nil
}

func (r *stubRepo) AccountHasActivity(ctx context.Context, id uint64) (bool, error) {
	for _, t := range r.cash {
		if t.TradingAccountID == id {
			return true, nil
		}
	}
	for _, p := range r.spots {
		if p.TradingAccountID == id {
			return true, nil
		}
	}
	for _, p := range r.futures {
		if p.TradingAccountID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) DeleteAccount(ctx context.Context, id uint64) error {
	delete(r.accounts, id)
	return nil
}

func (r *stubRepo) InsertCashTransactionTx(tx *gorm.DB, item *models.CashTransaction) error {
	item.ID = r.id()
	r.cash = append(r.cash, *item)
	return nil
}

func (r *stubRepo) ListCashTransactions(ctx context.Context, params repository.ListCashTransactionsParams) ([]models.CashTransaction, error) {
	var out []models.CashTransaction
	for _, t := range r.cash {
		if !idMatch(params.AccountIDs, t.TradingAccountID) {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if !inWindow(t.Date, params.Since, params.Until) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *stubRepo) CountCashTransactions(ctx context.Context, params repository.ListCashTransactionsParams) (int64, error) {
	items, _ := r.ListCashTransactions(ctx, params)
	return int64(len(items)), nil
}

func (r *stubRepo) InsertSpotPositionTx(tx *gorm.DB, item *models.SpotPosition) error {
	item.ID = r.id()
	cp := *item
	r.spots[item.ID] = &cp
	return nil
}

func (r *stubRepo) GetSpotPositionByID(ctx context.Context, id uint64) (*models.SpotPosition, error) {
	p, ok := r.spots[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *stubRepo) GetSpotPositionForUpdateTx(tx *gorm.DB, id uint64) (*models.SpotPosition, error) {
	return r.GetSpotPositionByID(context.Background(), id)
}

func (r *stubRepo) UpdateSpotPositionTx(tx *gorm.DB, id uint64, updates map[string]any) error {
	p, ok := r.spots[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "avg_entry_price":
			p.AvgEntryPrice = v.(decimal.Decimal)
		case "remaining_quantity":
			p.RemainingQuantity = v.(decimal.Decimal)
		case "realized_pnl":
			p.RealizedPnL = v.(decimal.Decimal)
		case "status":
			p.Status = v.(string)
		case "last_activity_at":
			p.LastActivityAt = v.(time.Time)
		}
	}
	return nil
}

func (r *stubRepo) ListSpotPositions(ctx context.Context, params repository.ListSpotPositionsParams) ([]models.SpotPosition, error) {
	var out []models.SpotPosition
	for _, p := range r.spots {
		if !idMatch(params.AccountIDs, p.TradingAccountID) {
			continue
		}
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubRepo) CountSpotPositions(ctx context.Context, params repository.ListSpotPositionsParams) (int64, error) {
	items, _ := r.ListSpotPositions(ctx, params)
	return int64(len(items)), nil
}

func (r *stubRepo) InsertSpotFillTx(tx *gorm.DB, item *models.SpotFill) error {
	item.ID = r.id()
	r.fills = append(r.fills, *item)
	return nil
}

func (r *stubRepo) ListSpotFillsByPositionID(ctx context.Context, positionID uint64) ([]models.SpotFill, error) {
	var out []models.SpotFill
	for _, f := range r.fills {
		if f.SpotPositionID == positionID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *stubRepo) CountSpotFillsByTypeTx(tx *gorm.DB, positionID uint64, fillType string) (int64, error) {
	var n int64
	for _, f := range r.fills {
		if f.SpotPositionID == positionID && f.Type == fillType {
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) SumSpotBuyOutlayTx(tx *gorm.DB, positionID uint64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, f := range r.fills {
		if f.SpotPositionID == positionID && f.Type == models.FillBuy {
			sum = sum.Add(f.Price.Mul(f.Quantity)).Add(f.Fee)
		}
	}
	return sum, nil
}

func (r *stubRepo) DeleteSpotPositionTx(tx *gorm.DB, id uint64) error {
	delete(r.spots, id)
	kept := r.fills[:0]
	for _, f := range r.fills {
		if f.SpotPositionID != id {
			kept = append(kept, f)
		}
	}
	r.fills = kept
	return nil
}

func (r *stubRepo) InsertFuturesPositionTx(tx *gorm.DB, item *models.FuturesPosition) error {
	item.ID = r.id()
	cp := *item
	r.futures[item.ID] = &cp
	return nil
}

func (r *stubRepo) GetFuturesPositionByID(ctx context.Context, id uint64) (*models.FuturesPosition, error) {
	p, ok := r.futures[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *stubRepo) GetFuturesPositionForUpdateTx(tx *gorm.DB, id uint64) (*models.FuturesPosition, error) {
	return r.GetFuturesPositionByID(context.Background(), id)
}

func (r *stubRepo) UpdateFuturesPositionTx(tx *gorm.DB, id uint64, updates map[string]any) error {
	p, ok := r.futures[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "status":
			p.Status = v.(string)
		case "exit_price":
			price := v.(decimal.Decimal)
			p.ExitPrice = &price
		case "fee":
			p.Fee = v.(decimal.Decimal)
		case "pnl":
			pnl := v.(decimal.Decimal)
			p.PnL = &pnl
		case "exit_reason":
			switch reason := v.(type) {
			case string:
				p.ExitReason = &reason
			case *string:
				p.ExitReason = reason
			}
		case "exited_at":
			at := v.(time.Time)
			p.ExitedAt = &at
		case "notes":
			notes := v.(string)
			p.Notes = &notes
		}
	}
	return nil
}

func (r *stubRepo) ListFuturesPositions(ctx context.Context, params repository.ListFuturesPositionsParams) ([]models.FuturesPosition, error) {
	var out []models.FuturesPosition
	for _, p := range r.futures {
		if !idMatch(params.AccountIDs, p.TradingAccountID) {
			continue
		}
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		if params.Year != nil {
			inYear := p.EnteredAt.Year() == *params.Year ||
				(p.ExitedAt != nil && p.ExitedAt.Year() == *params.Year)
			if !inYear {
				continue
			}
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubRepo) CountFuturesPositions(ctx context.Context, params repository.ListFuturesPositionsParams) (int64, error) {
	items, _ := r.ListFuturesPositions(ctx, params)
	return int64(len(items)), nil
}

func (r *stubRepo) DeleteFuturesPositionTx(tx *gorm.DB, id uint64) error {
	delete(r.futures, id)
	return nil
}

func (r *stubRepo) SumNetFlow(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range r.cash {
		if !idMatch(accountIDs, t.TradingAccountID) || !inWindow(t.Date, since, until) {
			continue
		}
		if t.Type == models.CashDeposit {
			sum = sum.Add(t.Amount)
		} else {
			sum = sum.Sub(t.Amount)
		}
	}
	return sum, nil
}

func (r *stubRepo) SumCashByType(ctx context.Context, accountIDs []uint64, txType string, since, until *time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range r.cash {
		if t.Type != txType {
			continue
		}
		if !idMatch(accountIDs, t.TradingAccountID) || !inWindow(t.Date, since, until) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (r *stubRepo) SumFuturesRealizedPnL(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.futures {
		if !idMatch(accountIDs, p.TradingAccountID) {
			continue
		}
		if p.Status != models.FuturesClosed || p.PnL == nil || p.ExitedAt == nil {
			continue
		}
		if !inWindow(*p.ExitedAt, since, until) {
			continue
		}
		sum = sum.Add(*p.PnL)
	}
	return sum, nil
}

func (r *stubRepo) SumSpotSellPnL(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, f := range r.fills {
		if f.Type != models.FillSell || f.RealizedPnL == nil {
			continue
		}
		p, ok := r.spots[f.SpotPositionID]
		if !ok || !idMatch(accountIDs, p.TradingAccountID) {
			continue
		}
		if !inWindow(f.FilledAt, since, until) {
			continue
		}
		sum = sum.Add(*f.RealizedPnL)
	}
	return sum, nil
}

func (r *stubRepo) SumSpotBuyFees(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, f := range r.fills {
		if f.Type != models.FillBuy {
			continue
		}
		p, ok := r.spots[f.SpotPositionID]
		if !ok || !idMatch(accountIDs, p.TradingAccountID) {
			continue
		}
		if !inWindow(f.FilledAt, since, until) {
			continue
		}
		sum = sum.Add(f.Fee)
	}
	return sum, nil
}

func (r *stubRepo) SumOpenSpotCostBasis(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.spots {
		if !idMatch(accountIDs, p.TradingAccountID) || p.Status != models.SpotOpen {
			continue
		}
		sum = sum.Add(p.AvgEntryPrice.Mul(p.RemainingQuantity))
	}
	return sum, nil
}

func (r *stubRepo) SumOpenFuturesMargin(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.futures {
		if !idMatch(accountIDs, p.TradingAccountID) || p.Status != models.FuturesOpen {
			continue
		}
		sum = sum.Add(p.Margin)
	}
	return sum, nil
}

func (r *stubRepo) TradeStats(ctx context.Context, accountIDs []uint64) (repository.TradeStats, error) {
	var stats repository.TradeStats
	stats.NetProfit = decimal.Zero
	for _, p := range r.spots {
		if !idMatch(accountIDs, p.TradingAccountID) {
			continue
		}
		if p.Status == models.SpotOpen {
			stats.OpenPositions++
			continue
		}
		stats.ClosedTrades++
		stats.NetProfit = stats.NetProfit.Add(p.RealizedPnL)
		if p.RealizedPnL.GreaterThan(decimal.Zero) {
			stats.Wins++
		} else {
			stats.Losses++
		}
	}
	for _, p := range r.futures {
		if !idMatch(accountIDs, p.TradingAccountID) {
			continue
		}
		switch p.Status {
		case models.FuturesOpen:
			stats.OpenPositions++
		case models.FuturesClosed:
			stats.ClosedTrades++
			if p.PnL != nil {
				stats.NetProfit = stats.NetProfit.Add(*p.PnL)
				if p.PnL.GreaterThan(decimal.Zero) {
					stats.Wins++
				} else {
					stats.Losses++
				}
			}
		}
	}
	return stats, nil
}

func (r *stubRepo) DailySpotActivity(ctx context.Context, accountIDs []uint64, year int) ([]repository.DailyActivityRow, error) {
	byDay := map[time.Time]*repository.DailyActivityRow{}
	for _, f := range r.fills {
		p, ok := r.spots[f.SpotPositionID]
		if !ok || !idMatch(accountIDs, p.TradingAccountID) || f.FilledAt.Year() != year {
			continue
		}
		day := f.FilledAt.UTC().Truncate(24 * time.Hour)
		row, ok := byDay[day]
		if !ok {
			row = &repository.DailyActivityRow{Day: day, PnL: decimal.Zero}
			byDay[day] = row
		}
		row.Trades++
		if f.RealizedPnL != nil {
			row.PnL = row.PnL.Add(*f.RealizedPnL)
		}
	}
	var out []repository.DailyActivityRow
	for _, row := range byDay {
		out = append(out, *row)
	}
	return out, nil
}

func (r *stubRepo) MonthlySpotSellPnL(ctx context.Context, accountIDs []uint64, year int) ([]repository.MonthlyPnLRow, error) {
	rows := map[int]*repository.MonthlyPnLRow{}
	for _, f := range r.fills {
		if f.Type != models.FillSell || f.RealizedPnL == nil || f.FilledAt.Year() != year {
			continue
		}
		p, ok := r.spots[f.SpotPositionID]
		if !ok || !idMatch(accountIDs, p.TradingAccountID) {
			continue
		}
		m := int(f.FilledAt.Month())
		row, ok := rows[m]
		if !ok {
			row = &repository.MonthlyPnLRow{Month: m, PnL: decimal.Zero}
			rows[m] = row
		}
		row.Trades++
		row.PnL = row.PnL.Add(*f.RealizedPnL)
	}
	var out []repository.MonthlyPnLRow
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

func (r *stubRepo) MonthlyFuturesPnL(ctx context.Context, accountIDs []uint64, year int) ([]repository.MonthlyPnLRow, error) {
	rows := map[int]*repository.MonthlyPnLRow{}
	for _, p := range r.futures {
		if !idMatch(accountIDs, p.TradingAccountID) {
			continue
		}
		if p.Status != models.FuturesClosed || p.PnL == nil || p.ExitedAt == nil || p.ExitedAt.Year() != year {
			continue
		}
		m := int(p.ExitedAt.Month())
		row, ok := rows[m]
		if !ok {
			row = &repository.MonthlyPnLRow{Month: m, PnL: decimal.Zero}
			rows[m] = row
		}
		row.Trades++
		row.PnL = row.PnL.Add(*p.PnL)
	}
	var out []repository.MonthlyPnLRow
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

func (r *stubRepo) ActivityYears(ctx context.Context, accountIDs []uint64) ([]int, error) {
	seen := map[int]bool{}
	for _, f := range r.fills {
		seen[f.FilledAt.Year()] = true
	}
	for _, p := range r.futures {
		seen[p.EnteredAt.Year()] = true
	}
	var out []int
	for y := range seen {
		out = append(out, y)
	}
	return out, nil
}

func (r *stubRepo) InsertBalanceAudit(ctx context.Context, item *models.BalanceAudit) error {
	item.ID = r.id()
	r.audits = append(r.audits, *item)
	return nil
}

func (r *stubRepo) ListBalanceAudits(ctx context.Context, limit int) ([]models.BalanceAudit, error) {
	return r.audits, nil
}

func idMatch(ids []uint64, id uint64) bool {
	if len(ids) == 0 {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func inWindow(t time.Time, since, until *time.Time) bool {
	if since != nil && t.Before(*since) {
		return false
	}
	if until != nil && t.After(*until) {
		return false
	}
	return true
}

var _ repository.Repository = (*stubRepo)(nil)
