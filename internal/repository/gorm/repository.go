package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Accounts ---------------------------------------------------------------

func (s *Store) CreateAccount(ctx context.Context, item *models.TradingAccount) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetAccountByID(ctx context.Context, id uint64) (*models.TradingAccount, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.TradingAccount
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetAccountForUpdateTx locks the account row for the rest of the
// transaction. Every balance mutation starts here.
func (s *Store) GetAccountForUpdateTx(tx *gorm.DB, id uint64) (*models.TradingAccount, error) {
	if tx == nil || id == 0 {
		return nil, nil
	}
	var item models.TradingAccount
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SetAccountBalanceTx(tx *gorm.DB, id uint64, balance decimal.Decimal) error {
	if tx == nil || id == 0 {
		return nil
	}
	return tx.Model(&models.TradingAccount{}).
		Where("id = ?", id).
		Update("balance", balance).Error
}

func (s *Store) ListAccounts(ctx context.Context, params repository.ListAccountsParams) ([]models.TradingAccount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.TradingAccount{})
	if params.UserID != nil && *params.UserID != 0 {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.StrategyType != nil && strings.TrimSpace(*params.StrategyType) != "" {
		query = query.Where("strategy_type = ?", strings.TrimSpace(*params.StrategyType))
	}
	if params.MarketType != nil && strings.TrimSpace(*params.MarketType) != "" {
		query = query.Where("market_type = ?", strings.TrimSpace(*params.MarketType))
	}
	var items []models.TradingAccount
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListAccountIDs(ctx context.Context) ([]uint64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []uint64
	err := s.db.WithContext(ctx).
		Model(&models.TradingAccount{}).
		Order("id asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Empty accountIDs means every account, here and in every sum below.
func (s *Store) SumAccountBalances(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.TradingAccount{}).
		Select("COALESCE(SUM(balance),0)")
	if len(accountIDs) > 0 {
		query = query.Where("id IN ?", accountIDs)
	}
	var out decimal.Decimal
	if err := query.Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

func (s *Store) AccountHasActivity(ctx context.Context, id uint64) (bool, error) {
	if s == nil || s.db == nil || id == 0 {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.CashTransaction{}).
		Where("trading_account_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := s.db.WithContext(ctx).
		Model(&models.SpotPosition{}).
		Where("trading_account_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := s.db.WithContext(ctx).
		Model(&models.FuturesPosition{}).
		Where("trading_account_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.TradingAccount{}, "id = ?", id).Error
}

// --- Cash ledger ------------------------------------------------------------

func (s *Store) InsertCashTransactionTx(tx *gorm.DB, item *models.CashTransaction) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func cashTransactionsQuery(query *gorm.DB, params repository.ListCashTransactionsParams) *gorm.DB {
	if len(params.AccountIDs) > 0 {
		query = query.Where("trading_account_id IN ?", params.AccountIDs)
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("type = ?", strings.TrimSpace(*params.Type))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("date >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("date <= ?", params.Until.UTC())
	}
	return query
}

func (s *Store) ListCashTransactions(ctx context.Context, params repository.ListCashTransactionsParams) ([]models.CashTransaction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := cashTransactionsQuery(s.db.WithContext(ctx).Model(&models.CashTransaction{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "date")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.CashTransaction
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCashTransactions(ctx context.Context, params repository.ListCashTransactionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := cashTransactionsQuery(s.db.WithContext(ctx).Model(&models.CashTransaction{}), params).
		Count(&total).Error
	return total, err
}

// --- Spot positions ---------------------------------------------------------

func (s *Store) InsertSpotPositionTx(tx *gorm.DB, item *models.SpotPosition) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) GetSpotPositionByID(ctx context.Context, id uint64) (*models.SpotPosition, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.SpotPosition
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetSpotPositionForUpdateTx(tx *gorm.DB, id uint64) (*models.SpotPosition, error) {
	if tx == nil || id == 0 {
		return nil, nil
	}
	var item models.SpotPosition
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateSpotPositionTx(tx *gorm.DB, id uint64, updates map[string]any) error {
	if tx == nil || id == 0 || len(updates) == 0 {
		return nil
	}
	return tx.Model(&models.SpotPosition{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func spotPositionsQuery(query *gorm.DB, params repository.ListSpotPositionsParams) *gorm.DB {
	if len(params.AccountIDs) > 0 {
		query = query.Where("trading_account_id IN ?", params.AccountIDs)
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.ToUpper(strings.TrimSpace(*params.Status)))
	}
	if params.Symbol != nil && strings.TrimSpace(*params.Symbol) != "" {
		query = query.Where("symbol = ?", strings.ToUpper(strings.TrimSpace(*params.Symbol)))
	}
	return query
}

func (s *Store) ListSpotPositions(ctx context.Context, params repository.ListSpotPositionsParams) ([]models.SpotPosition, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := spotPositionsQuery(s.db.WithContext(ctx).Model(&models.SpotPosition{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "last_activity_at")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.SpotPosition
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSpotPositions(ctx context.Context, params repository.ListSpotPositionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := spotPositionsQuery(s.db.WithContext(ctx).Model(&models.SpotPosition{}), params).
		Count(&total).Error
	return total, err
}

func (s *Store) InsertSpotFillTx(tx *gorm.DB, item *models.SpotFill) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) ListSpotFillsByPositionID(ctx context.Context, positionID uint64) ([]models.SpotFill, error) {
	if s == nil || s.db == nil || positionID == 0 {
		return nil, nil
	}
	var items []models.SpotFill
	err := s.db.WithContext(ctx).
		Model(&models.SpotFill{}).
		Where("spot_position_id = ?", positionID).
		Order("filled_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSpotFillsByTypeTx(tx *gorm.DB, positionID uint64, fillType string) (int64, error) {
	if tx == nil || positionID == 0 {
		return 0, nil
	}
	var total int64
	err := tx.Model(&models.SpotFill{}).
		Where("spot_position_id = ?", positionID).
		Where("type = ?", strings.ToUpper(strings.TrimSpace(fillType))).
		Count(&total).Error
	return total, err
}

// SumSpotBuyOutlayTx is what the position cost in cash so far:
// Σ(price*quantity + fee) over its BUY fills.
func (s *Store) SumSpotBuyOutlayTx(tx *gorm.DB, positionID uint64) (decimal.Decimal, error) {
	if tx == nil || positionID == 0 {
		return decimal.Zero, nil
	}
	var out decimal.Decimal
	err := tx.Model(&models.SpotFill{}).
		Select("COALESCE(SUM(price * quantity + fee),0)").
		Where("spot_position_id = ?", positionID).
		Where("type = ?", models.FillBuy).
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

func (s *Store) DeleteSpotPositionTx(tx *gorm.DB, id uint64) error {
	if tx == nil || id == 0 {
		return nil
	}
	if err := tx.Delete(&models.SpotFill{}, "spot_position_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&models.SpotPosition{}, "id = ?", id).Error
}

// --- Futures positions ------------------------------------------------------

func (s *Store) InsertFuturesPositionTx(tx *gorm.DB, item *models.FuturesPosition) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) GetFuturesPositionByID(ctx context.Context, id uint64) (*models.FuturesPosition, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.FuturesPosition
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetFuturesPositionForUpdateTx(tx *gorm.DB, id uint64) (*models.FuturesPosition, error) {
	if tx == nil || id == 0 {
		return nil, nil
	}
	var item models.FuturesPosition
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateFuturesPositionTx(tx *gorm.DB, id uint64, updates map[string]any) error {
	if tx == nil || id == 0 || len(updates) == 0 {
		return nil
	}
	return tx.Model(&models.FuturesPosition{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func futuresPositionsQuery(query *gorm.DB, params repository.ListFuturesPositionsParams) *gorm.DB {
	if len(params.AccountIDs) > 0 {
		query = query.Where("trading_account_id IN ?", params.AccountIDs)
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.ToUpper(strings.TrimSpace(*params.Status)))
	}
	if params.Symbol != nil && strings.TrimSpace(*params.Symbol) != "" {
		query = query.Where("symbol = ?", strings.ToUpper(strings.TrimSpace(*params.Symbol)))
	}
	if params.Direction != nil && strings.TrimSpace(*params.Direction) != "" {
		query = query.Where("direction = ?", strings.ToUpper(strings.TrimSpace(*params.Direction)))
	}
	if params.Year != nil && *params.Year > 0 {
		query = query.Where(
			"(EXTRACT(YEAR FROM entered_at) = ? OR EXTRACT(YEAR FROM exited_at) = ?)",
			*params.Year, *params.Year,
		)
	}
	return query
}

func (s *Store) ListFuturesPositions(ctx context.Context, params repository.ListFuturesPositionsParams) ([]models.FuturesPosition, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := futuresPositionsQuery(s.db.WithContext(ctx).Model(&models.FuturesPosition{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "entered_at")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.FuturesPosition
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountFuturesPositions(ctx context.Context, params repository.ListFuturesPositionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := futuresPositionsQuery(s.db.WithContext(ctx).Model(&models.FuturesPosition{}), params).
		Count(&total).Error
	return total, err
}

func (s *Store) DeleteFuturesPositionTx(tx *gorm.DB, id uint64) error {
	if tx == nil || id == 0 {
		return nil
	}
	return tx.Delete(&models.FuturesPosition{}, "id = ?", id).Error
}

// --- Window sums ------------------------------------------------------------

func applyWindow(query *gorm.DB, column string, since, until *time.Time) *gorm.DB {
	if since != nil && !since.IsZero() {
		query = query.Where(column+" >= ?", since.UTC())
	}
	if until != nil && !until.IsZero() {
		query = query.Where(column+" <= ?", until.UTC())
	}
	return query
}

func accountFilter(query *gorm.DB, column string, accountIDs []uint64) *gorm.DB {
	if len(accountIDs) > 0 {
		query = query.Where(column+" IN ?", accountIDs)
	}
	return query
}

func (s *Store) SumNetFlow(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.CashTransaction{}).
		Select("COALESCE(SUM(CASE WHEN type = 'DEPOSIT' THEN amount ELSE -amount END),0)")
	query = accountFilter(query, "trading_account_id", accountIDs)
	query = applyWindow(query, "date", since, until)
	var out decimal.Decimal
	if err := query.Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

func (s *Store) SumCashByType(ctx context.Context, accountIDs []uint64, txType string, since, until *time.Time) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.CashTransaction{}).
		Select("COALESCE(SUM(amount),0)").
		Where("type = ?", strings.ToUpper(strings.TrimSpace(txType)))
	query = accountFilter(query, "trading_account_id", accountIDs)
	query = applyWindow(query, "date", since, until)
	var out decimal.Decimal
	if err := query.Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

func (s *Store) SumFuturesRealizedPnL(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.FuturesPosition{}).
		Select("COALESCE(SUM(COALESCE(pnl,0)),0)").
		Where("status = ?", models.FuturesClosed)
	query = accountFilter(query, "trading_account_id", accountIDs)
	query = applyWindow(query, "exited_at", since, until)
	var out decimal.Decimal
	if err := query.Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

func (s *Store) SumSpotSellPnL(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error) {
	return s.sumSpotFills(ctx, accountIDs, models.FillSell, "COALESCE(SUM(COALESCE(f.realized_pnl,0)),0)", since, until)
}

func (s *Store) SumSpotBuyFees(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error) {
	return s.sumSpotFills(ctx, accountIDs, models.FillBuy, "COALESCE(SUM(f.fee),0)", since, until)
}

func (s *Store) sumSpotFills(ctx context.Context, accountIDs []uint64, fillType, selectExpr string, since, until *time.Time) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	query := s.db.WithContext(ctx).
		Table("spot_fills AS f").
		Select(selectExpr).
		Joins("JOIN spot_positions AS p ON p.id = f.spot_position_id").
		Where("f.type = ?", fillType)
	query = accountFilter(query, "p.trading_account_id", accountIDs)
	query = applyWindow(query, "f.filled_at", since, until)
	var out decimal.Decimal
	if err := query.Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

func (s *Store) SumOpenSpotCostBasis(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.SpotPosition{}).
		Select("COALESCE(SUM(avg_entry_price * remaining_quantity),0)").
		Where("status = ?", models.SpotOpen)
	query = accountFilter(query, "trading_account_id", accountIDs)
	var out decimal.Decimal
	if err := query.Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

func (s *Store) SumOpenFuturesMargin(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.FuturesPosition{}).
		Select("COALESCE(SUM(margin),0)").
		Where("status = ?", models.FuturesOpen)
	query = accountFilter(query, "trading_account_id", accountIDs)
	var out decimal.Decimal
	if err := query.Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out, nil
}

// --- Report feeds -----------------------------------------------------------

func (s *Store) TradeStats(ctx context.Context, accountIDs []uint64) (repository.TradeStats, error) {
	if s == nil || s.db == nil {
		return repository.TradeStats{NetProfit: decimal.Zero}, nil
	}
	var futures struct {
		Closed int64
		Wins   int64
		Open   int64
		PnL    decimal.Decimal
	}
	query := s.db.WithContext(ctx).
		Model(&models.FuturesPosition{}).
		Select(`
			COALESCE(SUM(CASE WHEN status = 'CLOSED' THEN 1 ELSE 0 END),0) AS closed,
			COALESCE(SUM(CASE WHEN status = 'CLOSED' AND pnl > 0 THEN 1 ELSE 0 END),0) AS wins,
			COALESCE(SUM(CASE WHEN status = 'OPEN' THEN 1 ELSE 0 END),0) AS open,
			COALESCE(SUM(CASE WHEN status = 'CLOSED' THEN COALESCE(pnl,0) ELSE 0 END),0) AS pn_l
		`)
	query = accountFilter(query, "trading_account_id", accountIDs)
	if err := query.Scan(&futures).Error; err != nil {
		return repository.TradeStats{}, err
	}

	var spot struct {
		Closed int64
		Wins   int64
		Open   int64
		PnL    decimal.Decimal
	}
	query = s.db.WithContext(ctx).
		Model(&models.SpotPosition{}).
		Select(`
			COALESCE(SUM(CASE WHEN status = 'CLOSED' THEN 1 ELSE 0 END),0) AS closed,
			COALESCE(SUM(CASE WHEN status = 'CLOSED' AND realized_pnl > 0 THEN 1 ELSE 0 END),0) AS wins,
			COALESCE(SUM(CASE WHEN status = 'OPEN' THEN 1 ELSE 0 END),0) AS open,
			COALESCE(SUM(CASE WHEN status = 'CLOSED' THEN realized_pnl ELSE 0 END),0) AS pn_l
		`)
	query = accountFilter(query, "trading_account_id", accountIDs)
	if err := query.Scan(&spot).Error; err != nil {
		return repository.TradeStats{}, err
	}

	closed := futures.Closed + spot.Closed
	wins := futures.Wins + spot.Wins
	return repository.TradeStats{
		ClosedTrades:  closed,
		Wins:          wins,
		Losses:        closed - wins,
		NetProfit:     futures.PnL.Add(spot.PnL),
		OpenPositions: futures.Open + spot.Open,
	}, nil
}

func (s *Store) DailySpotActivity(ctx context.Context, accountIDs []uint64, year int) ([]repository.DailyActivityRow, error) {
	if s == nil || s.db == nil || year <= 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Table("spot_fills AS f").
		Select(`
			DATE(f.filled_at) AS day,
			COUNT(*) AS trades,
			COALESCE(SUM(COALESCE(f.realized_pnl,0)),0) AS pn_l
		`).
		Joins("JOIN spot_positions AS p ON p.id = f.spot_position_id").
		Where("EXTRACT(YEAR FROM f.filled_at) = ?", year)
	query = accountFilter(query, "p.trading_account_id", accountIDs)
	var rows []repository.DailyActivityRow
	err := query.
		Group("DATE(f.filled_at)").
		Order("day asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) MonthlySpotSellPnL(ctx context.Context, accountIDs []uint64, year int) ([]repository.MonthlyPnLRow, error) {
	if s == nil || s.db == nil || year <= 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Table("spot_fills AS f").
		Select(`
			CAST(EXTRACT(MONTH FROM f.filled_at) AS int) AS month,
			COUNT(*) AS trades,
			COALESCE(SUM(COALESCE(f.realized_pnl,0)),0) AS pn_l
		`).
		Joins("JOIN spot_positions AS p ON p.id = f.spot_position_id").
		Where("f.type = ?", models.FillSell).
		Where("EXTRACT(YEAR FROM f.filled_at) = ?", year)
	query = accountFilter(query, "p.trading_account_id", accountIDs)
	var rows []repository.MonthlyPnLRow
	err := query.
		Group("EXTRACT(MONTH FROM f.filled_at)").
		Order("month asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) MonthlyFuturesPnL(ctx context.Context, accountIDs []uint64, year int) ([]repository.MonthlyPnLRow, error) {
	if s == nil || s.db == nil || year <= 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.FuturesPosition{}).
		Select(`
			CAST(EXTRACT(MONTH FROM exited_at) AS int) AS month,
			COUNT(*) AS trades,
			COALESCE(SUM(COALESCE(pnl,0)),0) AS pn_l
		`).
		Where("status = ?", models.FuturesClosed).
		Where("EXTRACT(YEAR FROM exited_at) = ?", year)
	query = accountFilter(query, "trading_account_id", accountIDs)
	var rows []repository.MonthlyPnLRow
	err := query.
		Group("EXTRACT(MONTH FROM exited_at)").
		Order("month asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ActivityYears(ctx context.Context, accountIDs []uint64) ([]int, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	// Match-all sentinel keeps the query shape stable with and without a
	// filter; postgres folds the TRUE branch away.
	filtered := len(accountIDs) > 0
	var years []int
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT year FROM (
			SELECT CAST(EXTRACT(YEAR FROM f.filled_at) AS int) AS year
			FROM spot_fills f
			JOIN spot_positions p ON p.id = f.spot_position_id
			WHERE (NOT @filtered OR p.trading_account_id IN @ids)
			UNION
			SELECT CAST(EXTRACT(YEAR FROM entered_at) AS int)
			FROM futures_positions
			WHERE (NOT @filtered OR trading_account_id IN @ids)
			UNION
			SELECT CAST(EXTRACT(YEAR FROM exited_at) AS int)
			FROM futures_positions
			WHERE exited_at IS NOT NULL AND (NOT @filtered OR trading_account_id IN @ids)
		) AS y
		ORDER BY year DESC
	`, map[string]any{"filtered": filtered, "ids": idsOrSentinel(accountIDs)}).Scan(&years).Error
	if err != nil {
		return nil, err
	}
	return years, nil
}

// idsOrSentinel keeps the IN list non-empty so the SQL stays valid when no
// filter applies.
func idsOrSentinel(ids []uint64) []uint64 {
	if len(ids) == 0 {
		return []uint64{0}
	}
	return ids
}

// --- Balance audits ---------------------------------------------------------

func (s *Store) InsertBalanceAudit(ctx context.Context, item *models.BalanceAudit) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListBalanceAudits(ctx context.Context, limit int) ([]models.BalanceAudit, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 50)
	var items []models.BalanceAudit
	err := s.db.WithContext(ctx).
		Model(&models.BalanceAudit{}).
		Order("ran_at desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

// normalizeLimit caps page sizes; a negative limit means "no limit" and is
// passed through so gorm omits the LIMIT clause.
func normalizeLimit(limit, fallback int) int {
	if limit < 0 {
		return -1
	}
	if limit == 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
