package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradejournal/internal/models"
)

// Repository is the storage boundary of the ledger core. Write paths that
// must be atomic with a balance change take a *gorm.DB so the ledger service
// can compose them inside one InTx unit of work; read paths run unlocked
// against last-committed state.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Accounts
	CreateAccount(ctx context.Context, item *models.TradingAccount) error
	GetAccountByID(ctx context.Context, id uint64) (*models.TradingAccount, error)
	GetAccountForUpdateTx(tx *gorm.DB, id uint64) (*models.TradingAccount, error)
	SetAccountBalanceTx(tx *gorm.DB, id uint64, balance decimal.Decimal) error
	ListAccounts(ctx context.Context, params ListAccountsParams) ([]models.TradingAccount, error)
	ListAccountIDs(ctx context.Context) ([]uint64, error)
	SumAccountBalances(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error)
	AccountHasActivity(ctx context.Context, id uint64) (bool, error)
	DeleteAccount(ctx context.Context, id uint64) error

	// Cash ledger (append-only)
	InsertCashTransactionTx(tx *gorm.DB, item *models.CashTransaction) error
	ListCashTransactions(ctx context.Context, params ListCashTransactionsParams) ([]models.CashTransaction, error)
	CountCashTransactions(ctx context.Context, params ListCashTransactionsParams) (int64, error)

	// Spot positions and their fill log
	InsertSpotPositionTx(tx *gorm.DB, item *models.SpotPosition) error
	GetSpotPositionByID(ctx context.Context, id uint64) (*models.SpotPosition, error)
	GetSpotPositionForUpdateTx(tx *gorm.DB, id uint64) (*models.SpotPosition, error)
	UpdateSpotPositionTx(tx *gorm.DB, id uint64, updates map[string]any) error
	ListSpotPositions(ctx context.Context, params ListSpotPositionsParams) ([]models.SpotPosition, error)
	CountSpotPositions(ctx context.Context, params ListSpotPositionsParams) (int64, error)
	InsertSpotFillTx(tx *gorm.DB, item *models.SpotFill) error
	ListSpotFillsByPositionID(ctx context.Context, positionID uint64) ([]models.SpotFill, error)
	CountSpotFillsByTypeTx(tx *gorm.DB, positionID uint64, fillType string) (int64, error)
	SumSpotBuyOutlayTx(tx *gorm.DB, positionID uint64) (decimal.Decimal, error)
	DeleteSpotPositionTx(tx *gorm.DB, id uint64) error

	// Futures positions
	InsertFuturesPositionTx(tx *gorm.DB, item *models.FuturesPosition) error
	GetFuturesPositionByID(ctx context.Context, id uint64) (*models.FuturesPosition, error)
	GetFuturesPositionForUpdateTx(tx *gorm.DB, id uint64) (*models.FuturesPosition, error)
	UpdateFuturesPositionTx(tx *gorm.DB, id uint64, updates map[string]any) error
	ListFuturesPositions(ctx context.Context, params ListFuturesPositionsParams) ([]models.FuturesPosition, error)
	CountFuturesPositions(ctx context.Context, params ListFuturesPositionsParams) (int64, error)
	DeleteFuturesPositionTx(tx *gorm.DB, id uint64) error

	// Window sums feeding reconstruction and the conservation audit.
	// Nil bounds mean unbounded; empty accountIDs means every account.
	SumNetFlow(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error)
	SumCashByType(ctx context.Context, accountIDs []uint64, txType string, since, until *time.Time) (decimal.Decimal, error)
	SumFuturesRealizedPnL(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error)
	SumSpotSellPnL(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error)
	SumSpotBuyFees(ctx context.Context, accountIDs []uint64, since, until *time.Time) (decimal.Decimal, error)
	SumOpenSpotCostBasis(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error)
	SumOpenFuturesMargin(ctx context.Context, accountIDs []uint64) (decimal.Decimal, error)

	// Report feeds
	TradeStats(ctx context.Context, accountIDs []uint64) (TradeStats, error)
	DailySpotActivity(ctx context.Context, accountIDs []uint64, year int) ([]DailyActivityRow, error)
	MonthlySpotSellPnL(ctx context.Context, accountIDs []uint64, year int) ([]MonthlyPnLRow, error)
	MonthlyFuturesPnL(ctx context.Context, accountIDs []uint64, year int) ([]MonthlyPnLRow, error)
	ActivityYears(ctx context.Context, accountIDs []uint64) ([]int, error)

	// Conservation audit trail
	InsertBalanceAudit(ctx context.Context, item *models.BalanceAudit) error
	ListBalanceAudits(ctx context.Context, limit int) ([]models.BalanceAudit, error)
}

type ListAccountsParams struct {
	UserID       *uint64
	StrategyType *string
	MarketType   *string
}

type ListCashTransactionsParams struct {
	AccountIDs []uint64
	Type       *string
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
	OrderBy    string
	Asc        *bool
}

type ListSpotPositionsParams struct {
	AccountIDs []uint64
	Status     *string
	Symbol     *string
	Limit      int
	Offset     int
	OrderBy    string
	Asc        *bool
}

type ListFuturesPositionsParams struct {
	AccountIDs []uint64
	Status     *string
	Symbol     *string
	Direction  *string
	// Year keeps positions entered or exited in that calendar year.
	Year    *int
	Limit   int
	Offset  int
	OrderBy string
	Asc     *bool
}

// TradeStats aggregates closed-trade outcomes across spot and futures.
type TradeStats struct {
	ClosedTrades  int64
	Wins          int64
	Losses        int64
	NetProfit     decimal.Decimal
	OpenPositions int64
}

// DailyActivityRow is one calendar day: how many fills landed on it and the
// realized PnL they contributed (buys count as activity with zero PnL).
type DailyActivityRow struct {
	Day    time.Time
	Trades int64
	PnL    decimal.Decimal
}

type MonthlyPnLRow struct {
	Month  int
	Trades int64
	PnL    decimal.Decimal
}
