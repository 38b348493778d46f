package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"tradejournal/internal/cache"
	"tradejournal/internal/config"
	cronrunner "tradejournal/internal/cron"
	"tradejournal/internal/db"
	"tradejournal/internal/handler"
	"tradejournal/internal/ledger"
	"tradejournal/internal/logger"
	gormrepository "tradejournal/internal/repository/gorm"
	"tradejournal/internal/service"

	_ "tradejournal/docs"
)

// @title Trade Journal API
// @version 1.0
// @description Personal trading journal: position ledger and balance reconciliation.
// @BasePath /
func main() {
	cfgPath := os.Getenv("TJ_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TJ_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	epsilon := ledger.DefaultEpsilon
	if raw := strings.TrimSpace(cfg.Ledger.CloseEpsilon); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			logger.Warn("invalid close_epsilon, using default", zap.String("value", raw))
		} else {
			epsilon = parsed
		}
	}
	locks := ledger.NewAccountLocks(cfg.Ledger.LockTimeout)
	calc := ledger.NewCalculator(epsilon)

	ledgerSvc := service.NewLedgerService(store, locks, calc, logger)
	reconSvc := service.NewReconstructionService(store, logger)
	reportSvc := service.NewReportService(store, reconSvc, logger)
	auditSvc := service.NewAuditService(store, logger)

	var redisStore *cache.RedisStore
	if cfg.Cache.Enabled {
		redisStore = cache.NewRedisStore(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisStore.Client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, dashboard cache disabled", zap.Error(err))
			redisStore = nil
		}
		cancel()
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	accountsHandler := &handler.AccountsHandler{Repo: store, Ledger: ledgerSvc}
	accountsHandler.Register(engine)
	cashflowHandler := &handler.CashflowHandler{Ledger: ledgerSvc, Reports: reportSvc}
	cashflowHandler.Register(engine)
	spotHandler := &handler.SpotHandler{Repo: store, Ledger: ledgerSvc}
	spotHandler.Register(engine)
	futuresHandler := &handler.FuturesHandler{Repo: store, Ledger: ledgerSvc}
	futuresHandler.Register(engine)
	reportsHandler := &handler.ReportsHandler{
		Reports:        reportSvc,
		Reconstruction: reconSvc,
		Audit:          auditSvc,
		Cache:          redisStore,
		CacheTTL:       cfg.Cache.DashboardTTL,
		Logger:         logger,
	}
	reportsHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err := cronRunner.Add(cfg.Cron.BalanceAudit, func(ctx context.Context) {
			if _, err := auditSvc.RunOnce(ctx); err != nil {
				logger.Warn("cron balance audit failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register balance audit failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
