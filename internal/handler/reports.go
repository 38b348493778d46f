package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradejournal/internal/cache"
	"tradejournal/internal/service"
)

// ReportsHandler serves the read-only aggregate views. The dashboard
// summary is the hot path and goes through the optional redis cache; the
// other views hit the DB directly.
type ReportsHandler struct {
	Reports        *service.ReportService
	Reconstruction *service.ReconstructionService
	Audit          *service.AuditService
	Cache          *cache.RedisStore
	CacheTTL       time.Duration
	Logger         *zap.Logger
}

func (h *ReportsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.GET("/dashboard", h.dashboard)
	g.GET("/portfolio", h.portfolio)
	g.GET("/calendar", h.calendar)
	g.GET("/reports/monthly", h.monthly)
	g.GET("/balance/reconstruct", h.reconstruct)
	g.GET("/audits", h.audits)
	g.POST("/audits/run", h.runAudit)
}

func dashboardCacheKey(accountIDs []uint64) string {
	if len(accountIDs) == 0 {
		return "tj:dashboard:all"
	}
	sorted := append([]uint64(nil), accountIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, 0, len(sorted))
	for _, id := range sorted {
		parts = append(parts, strconv.FormatUint(id, 10))
	}
	return "tj:dashboard:" + strings.Join(parts, ",")
}

// @Summary Dashboard summary
// @Description Total balance, change percentages, net profit, win rate, open positions. Cached briefly when redis is configured.
// @Tags reports
// @Param account_id query string false "comma-separated account ids"
// @Success 200 {object} service.DashboardSummary
// @Router /api/v1/dashboard [get]
func (h *ReportsHandler) dashboard(c *gin.Context) {
	if h.Reports == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	ctx := c.Request.Context()
	accountIDs := accountIDsQuery(c)
	key := dashboardCacheKey(accountIDs)

	if h.Cache != nil {
		if raw, hit, err := h.Cache.Get(ctx, key); err == nil && hit {
			var cached service.DashboardSummary
			if json.Unmarshal(raw, &cached) == nil {
				Ok(c, cached, map[string]any{"cached": true})
				return
			}
		} else if err != nil && h.Logger != nil {
			h.Logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary, err := h.Reports.Dashboard(ctx, accountIDs)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if h.Cache != nil {
		ttl := h.CacheTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		if raw, err := json.Marshal(summary); err == nil {
			if err := h.Cache.Set(ctx, key, raw, ttl); err != nil && h.Logger != nil {
				h.Logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	Ok(c, summary, nil)
}

// @Summary Portfolio allocation
// @Tags reports
// @Param user_id query int false "owner filter"
// @Success 200 {object} service.Portfolio
// @Router /api/v1/portfolio [get]
func (h *ReportsHandler) portfolio(c *gin.Context) {
	if h.Reports == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var userID *uint64
	if v := intQuery(c, "user_id", 0); v > 0 {
		id := uint64(v)
		userID = &id
	}
	portfolio, err := h.Reports.Portfolio(c.Request.Context(), userID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, portfolio, nil)
}

// @Summary Trade calendar for a year
// @Tags reports
// @Param year query int false "defaults to current year"
// @Param account_id query string false "comma-separated account ids"
// @Success 200 {object} service.Calendar
// @Router /api/v1/calendar [get]
func (h *ReportsHandler) calendar(c *gin.Context) {
	if h.Reports == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	calendar, err := h.Reports.Calendar(c.Request.Context(), accountIDsQuery(c), intQuery(c, "year", 0))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, calendar, nil)
}

// @Summary Monthly PnL report for a year
// @Tags reports
// @Param year query int false "defaults to current year"
// @Param account_id query string false "comma-separated account ids"
// @Success 200 {object} service.MonthlyReport
// @Router /api/v1/reports/monthly [get]
func (h *ReportsHandler) monthly(c *gin.Context) {
	if h.Reports == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	report, err := h.Reports.Monthly(c.Request.Context(), accountIDsQuery(c), intQuery(c, "year", 0))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, report, nil)
}

// reconstructDays sizes the daily series for a start time: one point per
// elapsed day, floored at one so a start earlier today still yields a
// window, capped at a year. No start means the 30-day default.
func reconstructDays(start *time.Time) int {
	if start == nil {
		return 30
	}
	span := int(time.Since(*start).Hours() / 24)
	if span < 1 {
		return 1
	}
	if span > 366 {
		return 366
	}
	return span
}

// @Summary Reconstruct historical balances
// @Description Walks back from the current balance through cash flows and realized results: a window summary (start balance, change pct, net flow, pnl) plus one point per day from start to now.
// @Tags reports
// @Param start query string false "RFC3339 or YYYY-MM-DD, defaults to 30 days back"
// @Param account_id query string false "comma-separated account ids"
// @Success 200 {object} service.Reconstruction
// @Router /api/v1/balance/reconstruct [get]
func (h *ReportsHandler) reconstruct(c *gin.Context) {
	if h.Reconstruction == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	ctx := c.Request.Context()
	accountIDs := accountIDsQuery(c)

	start := timeQueryPtr(c, "start")
	days := reconstructDays(start)
	startAt := time.Now().UTC().AddDate(0, 0, -days)
	if start != nil {
		startAt = *start
	}
	summary, err := h.Reconstruction.Reconstruct(ctx, accountIDs, startAt)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	points, err := h.Reconstruction.DailySeries(ctx, accountIDs, days)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"summary": summary, "points": points}, nil)
}

// @Summary Recent balance-conservation audit runs
// @Tags reports
// @Param limit query int false "max rows"
// @Success 200 {array} models.BalanceAudit
// @Router /api/v1/audits [get]
func (h *ReportsHandler) audits(c *gin.Context) {
	if h.Audit == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Audit.Recent(c.Request.Context(), intQuery(c, "limit", 20))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Run the balance-conservation audit now
// @Tags reports
// @Success 200 {object} models.BalanceAudit
// @Router /api/v1/audits/run [post]
func (h *ReportsHandler) runAudit(c *gin.Context) {
	if h.Audit == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	audit, err := h.Audit.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, audit, nil)
}
