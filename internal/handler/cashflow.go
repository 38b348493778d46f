package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
	"tradejournal/internal/service"
)

type CashflowHandler struct {
	Ledger  *service.LedgerService
	Reports *service.ReportService
}

func (h *CashflowHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/cashflow")
	g.POST("", h.create)
	g.GET("", h.list)
}

type createCashflowRequest struct {
	AccountID uint64          `json:"account_id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Date      *string         `json:"date"`
	Notes     *string         `json:"notes"`
}

// @Summary Record a deposit or withdrawal
// @Tags cashflow
// @Accept json
// @Param request body createCashflowRequest true "transaction"
// @Success 200 {object} models.CashTransaction
// @Router /api/v1/cashflow [post]
func (h *CashflowHandler) create(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req createCashflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date", nil)
		return
	}
	cmd := service.CashCmd{
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Date:      date,
		Notes:     req.Notes,
	}
	var (
		item *models.CashTransaction
		err  error
	)
	switch strings.ToUpper(strings.TrimSpace(req.Type)) {
	case models.CashDeposit:
		item, err = h.Ledger.Deposit(c.Request.Context(), cmd)
	case models.CashWithdraw:
		item, err = h.Ledger.Withdraw(c.Request.Context(), cmd)
	default:
		Error(c, http.StatusBadRequest, "type must be DEPOSIT or WITHDRAW", nil)
		return
	}
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Cash activity log
// @Description Transactions in range plus inflow/outflow totals and the balance change over the window.
// @Tags cashflow
// @Param account_id query string false "comma-separated account ids"
// @Param type query string false "DEPOSIT or WITHDRAW"
// @Param since query string false "RFC3339 or YYYY-MM-DD"
// @Param until query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {object} service.ActivityLog
// @Router /api/v1/cashflow [get]
func (h *CashflowHandler) list(c *gin.Context) {
	if h.Reports == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	params := repository.ListCashTransactionsParams{
		Since:   timeQueryPtr(c, "since"),
		Until:   timeQueryPtr(c, "until"),
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		OrderBy: "date",
		Asc:     boolPtr(false),
	}
	if v := strQueryPtr(c, "type"); v != nil {
		upper := strings.ToUpper(*v)
		params.Type = &upper
	}
	log, err := h.Reports.Activity(c.Request.Context(), accountIDsQuery(c), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, log, paginationMeta(params.Limit, params.Offset, log.Total))
}
