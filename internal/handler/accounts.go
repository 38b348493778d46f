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

type AccountsHandler struct {
	Repo   repository.Repository
	Ledger *service.LedgerService
}

func (h *AccountsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/accounts")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.remove)
}

type createAccountRequest struct {
	UserID         uint64          `json:"user_id"`
	Name           string          `json:"name"`
	Exchange       string          `json:"exchange"`
	Currency       string          `json:"currency"`
	MarketType     string          `json:"market_type"`
	StrategyType   string          `json:"strategy_type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// @Summary Create trading account
// @Tags accounts
// @Accept json
// @Param request body createAccountRequest true "account"
// @Success 200 {object} models.TradingAccount
// @Router /api/v1/accounts [post]
func (h *AccountsHandler) create(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		Error(c, http.StatusBadRequest, "name required", nil)
		return
	}
	strategy := strings.ToUpper(strings.TrimSpace(req.StrategyType))
	if strategy != models.StrategySpot && strategy != models.StrategyFutures {
		Error(c, http.StatusBadRequest, "strategy_type must be SPOT or FUTURES", nil)
		return
	}
	if req.InitialBalance.IsNegative() {
		Error(c, http.StatusBadRequest, "initial_balance must not be negative", nil)
		return
	}
	item := &models.TradingAccount{
		UserID:         req.UserID,
		Name:           name,
		Exchange:       strings.TrimSpace(req.Exchange),
		Currency:       strings.ToUpper(strings.TrimSpace(req.Currency)),
		MarketType:     strings.TrimSpace(req.MarketType),
		StrategyType:   strategy,
		InitialBalance: req.InitialBalance,
		Balance:        req.InitialBalance,
	}
	if item.Currency == "" {
		item.Currency = "USDT"
	}
	if err := h.Repo.CreateAccount(c.Request.Context(), item); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary List trading accounts
// @Tags accounts
// @Param user_id query int false "owner filter"
// @Param strategy_type query string false "SPOT or FUTURES"
// @Success 200 {array} models.TradingAccount
// @Router /api/v1/accounts [get]
func (h *AccountsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListAccountsParams{
		MarketType: strQueryPtr(c, "market_type"),
	}
	if v := strQueryPtr(c, "strategy_type"); v != nil {
		upper := strings.ToUpper(*v)
		params.StrategyType = &upper
	}
	if v := intQuery(c, "user_id", 0); v > 0 {
		id := uint64(v)
		params.UserID = &id
	}
	items, err := h.Repo.ListAccounts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Get one trading account
// @Tags accounts
// @Param id path int true "account id"
// @Success 200 {object} models.TradingAccount
// @Router /api/v1/accounts/{id} [get]
func (h *AccountsHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "account not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Delete a trading account
// @Description Fails with 409 while cash transactions or positions still reference the account.
// @Tags accounts
// @Param id path int true "account id"
// @Success 200 {object} map[string]string
// @Router /api/v1/accounts/{id} [delete]
func (h *AccountsHandler) remove(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := h.Ledger.DeleteAccount(c.Request.Context(), id); err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, gin.H{"deleted": "ok"}, nil)
}
