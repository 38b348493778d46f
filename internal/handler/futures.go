package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tradejournal/internal/repository"
	"tradejournal/internal/service"
)

type FuturesHandler struct {
	Repo   repository.Repository
	Ledger *service.LedgerService
}

func (h *FuturesHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/futures")
	g.POST("", h.open)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/close", h.close)
	g.POST("/:id/cancel", h.cancel)
	g.DELETE("/:id", h.remove)
}

type openFuturesRequest struct {
	AccountID  uint64           `json:"account_id"`
	Symbol     string           `json:"symbol"`
	Direction  string           `json:"direction"`
	Leverage   int              `json:"leverage"`
	MarginMode string           `json:"margin_mode"`
	OrderType  *string          `json:"order_type"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Margin     decimal.Decimal  `json:"margin"`
	TakeProfit *decimal.Decimal `json:"take_profit"`
	StopLoss   *decimal.Decimal `json:"stop_loss"`
	Notes      *string          `json:"notes"`
	Date       *string          `json:"date"`
}

// @Summary Open a futures position
// @Tags futures
// @Accept json
// @Param request body openFuturesRequest true "entry"
// @Success 200 {object} models.FuturesPosition
// @Router /api/v1/futures [post]
func (h *FuturesHandler) open(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req openFuturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date", nil)
		return
	}
	position, err := h.Ledger.OpenFutures(c.Request.Context(), service.OpenFuturesCmd{
		AccountID:  req.AccountID,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Leverage:   req.Leverage,
		MarginMode: req.MarginMode,
		OrderType:  req.OrderType,
		EntryPrice: req.EntryPrice,
		Quantity:   req.Quantity,
		Margin:     req.Margin,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Notes:      req.Notes,
		Date:       date,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, position, nil)
}

type closeFuturesRequest struct {
	ExitPrice decimal.Decimal `json:"exit_price"`
	Fee       decimal.Decimal `json:"fee"`
	Reason    *string         `json:"reason"`
	Date      *string         `json:"date"`
}

// @Summary Close a futures position
// @Description Settles margin plus net PnL back into the account balance exactly once.
// @Tags futures
// @Accept json
// @Param id path int true "position id"
// @Param request body closeFuturesRequest true "exit"
// @Success 200 {object} models.FuturesPosition
// @Router /api/v1/futures/{id}/close [post]
func (h *FuturesHandler) close(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req closeFuturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date", nil)
		return
	}
	position, err := h.Ledger.CloseFutures(c.Request.Context(), service.CloseFuturesCmd{
		PositionID: id,
		ExitPrice:  req.ExitPrice,
		Fee:        req.Fee,
		Reason:     req.Reason,
		Date:       date,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, position, nil)
}

type cancelFuturesRequest struct {
	Note *string `json:"note"`
	Date *string `json:"date"`
}

// @Summary Cancel an open futures position
// @Description Returns the margin untouched and records a zero-PnL terminal state.
// @Tags futures
// @Accept json
// @Param id path int true "position id"
// @Success 200 {object} models.FuturesPosition
// @Router /api/v1/futures/{id}/cancel [post]
func (h *FuturesHandler) cancel(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req cancelFuturesRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date", nil)
		return
	}
	position, err := h.Ledger.CancelFutures(c.Request.Context(), service.CancelFuturesCmd{
		PositionID: id,
		Note:       req.Note,
		Date:       date,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, position, nil)
}

// @Summary List futures positions
// @Tags futures
// @Param account_id query string false "comma-separated account ids"
// @Param status query string false "OPEN, CLOSED or CANCELLED"
// @Param direction query string false "LONG or SHORT"
// @Param year query int false "entered or exited that year"
// @Success 200 {array} models.FuturesPosition
// @Router /api/v1/futures [get]
func (h *FuturesHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListFuturesPositionsParams{
		AccountIDs: accountIDsQuery(c),
		Limit:      intQuery(c, "limit", 50),
		Offset:     intQuery(c, "offset", 0),
		OrderBy:    "entered_at",
		Asc:        boolPtr(false),
	}
	if v := strQueryPtr(c, "status"); v != nil {
		upper := strings.ToUpper(*v)
		params.Status = &upper
	}
	if v := strQueryPtr(c, "symbol"); v != nil {
		upper := strings.ToUpper(*v)
		params.Symbol = &upper
	}
	if v := strQueryPtr(c, "direction"); v != nil {
		upper := strings.ToUpper(*v)
		params.Direction = &upper
	}
	if v := intQuery(c, "year", 0); v > 0 {
		params.Year = &v
	}
	items, err := h.Repo.ListFuturesPositions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountFuturesPositions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary Get one futures position
// @Tags futures
// @Param id path int true "position id"
// @Success 200 {object} models.FuturesPosition
// @Router /api/v1/futures/{id} [get]
func (h *FuturesHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetFuturesPositionByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Delete a futures position
// @Description OPEN positions refund their margin, CANCELLED ones delete cleanly, CLOSED ones are kept.
// @Tags futures
// @Param id path int true "position id"
// @Success 200 {object} map[string]string
// @Router /api/v1/futures/{id} [delete]
func (h *FuturesHandler) remove(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := h.Ledger.DeleteFuturesPosition(c.Request.Context(), id); err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, gin.H{"deleted": "ok"}, nil)
}
