package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tradejournal/internal/repository"
	"tradejournal/internal/service"
)

type SpotHandler struct {
	Repo   repository.Repository
	Ledger *service.LedgerService
}

func (h *SpotHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/spot")
	g.POST("", h.open)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/fills", h.fill)
	g.DELETE("/:id", h.remove)
}

type openSpotRequest struct {
	AccountID       uint64           `json:"account_id"`
	Symbol          string           `json:"symbol"`
	Price           decimal.Decimal  `json:"price"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Fee             decimal.Decimal  `json:"fee"`
	Date            *string          `json:"date"`
	TargetBuyPrice  *decimal.Decimal `json:"target_buy_price"`
	TargetSellPrice *decimal.Decimal `json:"target_sell_price"`
	HoldingPeriod   *string          `json:"holding_period"`
	Notes           *string          `json:"notes"`
	Screenshot      *string          `json:"screenshot"`
}

// @Summary Open a spot position with its first buy
// @Tags spot
// @Accept json
// @Param request body openSpotRequest true "opening buy"
// @Success 200 {object} models.SpotPosition
// @Router /api/v1/spot [post]
func (h *SpotHandler) open(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req openSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date", nil)
		return
	}
	position, err := h.Ledger.OpenSpot(c.Request.Context(), service.OpenSpotCmd{
		AccountID:       req.AccountID,
		Symbol:          req.Symbol,
		Price:           req.Price,
		Quantity:        req.Quantity,
		Fee:             req.Fee,
		Date:            date,
		TargetBuyPrice:  req.TargetBuyPrice,
		TargetSellPrice: req.TargetSellPrice,
		HoldingPeriod:   req.HoldingPeriod,
		Notes:           req.Notes,
		Screenshot:      req.Screenshot,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, position, nil)
}

type spotFillRequest struct {
	Type       string          `json:"type"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Fee        decimal.Decimal `json:"fee"`
	Date       *string         `json:"date"`
	Notes      *string         `json:"notes"`
	Screenshot *string         `json:"screenshot"`
}

// @Summary Apply a DCA buy or a partial/full sell
// @Tags spot
// @Accept json
// @Param id path int true "position id"
// @Param request body spotFillRequest true "fill"
// @Success 200 {object} models.SpotFill
// @Router /api/v1/spot/{id}/fills [post]
func (h *SpotHandler) fill(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req spotFillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date", nil)
		return
	}
	fill, err := h.Ledger.FillSpot(c.Request.Context(), service.FillSpotCmd{
		PositionID: id,
		Type:       req.Type,
		Price:      req.Price,
		Quantity:   req.Quantity,
		Fee:        req.Fee,
		Date:       date,
		Notes:      req.Notes,
		Screenshot: req.Screenshot,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, fill, nil)
}

// @Summary List spot positions
// @Tags spot
// @Param account_id query string false "comma-separated account ids"
// @Param status query string false "OPEN or CLOSED"
// @Param symbol query string false "symbol filter"
// @Success 200 {array} models.SpotPosition
// @Router /api/v1/spot [get]
func (h *SpotHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListSpotPositionsParams{
		AccountIDs: accountIDsQuery(c),
		Limit:      intQuery(c, "limit", 50),
		Offset:     intQuery(c, "offset", 0),
		OrderBy:    "last_activity_at",
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
	items, err := h.Repo.ListSpotPositions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountSpotPositions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary Get a spot position with its fill history
// @Tags spot
// @Param id path int true "position id"
// @Success 200 {object} map[string]any
// @Router /api/v1/spot/{id} [get]
func (h *SpotHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	position, err := h.Repo.GetSpotPositionByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if position == nil {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	fills, err := h.Repo.ListSpotFillsByPositionID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"position": position, "fills": fills}, nil)
}

// @Summary Delete a spot position
// @Description Only OPEN positions with no sells can be deleted; the buy outlay is refunded.
// @Tags spot
// @Param id path int true "position id"
// @Success 200 {object} map[string]string
// @Router /api/v1/spot/{id} [delete]
func (h *SpotHandler) remove(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := h.Ledger.DeleteSpotPosition(c.Request.Context(), id); err != nil {
		writeLedgerError(c, err)
		return
	}
	Ok(c, gin.H{"deleted": "ok"}, nil)
}
