package handler

import (
	"net/http"

	"stocksync/internal/apierror"
	"stocksync/internal/dto"
	"stocksync/internal/middleware"
	"stocksync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler { return &StockHandler{svc: svc} }

// Adjust godoc
// @Summary      Manual stock adjustment
// @Description  Applies a signed delta to a product's stock and records the paired audit movement in the same transaction.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Product UUID"
// @Param        body body dto.AdjustStockRequest true "Delta and reason"
// @Success      200  {object} dto.MovementResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/products/{id}/stock [patch]
func (h *StockHandler) Adjust(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Adjust(c.Request.Context(), actorID, productID, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      List stock movements
// @Description  Returns the paginated audit trail of stock mutations, filterable by product and direction.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query string false "Product UUID"
// @Param        type       query string false "in | out"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 100)"
// @Success      200  {object} dto.MovementListResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/stock/movements [get]
func (h *StockHandler) Movements(c *gin.Context) {
	var filter dto.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list movements"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Alerts godoc
// @Summary      Low-stock alerts
// @Description  Returns every active product at or below its minimum stock level, flagged critical or low.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.StockAlertResponse
// @Router       /v1/stock/alerts [get]
func (h *StockHandler) Alerts(c *gin.Context) {
	resp, err := h.svc.Alerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to load stock alerts"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
