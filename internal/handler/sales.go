package handler

import (
	"net/http"

	"stocksync/internal/apierror"
	"stocksync/internal/dto"
	"stocksync/internal/middleware"
	"stocksync/internal/model"
	"stocksync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Create godoc
// @Summary      Record a new sale
// @Description  Creates a pending sale: reserves stock atomically, writes the audit movement and notifies admins in realtime.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSaleRequest true "Sale detail"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Create(c.Request.Context(), actorID, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Approve godoc
// @Summary      Approve a pending sale
// @Description  Confirms the sale and rolls its revenue into the product aggregates. Idempotently rejects re-approval with 409.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Sale UUID"
// @Param        body body dto.ApproveSaleRequest false "Optional admin notes"
// @Success      200  {object} dto.SaleResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/{id}/approve [post]
func (h *SalesHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	var req dto.ApproveSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	adminID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Approve(c.Request.Context(), adminID, id, req.Notes)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reject godoc
// @Summary      Reject a pending sale
// @Description  Rejects the sale and restores its reserved stock with an inverse audit movement. Requires a reason.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true "Sale UUID"
// @Param        body body dto.RejectSaleRequest true "Rejection reason"
// @Success      200  {object} dto.SaleResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/{id}/reject [post]
func (h *SalesHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	var req dto.RejectSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	adminID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Reject(c.Request.Context(), adminID, id, req.Reason)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BulkApprove godoc
// @Summary      Approve a batch of pending sales
// @Description  Approves each sale independently; one failure never aborts the batch. Returns a per-sale result list.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.BulkApproveRequest true "Sale UUIDs"
// @Success      200  {object} dto.BulkApprovalResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/sales/bulk-approve [post]
func (h *SalesHandler) BulkApprove(c *gin.Context) {
	var req dto.BulkApproveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	adminID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.BulkApprove(c.Request.Context(), adminID, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List sales
// @Description  Returns a paginated list of sales filtered by status, date and employee. Employees only see their own sales.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        status      query string false "pending | approved | rejected | all"
// @Param        date        query string false "Date YYYY-MM-DD"
// @Param        employee_id query string false "Filter by employee UUID (admin only)"
// @Param        page        query int    false "Page (default 1)"
// @Param        limit       query int    false "Rows per page (default 50)"
// @Success      200  {object} dto.SaleListResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	claims := middleware.GetClaims(c)
	if claims.Role != model.RoleAdmin {
		// Employees are pinned to their own sales regardless of the filter
		filter.EmployeeID = claims.UserID
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list sales"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PendingCount godoc
// @Summary      Pending sales count
// @Description  Returns the current number of pending sales. Admins see the global count, employees only their own.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.PendingCountResponse
// @Router       /v1/sales/pending-count [get]
func (h *SalesHandler) PendingCount(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var employeeID *uuid.UUID
	if claims.Role != model.RoleAdmin {
		id, _ := uuid.Parse(claims.UserID)
		employeeID = &id
	}
	count, err := h.svc.PendingCount(c.Request.Context(), employeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to count pending sales"))
		return
	}
	c.JSON(http.StatusOK, dto.PendingCountResponse{Count: count})
}
