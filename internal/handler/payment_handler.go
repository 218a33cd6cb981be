package handler

import (
	"net/http"

	"erpconsole/internal/middleware"
	"erpconsole/internal/rbac"
	"erpconsole/internal/service"
	"erpconsole/pkg/pagination"
	"erpconsole/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	auth           *middleware.Auth
}

func NewPaymentHandler(paymentService service.PaymentService, auth *middleware.Auth) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, auth: auth}
}

// RegisterRoutes binds the /payments endpoints
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/payments", h.auth.Authenticate())
	{
		g.GET("/", middleware.Require(rbac.PermView), h.List)
		g.GET("/:id", middleware.Require(rbac.PermView), h.Get)
		g.POST("/", middleware.Require(rbac.PermCreate), h.Create)
		g.PUT("/:id", middleware.Require(rbac.PermEdit), h.Update)
		g.DELETE("/:id", middleware.Require(rbac.PermDelete), h.Delete)
		g.POST("/:id/apply", middleware.Require(rbac.PermEdit), h.Apply)
	}
}

// List handles GET /payments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        limit            query     int     false  "Page size (default 50, max 200)"
// @Param        offset           query     int     false  "Rows to skip"
// @Param        include_deleted  query     bool    false  "Include soft-deleted rows"
// @Param        q                query     string  false  "Search method, note or status"
// @Success      200  {object}  response.Response{data=[]model.Payment}
// @Router       /payments/ [get]
func (h *PaymentHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.paymentService.List(c.Request.Context(), listQuery(p))
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, items, total, p)
}

// Get handles GET /payments/:id
// @Summary      Get payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=model.Payment}
// @Failure      404  {object}  response.Response
// @Router       /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.paymentService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Create handles POST /payments
// @Summary      Create payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePaymentRequest  true  "Payment"
// @Success      201      {object}  response.Response{data=model.Payment}
// @Failure      422      {object}  response.Response
// @Router       /payments/ [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.paymentService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// Update handles PUT /payments/:id
// @Summary      Update payment
// @Description  Partial update; omitted fields are left unchanged
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Payment ID"
// @Param        payload  body      service.UpdatePaymentRequest  true  "Payment"
// @Success      200      {object}  response.Response{data=model.Payment}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /payments/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.paymentService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Delete handles DELETE /payments/:id
// @Summary      Delete payment
// @Description  Soft delete
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.paymentService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "deleted": true}))
}

// Apply handles POST /payments/:id/apply
// @Summary      Apply payment to an invoice
// @Description  Allocates part of the payment. Rejected when the amount exceeds the unapplied remainder.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Payment ID"
// @Param        payload  body      service.ApplyPaymentRequest  true  "Application"
// @Success      200      {object}  response.Response{data=model.Payment}
// @Failure      422      {object}  response.Response
// @Router       /payments/{id}/apply [post]
func (h *PaymentHandler) Apply(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.ApplyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	payment, err := h.paymentService.Apply(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}
