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

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	auth           *middleware.Auth
}

func NewInvoiceHandler(invoiceService service.InvoiceService, auth *middleware.Auth) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, auth: auth}
}

// RegisterRoutes binds the /invoices endpoints
func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/invoices", h.auth.Authenticate())
	{
		g.GET("/", middleware.Require(rbac.PermView), h.List)
		g.GET("/:id", middleware.Require(rbac.PermView), h.Get)
		g.POST("/", middleware.Require(rbac.PermCreate), h.Create)
		g.PUT("/:id", middleware.Require(rbac.PermEdit), h.Update)
		g.DELETE("/:id", middleware.Require(rbac.PermDelete), h.Delete)
		g.POST("/:id/post", middleware.Require(rbac.PermEdit), h.Post)
		g.POST("/:id/write-off", middleware.Require(rbac.PermEdit), h.WriteOff)
	}
}

// List handles GET /invoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        limit            query     int     false  "Page size (default 50, max 200)"
// @Param        offset           query     int     false  "Rows to skip"
// @Param        include_deleted  query     bool    false  "Include soft-deleted rows"
// @Param        q                query     string  false  "Search notes or status"
// @Success      200  {object}  response.Response{data=[]model.Invoice}
// @Router       /invoices/ [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.invoiceService.List(c.Request.Context(), listQuery(p))
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, items, total, p)
}

// Get handles GET /invoices/:id
// @Summary      Get invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      404  {object}  response.Response
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Create handles POST /invoices
// @Summary      Create invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateInvoiceRequest  true  "Invoice"
// @Success      201      {object}  response.Response{data=model.Invoice}
// @Failure      422      {object}  response.Response
// @Router       /invoices/ [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.invoiceService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// Update handles PUT /invoices/:id
// @Summary      Update invoice
// @Description  Partial update; omitted fields are left unchanged
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Invoice"
// @Success      200      {object}  response.Response{data=model.Invoice}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.invoiceService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Delete handles DELETE /invoices/:id
// @Summary      Delete invoice
// @Description  Soft delete
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.invoiceService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "deleted": true}))
}

// Post handles POST /invoices/:id/post
// @Summary      Post invoice
// @Description  Issues a draft invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      400  {object}  response.Response
// @Router       /invoices/{id}/post [post]
func (h *InvoiceHandler) Post(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.Post(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// WriteOff handles POST /invoices/:id/write-off
// @Summary      Write off invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      400  {object}  response.Response
// @Router       /invoices/{id}/write-off [post]
func (h *InvoiceHandler) WriteOff(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.WriteOff(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}
