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

type CustomerHandler struct {
	customerService service.CustomerService
	auth            *middleware.Auth
}

func NewCustomerHandler(customerService service.CustomerService, auth *middleware.Auth) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, auth: auth}
}

// RegisterRoutes binds the /customers endpoints
func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/customers", h.auth.Authenticate())
	{
		g.GET("/", middleware.Require(rbac.PermView), h.List)
		g.GET("/:id", middleware.Require(rbac.PermView), h.Get)
		g.POST("/", middleware.Require(rbac.PermCreate), h.Create)
		g.PUT("/:id", middleware.Require(rbac.PermEdit), h.Update)
		g.DELETE("/:id", middleware.Require(rbac.PermDelete), h.Delete)
	}
}

// List handles GET /customers
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        limit            query     int     false  "Page size (default 50, max 200)"
// @Param        offset           query     int     false  "Rows to skip"
// @Param        include_deleted  query     bool    false  "Include soft-deleted rows"
// @Param        q                query     string  false  "Search name, email or phone"
// @Success      200  {object}  response.Response{data=[]model.Customer}
// @Router       /customers/ [get]
func (h *CustomerHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.customerService.List(c.Request.Context(), listQuery(p))
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, items, total, p)
}

// Get handles GET /customers/:id
// @Summary      Get customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Failure      404  {object}  response.Response
// @Router       /customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.customerService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Create handles POST /customers
// @Summary      Create customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCustomerRequest  true  "Customer"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      422      {object}  response.Response
// @Router       /customers/ [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req service.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.customerService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// Update handles PUT /customers/:id
// @Summary      Update customer
// @Description  Partial update; omitted fields are left unchanged
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Customer ID"
// @Param        payload  body      service.UpdateCustomerRequest  true  "Customer"
// @Success      200      {object}  response.Response{data=model.Customer}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.customerService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Delete handles DELETE /customers/:id
// @Summary      Delete customer
// @Description  Soft delete
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "deleted": true}))
}
