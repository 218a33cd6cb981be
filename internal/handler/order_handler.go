package handler

import (
	"net/http"

	"erpconsole/internal/middleware"
	"erpconsole/internal/model"
	"erpconsole/internal/rbac"
	"erpconsole/internal/service"
	"erpconsole/pkg/pagination"
	"erpconsole/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
	auth         *middleware.Auth
}

func NewOrderHandler(orderService service.OrderService, auth *middleware.Auth) *OrderHandler {
	return &OrderHandler{orderService: orderService, auth: auth}
}

// RegisterRoutes binds the /orders endpoints
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/orders", h.auth.Authenticate())
	{
		g.GET("/", middleware.Require(rbac.PermView), h.List)
		g.GET("/:id", middleware.Require(rbac.PermView), h.Get)
		g.POST("/", middleware.Require(rbac.PermCreate), h.Create)
		g.PUT("/:id", middleware.Require(rbac.PermEdit), h.Update)
		g.DELETE("/:id", middleware.Require(rbac.PermDelete), h.Delete)
		g.POST("/:id/confirm", middleware.Require(rbac.PermEdit), h.transition(model.OrderStatusConfirmed))
		g.POST("/:id/fulfill", middleware.Require(rbac.PermEdit), h.transition(model.OrderStatusFulfilled))
		g.POST("/:id/close", middleware.Require(rbac.PermEdit), h.transition(model.OrderStatusClosed))
	}
}

// List handles GET /orders
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        limit            query     int     false  "Page size (default 50, max 200)"
// @Param        offset           query     int     false  "Rows to skip"
// @Param        include_deleted  query     bool    false  "Include soft-deleted rows"
// @Param        q                query     string  false  "Search notes or status"
// @Success      200  {object}  response.Response{data=[]model.Order}
// @Router       /orders/ [get]
func (h *OrderHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.orderService.List(c.Request.Context(), listQuery(p))
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, items, total, p)
}

// Get handles GET /orders/:id
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Create handles POST /orders
// @Summary      Create order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      422      {object}  response.Response
// @Router       /orders/ [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.orderService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// Update handles PUT /orders/:id
// @Summary      Update order
// @Description  Partial update; omitted fields are left unchanged
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Order"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /orders/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.orderService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Delete handles DELETE /orders/:id
// @Summary      Delete order
// @Description  Soft delete
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.orderService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "deleted": true}))
}

// transition handles POST /orders/:id/{confirm,fulfill,close}
// @Summary      Change order status
// @Description  Moves an order to confirmed, fulfilled or closed. Closed orders are final.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /orders/{id}/confirm [post]
// @Router       /orders/{id}/fulfill [post]
// @Router       /orders/{id}/close [post]
func (h *OrderHandler) transition(next string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		order, err := h.orderService.Transition(c.Request.Context(), middleware.CurrentUserID(c), id, next)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
	}
}
