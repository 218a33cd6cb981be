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

type ProductHandler struct {
	productService service.ProductService
	auth           *middleware.Auth
}

func NewProductHandler(productService service.ProductService, auth *middleware.Auth) *ProductHandler {
	return &ProductHandler{productService: productService, auth: auth}
}

// RegisterRoutes binds the /products endpoints
func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/products", h.auth.Authenticate())
	{
		g.GET("/", middleware.Require(rbac.PermView), h.List)
		g.GET("/:id", middleware.Require(rbac.PermView), h.Get)
		g.POST("/", middleware.Require(rbac.PermCreate), h.Create)
		g.PUT("/:id", middleware.Require(rbac.PermEdit), h.Update)
		g.DELETE("/:id", middleware.Require(rbac.PermDelete), h.Delete)
	}
}

// List handles GET /products
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        limit            query     int     false  "Page size (default 50, max 200)"
// @Param        offset           query     int     false  "Rows to skip"
// @Param        include_deleted  query     bool    false  "Include soft-deleted rows"
// @Param        q                query     string  false  "Search SKU or name"
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Router       /products/ [get]
func (h *ProductHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.productService.List(c.Request.Context(), listQuery(p))
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, items, total, p)
}

// Get handles GET /products/:id
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Create handles POST /products
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProductRequest  true  "Product"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      422      {object}  response.Response
// @Router       /products/ [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.productService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// Update handles PUT /products/:id
// @Summary      Update product
// @Description  Partial update; omitted fields are left unchanged
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Product"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.productService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Delete handles DELETE /products/:id
// @Summary      Delete product
// @Description  Soft delete
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "deleted": true}))
}
