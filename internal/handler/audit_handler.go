package handler

import (
	"erpconsole/internal/middleware"
	"erpconsole/internal/rbac"
	"erpconsole/internal/repository"
	"erpconsole/internal/service"
	"erpconsole/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Auth
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Auth) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs/", h.auth.Authenticate(), middleware.Require(rbac.PermViewReports), h.List)
}

// List handles GET /audit-logs
// @Summary      List audit logs
// @Description  Newest first. Requires the view_reports permission.
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        limit      query     int     false  "Page size (default 50, max 200)"
// @Param        offset     query     int     false  "Rows to skip"
// @Param        entity     query     string  false  "Entity name, e.g. orders"
// @Param        entity_id  query     string  false  "Entity ID"
// @Param        action     query     string  false  "CREATE, UPDATE, DELETE, STATUS, APPLY or LOGIN"
// @Success      200  {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /audit-logs/ [get]
func (h *AuditHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.auditService.List(c.Request.Context(), repository.AuditFilter{
		Limit:    p.Limit,
		Offset:   p.Offset,
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		Action:   c.Query("action"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, logs, total, p)
}
