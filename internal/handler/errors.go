package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"erpconsole/internal/logger"
	"erpconsole/internal/repository"
	"erpconsole/internal/service"
	"erpconsole/pkg/pagination"
	"erpconsole/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusUnprocessableEntity, response.Invalid(http.StatusUnprocessableEntity, fe.Msg, response.FieldDetail{Loc: fe.Loc, Msg: fe.Msg}))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrInvalid):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	default:
		log := logger.WithComponent("handler")
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

// bindJSON decodes the body into req, writing a 400 or 422 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]response.FieldDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, response.FieldDetail{Loc: fieldLoc(fe), Msg: validationMessage(fe)})
		}
		c.JSON(http.StatusUnprocessableEntity, response.Invalid(http.StatusUnprocessableEntity, "Validation failed", details...))
		return false
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		msg := "invalid type, expected " + typeErr.Type.String()
		c.JSON(http.StatusUnprocessableEntity, response.Invalid(http.StatusUnprocessableEntity, "Validation failed", response.FieldDetail{Loc: loc, Msg: msg}))
		return false
	}

	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
	return false
}

// fieldLoc turns "CreateOrderRequest.lines[0]" into ["body","lines","0"].
// Field names are json tags once the validator's tag name func is registered.
func fieldLoc(fe validator.FieldError) []string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	loc := []string{"body"}
	for _, part := range strings.Split(ns, ".") {
		if i := strings.Index(part, "["); i >= 0 {
			loc = append(loc, part[:i], strings.Trim(part[i:], "[]"))
			continue
		}
		loc = append(loc, part)
	}
	return loc
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return "must have at least " + fe.Param() + " characters or items"
	case "max":
		return "must have at most " + fe.Param() + " characters or items"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "failed " + fe.Tag() + " validation"
}

// parseID reads the :id path parameter, writing a 400 when it is not a UUID.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id format"))
		return uuid.Nil, false
	}
	return id, true
}

// listQuery converts request pagination into a repository query.
func listQuery(p pagination.Params) repository.ListQuery {
	return repository.ListQuery{
		Limit:          p.Limit,
		Offset:         p.Offset,
		IncludeDeleted: p.IncludeDeleted,
		Status:         p.Status,
		Search:         p.Search,
	}
}

func writePage(c *gin.Context, data interface{}, total int64, p pagination.Params) {
	c.JSON(http.StatusOK, response.Page(http.StatusOK, data, response.Meta{Total: total, Limit: p.Limit, Offset: p.Offset}))
}
