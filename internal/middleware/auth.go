package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"erpconsole/internal/model"
	"erpconsole/internal/rbac"
	"erpconsole/internal/repository"
	"erpconsole/internal/service"
	"erpconsole/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by Authenticate.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(token string) (*service.Claims, error)
}

// UserLookup loads the account behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Auth guards routes with bearer tokens and the rbac table.
type Auth struct {
	tokens TokenParser
	users  UserLookup
}

func NewAuth(tokens TokenParser, users UserLookup) *Auth {
	return &Auth{tokens: tokens, users: users}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter used by websocket clients.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if t := c.Query("token"); t != "" {
		return t, true
	}
	return "", false
}

// Authenticate validates the access token and loads the user. The role is
// read from the stored user so role changes apply without re-login.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Not authenticated"))
			return
		}

		claims, err := a.tokens.ParseAccessToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Could not validate credentials"))
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
			return
		}

		user, err := a.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User not found"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to load user"))
			return
		}
		if user.IsDeleted {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User not found"))
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Inactive user"))
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role)
		c.Next()
	}
}

// Require aborts with 403 unless the authenticated role holds every perm.
// It must run after Authenticate.
func Require(perms ...rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		for _, p := range perms {
			if !rbac.Has(role, p) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+string(p)+"'"))
				return
			}
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id, or uuid.Nil.
func CurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// CurrentRole returns the authenticated user's role; unauthenticated requests read as viewer.
func CurrentRole(c *gin.Context) rbac.Role {
	if v, ok := c.Get(ContextUserRole); ok {
		if r, ok := v.(rbac.Role); ok {
			return r
		}
	}
	return rbac.RoleViewer
}
