package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"erpconsole/internal/model"
	"erpconsole/internal/rbac"
	"erpconsole/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         UserResponse `json:"user"`
}

// Claims are carried by access tokens.
type Claims struct {
	Role rbac.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, req RefreshRequest) error
	Me(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ParseAccessToken(token string) (*Claims, error)
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type authService struct {
	users     repository.UserRepository
	tokens    repository.RefreshTokenRepository
	audit     AuditService
	txManager repository.TransactionManager
	cfg       AuthConfig
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	audit AuditService,
	txManager repository.TransactionManager,
	cfg AuthConfig,
) AuthService {
	return &authService{users: users, tokens: tokens, audit: audit, txManager: txManager, cfg: cfg, now: time.Now}
}

var errBadCredentials = fmt.Errorf("incorrect email or password: %w", ErrUnauthorized)

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}
	if !user.IsActive {
		return nil, fmt.Errorf("inactive user: %w", ErrForbidden)
	}

	res, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, user.ID, model.ActionLogin, "users", user.ID, "")
	return res, nil
}

// Register is open sign-up; new accounts always start as viewers.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:     email,
		Password:  hashed,
		Role:      rbac.RoleViewer,
		IsActive:  true,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	s.audit.Record(ctx, user.ID, model.ActionCreate, "users", user.ID, "registered")
	return mapUser(user), nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed, so a second use of it fails.
func (s *authService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	invalid := fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)

	var res *TokenResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rt, err := s.tokens.FindByToken(txCtx, req.RefreshToken)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid
			}
			return err
		}
		deleted, err := s.tokens.Delete(txCtx, rt.Token)
		if err != nil {
			return err
		}
		if !deleted || !rt.ExpiresAt.After(s.now()) {
			return invalid
		}
		if !rt.User.IsActive || rt.User.IsDeleted {
			return invalid
		}
		res, err = s.issue(txCtx, &rt.User)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *authService) Logout(ctx context.Context, req RefreshRequest) error {
	_, err := s.tokens.Delete(ctx, req.RefreshToken)
	return err
}

func (s *authService) Me(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundErr("user", err)
	}
	return mapUser(user), nil
}

func (s *authService) ParseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) issue(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := s.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
			ID:        uuid.NewString(),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	opaque, err := randomToken()
	if err != nil {
		return nil, err
	}
	rt := &model.RefreshToken{
		UserID:    user.ID,
		Token:     opaque,
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: opaque,
		TokenType:    "bearer",
		User:         *mapUser(user),
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
