package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"erpconsole/internal/model"
	"erpconsole/internal/rbac"
	"erpconsole/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// DTOs for Request validation
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"omitempty,oneof=admin manager staff viewer"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password" binding:"omitempty,min=6"`
	Role      *string `json:"role" binding:"omitempty,oneof=admin manager staff viewer"`
	IsActive  *bool   `json:"is_active"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

// UserResponse is a User without its password hash.
type UserResponse struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Role             rbac.Role  `json:"role"`
	IsActive         bool       `json:"is_active"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Phone            string     `json:"phone"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CreatedByID      *uuid.UUID `json:"created_by_id"`
	LastModifiedByID *uuid.UUID `json:"last_modified_by_id"`
	IsDeleted        bool       `json:"is_deleted"`
	DeletedAt        *time.Time `json:"deleted_at"`
	DeletedByID      *uuid.UUID `json:"deleted_by_id"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actor uuid.UUID, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, q repository.ListQuery) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actor, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor, id uuid.UUID) error
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type userService struct {
	repo      repository.UserRepository
	tokens    repository.RefreshTokenRepository
	audit     AuditService
	notifier  Notifier
	txManager repository.TransactionManager
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	audit AuditService,
	notifier Notifier,
	txManager repository.TransactionManager,
) UserService {
	return &userService{repo: repo, tokens: tokens, audit: audit, notifier: notifierOrNoop(notifier), txManager: txManager}
}

func mapUser(user *model.User) *UserResponse {
	return &UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Role:             user.Role,
		IsActive:         user.IsActive,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Phone:            user.Phone,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
		CreatedByID:      user.CreatedByID,
		LastModifiedByID: user.LastModifiedByID,
		IsDeleted:        user.IsDeleted,
		DeletedAt:        user.DeletedAt,
		DeletedByID:      user.DeletedByID,
	}
}

func hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fieldErr("password too long (max 72 bytes)", "password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *userService) CreateUser(ctx context.Context, actor uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	email := normalizeEmail(req.Email)
	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("email already exists: %w", ErrConflict)
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := rbac.RoleViewer
	if req.Role != "" {
		role = rbac.ParseRole(req.Role)
	}

	user := &model.User{
		Email:     email,
		Password:  hashed,
		Role:      role,
		IsActive:  true,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if actor != uuid.Nil {
		user.Stamp(actor)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionCreate, "users", user.ID, "created user "+user.Email)
	s.notifier.Publish("users", ChangeCreated, user.ID)

	return mapUser(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundErr("user", err)
	}
	return mapUser(user), nil
}

func (s *userService) ListUsers(ctx context.Context, q repository.ListQuery) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUser(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	var user *model.User
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repo.GetByID(txCtx, id)
		if err != nil {
			return notFoundErr("user", err)
		}
		if user.IsDeleted {
			return fmt.Errorf("user is deleted: %w", ErrInvalid)
		}

		if req.Email != nil {
			email := normalizeEmail(*req.Email)
			if email != user.Email {
				taken, err := s.emailTaken(txCtx, email)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("email already exists: %w", ErrConflict)
				}
				user.Email = email
			}
		}
		if req.Password != nil {
			hashed, err := hashPassword(*req.Password)
			if err != nil {
				return err
			}
			user.Password = hashed
		}
		if req.Role != nil {
			if id == actor && rbac.ParseRole(*req.Role) != user.Role {
				return fmt.Errorf("cannot change your own role: %w", ErrForbidden)
			}
			user.Role = rbac.ParseRole(*req.Role)
		}
		revoke := req.Password != nil
		if req.IsActive != nil {
			if id == actor && !*req.IsActive {
				return fmt.Errorf("cannot deactivate yourself: %w", ErrForbidden)
			}
			if user.IsActive && !*req.IsActive {
				revoke = true
			}
			user.IsActive = *req.IsActive
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.Phone != nil {
			user.Phone = *req.Phone
		}
		user.Touch(actor)

		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if revoke {
			return s.tokens.DeleteByUser(txCtx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, model.ActionUpdate, "users", user.ID, "updated user "+user.Email)
	s.notifier.Publish("users", ChangeUpdated, user.ID)
	return mapUser(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor, id uuid.UUID) error {
	if id == actor {
		return fmt.Errorf("cannot delete yourself: %w", ErrForbidden)
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return notFoundErr("user", err)
		}
		if user.IsDeleted {
			return nil
		}
		user.MarkDeleted(actor, time.Now())
		user.IsActive = false
		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return s.tokens.DeleteByUser(txCtx, user.ID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor, model.ActionDelete, "users", id, "")
	s.notifier.Publish("users", ChangeDeleted, id)
	return nil
}

// EnsureAdmin creates the bootstrap admin when no users exist yet. It reports
// whether an account was created.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.CreateUser(ctx, uuid.Nil, CreateUserRequest{Email: email, Password: password, Role: string(rbac.RoleAdmin)})
	if err != nil {
		return false, err
	}
	return true, nil
}
