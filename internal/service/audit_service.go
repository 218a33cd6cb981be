package service

import (
	"context"
	"fmt"

	"erpconsole/internal/logger"
	"erpconsole/internal/model"
	"erpconsole/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
	Entity    string `json:"entity"`
	EntityID  string `json:"entity_id"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

type AuditService interface {
	Record(ctx context.Context, actor uuid.UUID, action, entity string, entityID uuid.UUID, details string)
	List(ctx context.Context, f repository.AuditFilter) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Record writes an audit row. Failures are logged and never fail the caller's operation.
func (s *auditService) Record(ctx context.Context, actor uuid.UUID, action, entity string, entityID uuid.UUID, details string) {
	entry := &model.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: entityID.String(),
		Details:  details,
	}
	if actor != uuid.Nil {
		entry.UserID = &actor
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		log := logger.WithComponent("audit")
		log.Error().Err(err).Str("entity", entity).Str("action", action).Msg("failed to write audit log")
	}
}

func (s *auditService) List(ctx context.Context, f repository.AuditFilter) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userID := ""
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		res = append(res, AuditLogResponse{
			ID:        l.ID.String(),
			UserID:    userID,
			Action:    l.Action,
			Entity:    l.Entity,
			EntityID:  l.EntityID,
			Details:   l.Details,
			CreatedAt: l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return res, total, nil
}
