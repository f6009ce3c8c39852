package services

import (
	"context"
	"strings"
	"time"

	"carecircle/internal/domain/visit"
	"carecircle/internal/repository"
	carecircle_errors "carecircle/pkg/errors"

	"github.com/google/uuid"
)

// VisitService keeps the attachment parent alive. Scheduling and conflict
// detection are upstream concerns; this is deliberately thin.
type VisitService struct {
	repo repository.VisitRepository
}

func NewVisitService(repo repository.VisitRepository) *VisitService {
	return &VisitService{repo: repo}
}

func (s *VisitService) Create(ctx context.Context, v *visit.Visit) error {
	if v.CircleID == uuid.Nil || strings.TrimSpace(v.Title) == "" || v.ScheduledAt.IsZero() {
		return carecircle_errors.ErrInvalidInput
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now
	return s.repo.Create(ctx, v)
}

func (s *VisitService) GetByID(ctx context.Context, id uuid.UUID) (visit.Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *VisitService) ListByCircle(ctx context.Context, circleID uuid.UUID) ([]visit.Visit, error) {
	return s.repo.ListByCircle(ctx, circleID)
}
