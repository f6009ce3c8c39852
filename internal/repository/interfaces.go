package repository

import (
	"context"

	"carecircle/internal/domain/attachment"
	"carecircle/internal/domain/visit"

	"github.com/google/uuid"
)

// CircleStats aggregates photo storage usage for a circle.
type CircleStats struct {
	PhotoCount      int64
	CompressedBytes int64
	OriginalBytes   int64
}

type AttachmentRepository interface {
	Create(ctx context.Context, a *attachment.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (attachment.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateCaption(ctx context.Context, id uuid.UUID, caption string) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	ListByVisit(ctx context.Context, visitID uuid.UUID, includeArchived bool) ([]attachment.Attachment, error)
	// CountLive returns live rows of the given kind for a visit; archived
	// photos do not count against quota.
	CountLive(ctx context.Context, visitID uuid.UUID, kind attachment.Kind) (int64, error)
	CircleStorageStats(ctx context.Context, circleID uuid.UUID) (CircleStats, error)
}

type VisitRepository interface {
	Create(ctx context.Context, v *visit.Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (visit.Visit, error)
	ListByCircle(ctx context.Context, circleID uuid.UUID) ([]visit.Visit, error)
	SetHasVoiceNote(ctx context.Context, visitID uuid.UUID, hasVoiceNote bool) error
	// RecomputeVoiceFlag re-queries sibling voice attachments and stores the
	// derived flag in one transaction, returning the value it settled on.
	RecomputeVoiceFlag(ctx context.Context, visitID uuid.UUID) (bool, error)
}
