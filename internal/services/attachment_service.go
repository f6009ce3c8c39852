package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carecircle/internal/domain/attachment"
	"carecircle/internal/repository"
	carecircle_errors "carecircle/pkg/errors"
	"carecircle/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttachmentService covers everything after an attachment exists: listing,
// captioning, archiving, URL resolution, deletion and storage statistics.
type AttachmentService struct {
	attachments   repository.AttachmentRepository
	visits        repository.VisitRepository
	blobs         BlobStore
	log           *logger.Logger
	blobOpTimeout time.Duration
}

func NewAttachmentService(
	attachments repository.AttachmentRepository,
	visits repository.VisitRepository,
	blobs BlobStore,
	log *logger.Logger,
	blobOpTimeout time.Duration,
) *AttachmentService {
	if blobOpTimeout <= 0 {
		blobOpTimeout = 30 * time.Second
	}
	return &AttachmentService{
		attachments:   attachments,
		visits:        visits,
		blobs:         blobs,
		log:           log,
		blobOpTimeout: blobOpTimeout,
	}
}

// Delete removes the blobs, then the metadata row, then recomputes the
// parent's voice flag for voice notes. Blob failures are warnings: the
// user-visible record wins over an orphaned-but-invisible object.
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	keys := []string{a.StoragePath}
	if a.ThumbnailPath.Valid {
		keys = append(keys, a.ThumbnailPath.String)
	}
	opCtx, cancel := context.WithTimeout(ctx, s.blobOpTimeout)
	if err := s.blobs.Remove(opCtx, keys...); err != nil {
		s.log.Warn("blob delete failed, removing metadata anyway",
			zap.String("attachment_id", id.String()),
			zap.Strings("keys", keys),
			zap.Error(err))
	}
	cancel()

	// Metadata failure is terminal; the blob may already be gone, a known
	// inconsistency window surfaced to the caller.
	if err := s.attachments.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", carecircle_errors.ErrMetadataWrite, err)
	}

	if a.Kind == attachment.KindVoice {
		if _, err := s.visits.RecomputeVoiceFlag(ctx, a.VisitID); err != nil {
			s.log.Warn("voice flag recompute failed after delete",
				zap.String("visit_id", a.VisitID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (s *AttachmentService) GetByID(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
	return s.attachments.GetByID(ctx, id)
}

// ListForVisit returns the visit's live attachments; archived photos are
// excluded unless asked for.
func (s *AttachmentService) ListForVisit(ctx context.Context, visitID uuid.UUID, includeArchived bool) ([]attachment.Attachment, error) {
	return s.attachments.ListByVisit(ctx, visitID, includeArchived)
}

func (s *AttachmentService) UpdateCaption(ctx context.Context, id uuid.UUID, caption string) error {
	caption = strings.TrimSpace(caption)
	if len(caption) > attachment.MaxCaptionLen {
		return carecircle_errors.ErrCaptionTooLong
	}
	return s.attachments.UpdateCaption(ctx, id, caption)
}

// Archive soft-deletes a photo. Voice notes hard-delete instead.
func (s *AttachmentService) Archive(ctx context.Context, id uuid.UUID) error {
	return s.setArchived(ctx, id, true)
}

func (s *AttachmentService) Restore(ctx context.Context, id uuid.UUID) error {
	return s.setArchived(ctx, id, false)
}

func (s *AttachmentService) setArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Kind != attachment.KindPhoto {
		return carecircle_errors.ErrInvalidInput
	}
	return s.attachments.SetArchived(ctx, id, archived)
}

// ResolveURL returns a time-limited access URL for the primary object, or
// "" when the blob store cannot sign one. Resolution failures are treated
// as retriable, not as errors.
func (s *AttachmentService) ResolveURL(ctx context.Context, a attachment.Attachment, ttl time.Duration) string {
	return s.signedURL(ctx, a.StoragePath, ttl)
}

// ResolveThumbnailURL prefers the thumbnail and falls back to the primary
// object when the upload degraded without one.
func (s *AttachmentService) ResolveThumbnailURL(ctx context.Context, a attachment.Attachment, ttl time.Duration) string {
	if a.ThumbnailPath.Valid {
		if url := s.signedURL(ctx, a.ThumbnailPath.String, ttl); url != "" {
			return url
		}
	}
	return s.signedURL(ctx, a.StoragePath, ttl)
}

func (s *AttachmentService) signedURL(ctx context.Context, key string, ttl time.Duration) string {
	if key == "" {
		return ""
	}
	opCtx, cancel := context.WithTimeout(ctx, s.blobOpTimeout)
	defer cancel()
	url, err := s.blobs.SignedURL(opCtx, key, ttl)
	if err != nil {
		s.log.Warnf("signed url resolution failed for %s: %v", key, err)
		return ""
	}
	return url
}

// StorageStats sums non-archived photo usage for a circle.
func (s *AttachmentService) StorageStats(ctx context.Context, circleID uuid.UUID) (repository.CircleStats, error) {
	return s.attachments.CircleStorageStats(ctx, circleID)
}
