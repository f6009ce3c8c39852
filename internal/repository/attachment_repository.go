package repository

import (
	"context"
	"errors"
	"time"

	"carecircle/internal/domain/attachment"
	carecircle_errors "carecircle/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresAttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &PostgresAttachmentRepository{db: db}
}

func (r *PostgresAttachmentRepository) Create(ctx context.Context, a *attachment.Attachment) error {
	res := r.db.WithContext(ctx).Create(a)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return carecircle_errors.ErrMetadataWrite
		}
		return res.Error
	}
	return nil
}

func (r *PostgresAttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
	var a attachment.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return attachment.Attachment{}, carecircle_errors.ErrNotFound
		}
		return attachment.Attachment{}, err
	}
	return a, nil
}

func (r *PostgresAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&attachment.Attachment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return carecircle_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresAttachmentRepository) UpdateCaption(ctx context.Context, id uuid.UUID, caption string) error {
	res := r.db.WithContext(ctx).
		Model(&attachment.Attachment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"caption":    caption,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return carecircle_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresAttachmentRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	res := r.db.WithContext(ctx).
		Model(&attachment.Attachment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_archived": archived,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return carecircle_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresAttachmentRepository) ListByVisit(ctx context.Context, visitID uuid.UUID, includeArchived bool) ([]attachment.Attachment, error) {
	var items []attachment.Attachment
	q := r.db.WithContext(ctx).Where("visit_id = ?", visitID)
	if !includeArchived {
		q = q.Where("is_archived = false")
	}
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresAttachmentRepository) CountLive(ctx context.Context, visitID uuid.UUID, kind attachment.Kind) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&attachment.Attachment{}).
		Where("visit_id = ? AND kind = ?", visitID, kind)
	if kind == attachment.KindPhoto {
		q = q.Where("is_archived = false")
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresAttachmentRepository) CircleStorageStats(ctx context.Context, circleID uuid.UUID) (CircleStats, error) {
	var stats CircleStats
	err := r.db.WithContext(ctx).
		Model(&attachment.Attachment{}).
		Select("COUNT(*) AS photo_count, COALESCE(SUM(size_bytes), 0) AS compressed_bytes, COALESCE(SUM(original_size_bytes), 0) AS original_bytes").
		Where("circle_id = ? AND kind = ? AND is_archived = false", circleID, attachment.KindPhoto).
		Scan(&stats).Error
	if err != nil {
		return CircleStats{}, err
	}
	return stats, nil
}
