package repository

import (
	"context"
	"errors"
	"time"

	"carecircle/internal/domain/attachment"
	"carecircle/internal/domain/visit"
	carecircle_errors "carecircle/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresVisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &PostgresVisitRepository{db: db}
}

func (r *PostgresVisitRepository) Create(ctx context.Context, v *visit.Visit) error {
	res := r.db.WithContext(ctx).Create(v)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return carecircle_errors.ErrMetadataWrite
		}
		return res.Error
	}
	return nil
}

func (r *PostgresVisitRepository) GetByID(ctx context.Context, id uuid.UUID) (visit.Visit, error) {
	var v visit.Visit
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return visit.Visit{}, carecircle_errors.ErrNotFound
		}
		return visit.Visit{}, err
	}
	return v, nil
}

func (r *PostgresVisitRepository) ListByCircle(ctx context.Context, circleID uuid.UUID) ([]visit.Visit, error) {
	var visits []visit.Visit
	err := r.db.WithContext(ctx).
		Where("circle_id = ?", circleID).
		Order("scheduled_at DESC").
		Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *PostgresVisitRepository) SetHasVoiceNote(ctx context.Context, visitID uuid.UUID, hasVoiceNote bool) error {
	res := r.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("id = ?", visitID).
		Updates(map[string]interface{}{
			"has_voice_note": hasVoiceNote,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return carecircle_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresVisitRepository) RecomputeVoiceFlag(ctx context.Context, visitID uuid.UUID) (bool, error) {
	var hasVoice bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&attachment.Attachment{}).
			Where("visit_id = ? AND kind = ?", visitID, attachment.KindVoice).
			Count(&count).Error; err != nil {
			return err
		}
		hasVoice = count > 0

		res := tx.Model(&visit.Visit{}).
			Where("id = ?", visitID).
			Updates(map[string]interface{}{
				"has_voice_note": hasVoice,
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return carecircle_errors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return hasVoice, nil
}
