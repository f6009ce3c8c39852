package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"carecircle/internal/domain/attachment"
	"carecircle/internal/repository"
	carecircle_errors "carecircle/pkg/errors"
	"carecircle/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttachmentService(attachments *mockAttachmentRepo, visits *mockVisitRepo, blobs BlobStore) *AttachmentService {
	return NewAttachmentService(attachments, visits, blobs, logger.NewNop(), time.Second)
}

func storedPhoto(withThumb bool) attachment.Attachment {
	a := attachment.Attachment{
		ID:          uuid.New(),
		VisitID:     uuid.New(),
		CircleID:    uuid.New(),
		UploaderID:  uuid.New(),
		Kind:        attachment.KindPhoto,
		StoragePath: "photos/c/v/1700000000000_photo.jpg",
		FileName:    "photo.jpg",
		MimeType:    "image/jpeg",
		SizeBytes:   1024,
	}
	if withThumb {
		a.ThumbnailPath = sql.NullString{String: "photos/c/v/1700000000000_thumb.jpg", Valid: true}
	}
	return a
}

func storedVoice() attachment.Attachment {
	return attachment.Attachment{
		ID:              uuid.New(),
		VisitID:         uuid.New(),
		CircleID:        uuid.New(),
		UploaderID:      uuid.New(),
		Kind:            attachment.KindVoice,
		StoragePath:     "voice/c/v/1700000000000_note.webm",
		FileName:        "voice_note_1700000000000.webm",
		MimeType:        "audio/webm",
		SizeBytes:       2048,
		DurationSeconds: sql.NullInt32{Int32: 30, Valid: true},
	}
}

func TestDeletePhotoRemovesBlobsAndRow(t *testing.T) {
	a := storedPhoto(true)
	blobs := newFakeBlobStore()
	blobs.objects[a.StoragePath] = []byte{1}
	blobs.objects[a.ThumbnailPath.String] = []byte{2}

	deleted := false
	attachments := &mockAttachmentRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
			return a, nil
		},
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			assert.Equal(t, a.ID, id)
			deleted = true
			return nil
		},
	}
	recomputed := false
	visits := &mockVisitRepo{
		RecomputeVoiceFunc: func(ctx context.Context, visitID uuid.UUID) (bool, error) {
			recomputed = true
			return false, nil
		},
	}
	svc := newAttachmentService(attachments, visits, blobs)

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	assert.True(t, deleted)
	assert.Empty(t, blobs.keys())
	assert.False(t, recomputed, "photo delete must not touch the voice flag")
}

func TestDeleteBlobFailureStillRemovesMetadata(t *testing.T) {
	a := storedPhoto(false)
	blobs := newFakeBlobStore()
	blobs.removeErr = errors.New("storage unavailable")

	deleted := false
	attachments := &mockAttachmentRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
			return a, nil
		},
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	svc := newAttachmentService(attachments, &mockVisitRepo{}, blobs)

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	assert.True(t, deleted, "metadata removal wins over a stuck blob")
}

func TestDeleteMetadataFailureIsTerminal(t *testing.T) {
	a := storedPhoto(false)
	attachments := &mockAttachmentRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
			return a, nil
		},
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			return errors.New("deadlock detected")
		},
	}
	svc := newAttachmentService(attachments, &mockVisitRepo{}, newFakeBlobStore())

	err := svc.Delete(context.Background(), a.ID)
	assert.ErrorIs(t, err, carecircle_errors.ErrMetadataWrite)
}

func TestDeleteNotFound(t *testing.T) {
	svc := newAttachmentService(&mockAttachmentRepo{}, &mockVisitRepo{}, newFakeBlobStore())
	err := svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, carecircle_errors.ErrNotFound)
}

func TestDeleteVoiceRecomputesFlag(t *testing.T) {
	a := storedVoice()

	t.Run("last voice note clears flag", func(t *testing.T) {
		var recomputedVisit uuid.UUID
		visits := &mockVisitRepo{
			RecomputeVoiceFunc: func(ctx context.Context, visitID uuid.UUID) (bool, error) {
				recomputedVisit = visitID
				return false, nil
			},
		}
		attachments := &mockAttachmentRepo{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
				return a, nil
			},
		}
		svc := newAttachmentService(attachments, visits, newFakeBlobStore())

		require.NoError(t, svc.Delete(context.Background(), a.ID))
		assert.Equal(t, a.VisitID, recomputedVisit)
	})

	t.Run("recompute failure does not fail the delete", func(t *testing.T) {
		visits := &mockVisitRepo{
			RecomputeVoiceFunc: func(ctx context.Context, visitID uuid.UUID) (bool, error) {
				return false, errors.New("timeout")
			},
		}
		attachments := &mockAttachmentRepo{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
				return a, nil
			},
		}
		svc := newAttachmentService(attachments, visits, newFakeBlobStore())
		assert.NoError(t, svc.Delete(context.Background(), a.ID))
	})
}

func TestUpdateCaption(t *testing.T) {
	var gotCaption string
	attachments := &mockAttachmentRepo{
		UpdateCaptionFunc: func(ctx context.Context, id uuid.UUID, caption string) error {
			gotCaption = caption
			return nil
		},
	}
	svc := newAttachmentService(attachments, &mockVisitRepo{}, newFakeBlobStore())

	require.NoError(t, svc.UpdateCaption(context.Background(), uuid.New(), "  at the park  "))
	assert.Equal(t, "at the park", gotCaption)

	err := svc.UpdateCaption(context.Background(), uuid.New(), strings.Repeat("y", 201))
	assert.ErrorIs(t, err, carecircle_errors.ErrCaptionTooLong)
}

func TestArchiveOnlyPhotos(t *testing.T) {
	photo := storedPhoto(false)
	voice := storedVoice()
	byID := map[uuid.UUID]attachment.Attachment{photo.ID: photo, voice.ID: voice}

	archived := make(map[uuid.UUID]bool)
	attachments := &mockAttachmentRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
			if a, ok := byID[id]; ok {
				return a, nil
			}
			return attachment.Attachment{}, carecircle_errors.ErrNotFound
		},
		SetArchivedFunc: func(ctx context.Context, id uuid.UUID, v bool) error {
			archived[id] = v
			return nil
		},
	}
	svc := newAttachmentService(attachments, &mockVisitRepo{}, newFakeBlobStore())

	require.NoError(t, svc.Archive(context.Background(), photo.ID))
	assert.True(t, archived[photo.ID])

	err := svc.Archive(context.Background(), voice.ID)
	assert.ErrorIs(t, err, carecircle_errors.ErrInvalidInput)

	require.NoError(t, svc.Restore(context.Background(), photo.ID))
	assert.False(t, archived[photo.ID])
}

func TestResolveURL(t *testing.T) {
	a := storedPhoto(true)
	blobs := newFakeBlobStore()
	svc := newAttachmentService(&mockAttachmentRepo{}, &mockVisitRepo{}, blobs)

	t.Run("primary", func(t *testing.T) {
		url := svc.ResolveURL(context.Background(), a, time.Minute)
		assert.Equal(t, "https://signed.example/"+a.StoragePath, url)
	})

	t.Run("thumbnail preferred", func(t *testing.T) {
		url := svc.ResolveThumbnailURL(context.Background(), a, time.Minute)
		assert.Equal(t, "https://signed.example/"+a.ThumbnailPath.String, url)
	})

	t.Run("falls back to primary without thumbnail", func(t *testing.T) {
		url := svc.ResolveThumbnailURL(context.Background(), storedPhoto(false), time.Minute)
		assert.Equal(t, "https://signed.example/photos/c/v/1700000000000_photo.jpg", url)
	})

	t.Run("store failure yields empty, not error", func(t *testing.T) {
		blobs.signErr = errors.New("credentials expired")
		defer func() { blobs.signErr = nil }()
		url := svc.ResolveURL(context.Background(), a, time.Minute)
		assert.Equal(t, "", url)
	})
}

func TestStorageStats(t *testing.T) {
	circleID := uuid.New()
	attachments := &mockAttachmentRepo{
		CircleStorageStatsFunc: func(ctx context.Context, id uuid.UUID) (repository.CircleStats, error) {
			assert.Equal(t, circleID, id)
			return repository.CircleStats{PhotoCount: 3, CompressedBytes: 6 << 20, OriginalBytes: 15 << 20}, nil
		},
	}
	svc := newAttachmentService(attachments, &mockVisitRepo{}, newFakeBlobStore())

	stats, err := svc.StorageStats(context.Background(), circleID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.PhotoCount)
	assert.Equal(t, int64(6<<20), stats.CompressedBytes)
}

func TestUploadThenDeleteRoundTrip(t *testing.T) {
	// upload -> getUrl resolves; upload -> delete -> list no longer holds it
	blobs := newFakeBlobStore()
	store := map[uuid.UUID]attachment.Attachment{}

	attachments := &mockAttachmentRepo{
		CreateFunc: func(ctx context.Context, a *attachment.Attachment) error {
			store[a.ID] = *a
			return nil
		},
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
			if a, ok := store[id]; ok {
				return a, nil
			}
			return attachment.Attachment{}, carecircle_errors.ErrNotFound
		},
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			delete(store, id)
			return nil
		},
		ListByVisitFunc: func(ctx context.Context, visitID uuid.UUID, includeArchived bool) ([]attachment.Attachment, error) {
			var out []attachment.Attachment
			for _, a := range store {
				if a.VisitID == visitID {
					out = append(out, a)
				}
			}
			return out, nil
		},
		CountLiveFunc: func(ctx context.Context, visitID uuid.UUID, kind attachment.Kind) (int64, error) {
			return int64(len(store)), nil
		},
	}

	uploads := newUploadService(attachments, &mockVisitRepo{}, blobs)
	svc := newAttachmentService(attachments, &mockVisitRepo{}, blobs)

	in := photoInput()
	got, err := uploads.UploadPhoto(context.Background(), in, nil)
	require.NoError(t, err)

	url := svc.ResolveURL(context.Background(), got, time.Minute)
	assert.NotEmpty(t, url)

	require.NoError(t, svc.Delete(context.Background(), got.ID))

	listed, err := svc.ListForVisit(context.Background(), in.VisitID, false)
	require.NoError(t, err)
	for _, a := range listed {
		assert.NotEqual(t, got.ID, a.ID)
	}
	assert.Empty(t, blobs.keys())
}
