package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"carecircle/internal/domain/attachment"
	"carecircle/internal/locks"
	"carecircle/internal/policy"
	"carecircle/internal/progress"
	"carecircle/internal/repository"
	"carecircle/internal/storage"
	carecircle_errors "carecircle/pkg/errors"
	"carecircle/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadService turns an already-encoded media payload into a durably stored
// attachment. Blob writes happen before the metadata insert; a failed insert
// rolls the blobs back best-effort, so a live metadata row always points at
// existing objects.
type UploadService struct {
	attachments   repository.AttachmentRepository
	visits        repository.VisitRepository
	blobs         BlobStore
	locker        locks.VisitLocker
	log           *logger.Logger
	blobOpTimeout time.Duration
	now           func() time.Time
}

func NewUploadService(
	attachments repository.AttachmentRepository,
	visits repository.VisitRepository,
	blobs BlobStore,
	locker locks.VisitLocker,
	log *logger.Logger,
	blobOpTimeout time.Duration,
) *UploadService {
	if blobOpTimeout <= 0 {
		blobOpTimeout = 30 * time.Second
	}
	return &UploadService{
		attachments:   attachments,
		visits:        visits,
		blobs:         blobs,
		locker:        locker,
		log:           log,
		blobOpTimeout: blobOpTimeout,
		now:           time.Now,
	}
}

// PhotoUpload carries a compressed image produced upstream. Thumbnail is
// optional; the engine performs no re-encoding.
type PhotoUpload struct {
	VisitID    uuid.UUID
	CircleID   uuid.UUID
	UploaderID uuid.UUID
	FileName   string
	MimeType   string
	Data       []byte
	Thumbnail  []byte
	Width      int
	Height     int
	// OriginalSizeBytes is the pre-compression size reported by the
	// producer, kept for storage statistics.
	OriginalSizeBytes int64
	Caption           string
	IsPrivate         bool
}

// VoiceUpload carries a recorded clip plus its measured duration.
type VoiceUpload struct {
	VisitID         uuid.UUID
	CircleID        uuid.UUID
	UploaderID      uuid.UUID
	FileName        string
	MimeType        string
	Data            []byte
	DurationSeconds int
	Caption         string
	IsPrivate       bool
}

// UploadPhoto runs the full pipeline for a photo. The sink, when non-nil,
// observes stage transitions; it is scoped to this call only.
func (s *UploadService) UploadPhoto(ctx context.Context, in PhotoUpload, sink progress.Sink) (attachment.Attachment, error) {
	if in.VisitID == uuid.Nil || in.CircleID == uuid.Nil || in.UploaderID == uuid.Nil {
		return attachment.Attachment{}, carecircle_errors.ErrInvalidInput
	}
	if len(in.Data) == 0 || in.MimeType == "" {
		return attachment.Attachment{}, carecircle_errors.ErrInvalidInput
	}
	if len(strings.TrimSpace(in.Caption)) > attachment.MaxCaptionLen {
		return attachment.Attachment{}, carecircle_errors.ErrCaptionTooLong
	}

	ts := s.now()
	primaryKey, thumbKey := storage.PhotoKeys(in.CircleID, in.VisitID, ts, in.MimeType)

	row := attachment.Attachment{
		ID:          uuid.New(),
		VisitID:     in.VisitID,
		CircleID:    in.CircleID,
		UploaderID:  in.UploaderID,
		Kind:        attachment.KindPhoto,
		StoragePath: primaryKey,
		FileName:    in.FileName,
		MimeType:    in.MimeType,
		SizeBytes:   int64(len(in.Data)),
		IsPrivate:   in.IsPrivate,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if in.Width > 0 {
		row.Width = sql.NullInt32{Int32: int32(in.Width), Valid: true}
	}
	if in.Height > 0 {
		row.Height = sql.NullInt32{Int32: int32(in.Height), Valid: true}
	}
	if in.OriginalSizeBytes > 0 {
		row.OriginalSizeBytes = sql.NullInt64{Int64: in.OriginalSizeBytes, Valid: true}
	}
	if caption := strings.TrimSpace(in.Caption); caption != "" {
		row.Caption = sql.NullString{String: caption, Valid: true}
	}

	return s.run(ctx, row, in.Data, in.Thumbnail, thumbKey, sink)
}

// UploadVoice runs the full pipeline for a voice note and sets the parent
// visit's voice flag on success.
func (s *UploadService) UploadVoice(ctx context.Context, in VoiceUpload, sink progress.Sink) (attachment.Attachment, error) {
	if in.VisitID == uuid.Nil || in.CircleID == uuid.Nil || in.UploaderID == uuid.Nil {
		return attachment.Attachment{}, carecircle_errors.ErrInvalidInput
	}
	if len(in.Data) == 0 || in.MimeType == "" || in.DurationSeconds <= 0 {
		return attachment.Attachment{}, carecircle_errors.ErrInvalidInput
	}
	if len(strings.TrimSpace(in.Caption)) > attachment.MaxCaptionLen {
		return attachment.Attachment{}, carecircle_errors.ErrCaptionTooLong
	}

	ts := s.now()
	key := storage.VoiceKey(in.CircleID, in.VisitID, ts, in.MimeType)

	fileName := in.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("voice_note_%d.%s", ts.UnixMilli(), storage.AudioExtension(in.MimeType))
	}

	row := attachment.Attachment{
		ID:              uuid.New(),
		VisitID:         in.VisitID,
		CircleID:        in.CircleID,
		UploaderID:      in.UploaderID,
		Kind:            attachment.KindVoice,
		StoragePath:     key,
		FileName:        fileName,
		MimeType:        in.MimeType,
		SizeBytes:       int64(len(in.Data)),
		DurationSeconds: sql.NullInt32{Int32: int32(in.DurationSeconds), Valid: true},
		IsPrivate:       in.IsPrivate,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if caption := strings.TrimSpace(in.Caption); caption != "" {
		row.Caption = sql.NullString{String: caption, Valid: true}
	}

	return s.run(ctx, row, in.Data, nil, "", sink)
}

// run executes the shared pipeline: lock the visit, re-check capacity, write
// the blob(s), insert metadata, maintain the voice flag, emit progress.
func (s *UploadService) run(ctx context.Context, row attachment.Attachment, primary, thumbnail []byte, thumbKey string, sink progress.Sink) (attachment.Attachment, error) {
	fail := func(err error) (attachment.Attachment, error) {
		sink.Emit(progress.Event{UploadID: row.ID, Stage: progress.StageFailed, Message: err.Error()})
		return attachment.Attachment{}, err
	}

	// Size is checked before any store I/O; an oversized payload never
	// reaches the lock or the stores.
	if row.SizeBytes > policy.MaxFileBytes {
		return fail(carecircle_errors.ErrTooLarge)
	}

	// The lock spans "count -> compare to quota -> write", closing the
	// window where two uploads both see a free slot.
	release, err := s.locker.Acquire(ctx, row.VisitID)
	if err != nil {
		return fail(err)
	}
	defer release()

	count, err := s.attachments.CountLive(ctx, row.VisitID, row.Kind)
	if err != nil {
		return fail(fmt.Errorf("counting existing attachments: %w", err))
	}
	decision := policy.CheckCapacity(row.Kind, int(count), row.SizeBytes)
	if !decision.Allowed {
		switch decision.Reason {
		case policy.ReasonFileTooLarge:
			return fail(carecircle_errors.ErrTooLarge)
		default:
			return fail(carecircle_errors.ErrQuotaExceeded)
		}
	}

	sink.Emit(progress.Event{UploadID: row.ID, Stage: progress.StageUploading, Percent: 0})

	// Primary blob first. Nothing is persisted yet, so a failure here needs
	// no cleanup.
	if err := s.putBlob(ctx, row.StoragePath, primary, row.MimeType); err != nil {
		return fail(fmt.Errorf("%w: %v", carecircle_errors.ErrStorageWrite, err))
	}
	sink.Emit(progress.Event{UploadID: row.ID, Stage: progress.StageUploading, Percent: 25})

	written := []string{row.StoragePath}

	// Thumbnail failure degrades the upload instead of aborting it; the
	// primary image still previews.
	if len(thumbnail) > 0 && thumbKey != "" {
		if err := s.putBlob(ctx, thumbKey, thumbnail, row.MimeType); err != nil {
			s.log.Warn("thumbnail upload failed, continuing without thumbnail",
				zap.String("attachment_id", row.ID.String()),
				zap.String("thumbnail_key", thumbKey),
				zap.Error(err))
		} else {
			row.ThumbnailPath = sql.NullString{String: thumbKey, Valid: true}
			written = append(written, thumbKey)
		}
	}
	sink.Emit(progress.Event{UploadID: row.ID, Stage: progress.StageUploading, Percent: 50})

	sink.Emit(progress.Event{UploadID: row.ID, Stage: progress.StageProcessing, Percent: 75})

	if err := s.attachments.Create(ctx, &row); err != nil {
		s.rollbackBlobs(row.ID, written)
		return fail(fmt.Errorf("%w: %v", carecircle_errors.ErrMetadataWrite, err))
	}

	// A successful voice insert guarantees at least one voice note exists,
	// so an unconditional set is safe here; deletes recompute instead.
	if row.Kind == attachment.KindVoice {
		if err := s.visits.SetHasVoiceNote(ctx, row.VisitID, true); err != nil {
			s.log.Warn("voice flag update failed after insert",
				zap.String("visit_id", row.VisitID.String()),
				zap.Error(err))
		}
	}

	sink.Emit(progress.Event{UploadID: row.ID, Stage: progress.StageCompleted, Percent: 100})
	return row, nil
}

func (s *UploadService) putBlob(ctx context.Context, key string, body []byte, contentType string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.blobOpTimeout)
	defer cancel()
	return s.blobs.Put(opCtx, key, body, contentType)
}

// rollbackBlobs removes blobs written earlier in a failed upload. Best
// effort: a failure is logged with the surviving keys so an out-of-band
// sweeper can reconcile, and is never surfaced over the original error.
func (s *UploadService) rollbackBlobs(attachmentID uuid.UUID, keys []string) {
	opCtx, cancel := context.WithTimeout(context.Background(), s.blobOpTimeout)
	defer cancel()
	if err := s.blobs.Remove(opCtx, keys...); err != nil {
		s.log.Warn("orphan_candidate: blob rollback failed",
			zap.String("attachment_id", attachmentID.String()),
			zap.Strings("keys", keys),
			zap.Error(err))
	}
}
