package httpdto

import (
	"carecircle/internal/domain/attachment"
)

// AttachmentDTO is the wire shape of one attachment. Kind-specific fields
// are pointers so photo rows never carry duration and voice rows never
// carry dimensions.
type AttachmentDTO struct {
	ID            string  `json:"id"`
	VisitID       string  `json:"visit_id"`
	CircleID      string  `json:"circle_id"`
	UploaderID    string  `json:"uploader_id"`
	Kind          string  `json:"kind"`
	StoragePath   string  `json:"storage_path"`
	ThumbnailPath *string `json:"thumbnail_path,omitempty"`
	FileName      string  `json:"file_name"`
	MimeType      string  `json:"mime_type"`
	SizeBytes     int64   `json:"size_bytes"`

	OriginalSizeBytes *int64 `json:"original_size_bytes,omitempty"`
	Width             *int32 `json:"width,omitempty"`
	Height            *int32 `json:"height,omitempty"`

	DurationSeconds *int32  `json:"duration_seconds,omitempty"`
	Transcription   *string `json:"transcription,omitempty"`

	Caption    *string `json:"caption,omitempty"`
	IsPrivate  bool    `json:"is_private"`
	IsArchived bool    `json:"is_archived"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func NewAttachmentDTO(a attachment.Attachment) AttachmentDTO {
	dto := AttachmentDTO{
		ID:          a.ID.String(),
		VisitID:     a.VisitID.String(),
		CircleID:    a.CircleID.String(),
		UploaderID:  a.UploaderID.String(),
		Kind:        string(a.Kind),
		StoragePath: a.StoragePath,
		FileName:    a.FileName,
		MimeType:    a.MimeType,
		SizeBytes:   a.SizeBytes,
		IsPrivate:   a.IsPrivate,
		IsArchived:  a.IsArchived,
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   a.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if a.ThumbnailPath.Valid {
		dto.ThumbnailPath = &a.ThumbnailPath.String
	}
	if a.OriginalSizeBytes.Valid {
		dto.OriginalSizeBytes = &a.OriginalSizeBytes.Int64
	}
	if a.Width.Valid {
		dto.Width = &a.Width.Int32
	}
	if a.Height.Valid {
		dto.Height = &a.Height.Int32
	}
	if a.DurationSeconds.Valid {
		dto.DurationSeconds = &a.DurationSeconds.Int32
	}
	if a.Transcription.Valid {
		dto.Transcription = &a.Transcription.String
	}
	if a.Caption.Valid {
		dto.Caption = &a.Caption.String
	}
	return dto
}

func NewAttachmentDTOs(items []attachment.Attachment) []AttachmentDTO {
	out := make([]AttachmentDTO, 0, len(items))
	for _, a := range items {
		out = append(out, NewAttachmentDTO(a))
	}
	return out
}

// UpdateCaptionRequest is used for PATCH /attachments/:id/caption
type UpdateCaptionRequest struct {
	Caption string `json:"caption"`
}

// ResolveURLResponse is returned by GET /attachments/:id/url. URL is empty
// when the blob store could not sign one; the client may retry.
type ResolveURLResponse struct {
	URL string `json:"url"`
}

// StorageStatsResponse aggregates photo usage for a circle.
type StorageStatsResponse struct {
	PhotoCount      int64 `json:"photo_count"`
	CompressedBytes int64 `json:"compressed_bytes"`
	OriginalBytes   int64 `json:"original_bytes"`
}
