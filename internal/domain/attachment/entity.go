package attachment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates validation rules, quotas and rendering for an attachment.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVoice Kind = "voice"
)

func (k Kind) Valid() bool {
	return k == KindPhoto || k == KindVoice
}

// Attachment represents visit_attachments. A row exists only after both the
// blob write(s) and the metadata insert succeeded; it always references
// exactly one visit.
type Attachment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	VisitID    uuid.UUID `gorm:"type:uuid;not null;index" json:"visit_id"`
	CircleID   uuid.UUID `gorm:"type:uuid;not null;index" json:"circle_id"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null" json:"uploader_id"`

	Kind Kind `gorm:"type:text;not null" json:"kind"`

	// StoragePath is the primary object key; ThumbnailPath is set for photos
	// whose thumbnail upload succeeded. No two live rows share a key.
	StoragePath   string         `gorm:"type:text;not null;uniqueIndex" json:"storage_path"`
	ThumbnailPath sql.NullString `gorm:"type:text" json:"thumbnail_path,omitempty"`

	FileName  string `gorm:"type:text;not null" json:"file_name"`
	MimeType  string `gorm:"type:text;not null" json:"mime_type"`
	SizeBytes int64  `gorm:"not null" json:"size_bytes"`

	// Photo-only fields.
	OriginalSizeBytes sql.NullInt64 `json:"original_size_bytes,omitempty"`
	Width             sql.NullInt32 `json:"width,omitempty"`
	Height            sql.NullInt32 `json:"height,omitempty"`

	// Voice-only fields. Transcription is populated out-of-band.
	DurationSeconds sql.NullInt32  `json:"duration_seconds,omitempty"`
	Transcription   sql.NullString `gorm:"type:text" json:"transcription,omitempty"`

	Caption sql.NullString `gorm:"type:varchar(200)" json:"caption,omitempty"`

	// IsPrivate restricts visibility to the uploader and coordinators;
	// enforcement happens in the callers, not here. IsArchived is the
	// soft-delete marker used by photo listings; voice notes hard-delete.
	IsPrivate  bool `gorm:"default:false" json:"is_private"`
	IsArchived bool `gorm:"default:false" json:"is_archived"`

	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

func (Attachment) TableName() string {
	return "visit_attachments"
}

// MaxCaptionLen bounds the user-supplied caption.
const MaxCaptionLen = 200
