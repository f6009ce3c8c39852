package visit

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Visit represents care_visits. Scheduling and conflict detection live
// upstream; this service only needs the row as the attachment parent.
type Visit struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CircleID uuid.UUID `gorm:"type:uuid;not null;index" json:"circle_id"`

	Title       string         `gorm:"type:text;not null" json:"title"`
	Notes       sql.NullString `gorm:"type:text" json:"notes,omitempty"`
	ScheduledAt time.Time      `gorm:"not null" json:"scheduled_at"`

	// HasVoiceNote is derived: true iff at least one voice attachment row
	// exists for this visit. Recomputed after voice deletes, set on the
	// first voice insert, never toggled by hand.
	HasVoiceNote bool `gorm:"default:false" json:"has_voice_note"`

	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

func (Visit) TableName() string {
	return "care_visits"
}
