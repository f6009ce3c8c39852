package httpdto

import (
	"time"

	"carecircle/internal/domain/visit"
)

// CreateVisitRequest is used for POST /visits
type CreateVisitRequest struct {
	CircleID    string    `json:"circle_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Notes       string    `json:"notes"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type VisitDTO struct {
	ID           string  `json:"id"`
	CircleID     string  `json:"circle_id"`
	Title        string  `json:"title"`
	Notes        *string `json:"notes,omitempty"`
	ScheduledAt  string  `json:"scheduled_at"`
	HasVoiceNote bool    `json:"has_voice_note"`
	CreatedAt    string  `json:"created_at"`
}

func NewVisitDTO(v visit.Visit) VisitDTO {
	dto := VisitDTO{
		ID:           v.ID.String(),
		CircleID:     v.CircleID.String(),
		Title:        v.Title,
		ScheduledAt:  v.ScheduledAt.Format(time.RFC3339),
		HasVoiceNote: v.HasVoiceNote,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
	}
	if v.Notes.Valid {
		dto.Notes = &v.Notes.String
	}
	return dto
}

func NewVisitDTOs(items []visit.Visit) []VisitDTO {
	out := make([]VisitDTO, 0, len(items))
	for _, v := range items {
		out = append(out, NewVisitDTO(v))
	}
	return out
}
