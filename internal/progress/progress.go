package progress

import (
	"github.com/google/uuid"
)

// Stage names the phase an upload is in. Stages only move forward.
type Stage string

const (
	StageUploading  Stage = "uploading"
	StageProcessing Stage = "processing"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

// Event is one progress transition for a single upload. Events are scoped to
// the call that produced them; there is no process-wide registry to clean up.
type Event struct {
	UploadID uuid.UUID `json:"upload_id"`
	Stage    Stage     `json:"stage"`
	Percent  int       `json:"percent"`
	Message  string    `json:"message,omitempty"`
}

// Sink receives progress events for one upload. Implementations must not
// block; the orchestrator calls them inline between store operations.
type Sink func(Event)

// Emit forwards the event to the sink when one is attached.
func (s Sink) Emit(e Event) {
	if s != nil {
		s(e)
	}
}

// Tee fans one event out to several sinks.
func Tee(sinks ...Sink) Sink {
	return func(e Event) {
		for _, s := range sinks {
			s.Emit(e)
		}
	}
}
