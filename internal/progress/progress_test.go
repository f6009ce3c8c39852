package progress

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSinkEmitNilSafe(t *testing.T) {
	var s Sink
	// Emitting on a nil sink must be a no-op.
	s.Emit(Event{Stage: StageUploading})
}

func TestTeeFansOut(t *testing.T) {
	uploadID := uuid.New()
	var a, b []Event

	tee := Tee(
		func(e Event) { a = append(a, e) },
		nil, // nil members are skipped
		func(e Event) { b = append(b, e) },
	)

	tee.Emit(Event{UploadID: uploadID, Stage: StageUploading, Percent: 0})
	tee.Emit(Event{UploadID: uploadID, Stage: StageCompleted, Percent: 100})

	assert.Len(t, a, 2)
	assert.Len(t, b, 2)
	assert.Equal(t, StageUploading, a[0].Stage)
	assert.Equal(t, 100, b[1].Percent)
}
