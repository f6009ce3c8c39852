package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object key derivation is the single source of truth for where blobs live.
// Keys are pure functions of circle, visit, timestamp and kind, so both
// orchestrators and the stats query (prefix scan) agree on layout without
// coordination. The millisecond timestamp component makes collisions
// negligible; no existence check is performed before writes.

// PhotoKeys returns the primary and thumbnail object keys for one photo
// upload. Both share the timestamp so they sort adjacently.
func PhotoKeys(circleID, visitID uuid.UUID, ts time.Time, mimeType string) (primary, thumbnail string) {
	base := fmt.Sprintf("photos/%s/%s/%d", circleID.String(), visitID.String(), ts.UnixMilli())
	ext := ImageExtension(mimeType)
	return base + "_photo." + ext, base + "_thumb." + ext
}

// VoiceKey returns the object key for one voice-note upload.
func VoiceKey(circleID, visitID uuid.UUID, ts time.Time, mimeType string) string {
	return fmt.Sprintf("voice/%s/%s/%d_note.%s",
		circleID.String(), visitID.String(), ts.UnixMilli(), AudioExtension(mimeType))
}

// PhotoPrefix is the key prefix covering every photo object in a circle,
// used by storage statistics.
func PhotoPrefix(circleID uuid.UUID) string {
	return "photos/" + circleID.String() + "/"
}

// AudioExtension infers a file extension from a recorded clip's MIME type.
// Recorders emit webm (Chrome/Firefox), mp4 (Safari, stored as m4a) or wav.
func AudioExtension(mimeType string) string {
	mt := strings.ToLower(mimeType)
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	switch {
	case strings.Contains(mt, "webm"):
		return "webm"
	case strings.Contains(mt, "mp4"):
		return "m4a"
	case strings.Contains(mt, "wav"):
		return "wav"
	default:
		return "bin"
	}
}

// ImageExtension infers a file extension for compressed photo payloads.
func ImageExtension(mimeType string) string {
	mt := strings.ToLower(mimeType)
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	switch mt {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
