package policy

import (
	"carecircle/internal/domain/attachment"
)

// Per-visit caps and the shared per-file size limit.
const (
	MaxPhotosPerVisit = 5
	MaxVoicePerVisit  = 3
	MaxFileBytes      = 10 * 1024 * 1024
)

// RejectReason enumerates why an upload was refused, so callers can render
// a specific message.
type RejectReason string

const (
	ReasonQuotaExceeded RejectReason = "quota_exceeded"
	ReasonFileTooLarge  RejectReason = "file_too_large"
)

// Decision is the outcome of a capacity check.
type Decision struct {
	Allowed   bool
	Reason    RejectReason
	Limit     int
	Remaining int
}

// CheckCapacity decides whether one more attachment of the given kind fits
// under the per-visit quota and the per-file size cap. existingCount must be
// the count of live rows for that kind (non-archived for photos). The check
// is advisory unless the caller holds the visit lock across check and upload.
func CheckCapacity(kind attachment.Kind, existingCount int, fileSize int64) Decision {
	limit := quotaFor(kind)

	if fileSize > MaxFileBytes {
		return Decision{Allowed: false, Reason: ReasonFileTooLarge, Limit: limit}
	}
	if existingCount >= limit {
		return Decision{Allowed: false, Reason: ReasonQuotaExceeded, Limit: limit}
	}
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - existingCount - 1,
	}
}

func quotaFor(kind attachment.Kind) int {
	if kind == attachment.KindVoice {
		return MaxVoicePerVisit
	}
	return MaxPhotosPerVisit
}
