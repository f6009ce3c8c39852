package carecircle_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrTooLarge       = errors.New("file too large")
	ErrQuotaExceeded  = errors.New("attachment quota exceeded")
	ErrStorageWrite   = errors.New("blob storage write failed")
	ErrMetadataWrite  = errors.New("metadata write failed")
	ErrLockBusy       = errors.New("visit is locked by another upload")
	ErrCaptionTooLong = errors.New("caption exceeds 200 characters")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
