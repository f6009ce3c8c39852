package services

import (
	"context"
	"sync"
	"time"

	"carecircle/internal/domain/attachment"
	"carecircle/internal/domain/visit"
	"carecircle/internal/repository"
	carecircle_errors "carecircle/pkg/errors"

	"github.com/google/uuid"
)

// --- Fake blob store ---

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string

	putErr    func(key string) error
	removeErr error
	signErr   error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		if err := f.putErr(key); err != nil {
			return err
		}
	}
	f.objects[key] = body
	return nil
}

func (f *fakeBlobStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.example/" + key, nil
}

func (f *fakeBlobStore) Remove(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, k := range keys {
		delete(f.objects, k)
		f.removed = append(f.removed, k)
	}
	return nil
}

func (f *fakeBlobStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	return out
}

// --- Mock attachment repository ---

type mockAttachmentRepo struct {
	CreateFunc             func(ctx context.Context, a *attachment.Attachment) error
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (attachment.Attachment, error)
	DeleteFunc             func(ctx context.Context, id uuid.UUID) error
	UpdateCaptionFunc      func(ctx context.Context, id uuid.UUID, caption string) error
	SetArchivedFunc        func(ctx context.Context, id uuid.UUID, archived bool) error
	ListByVisitFunc        func(ctx context.Context, visitID uuid.UUID, includeArchived bool) ([]attachment.Attachment, error)
	CountLiveFunc          func(ctx context.Context, visitID uuid.UUID, kind attachment.Kind) (int64, error)
	CircleStorageStatsFunc func(ctx context.Context, circleID uuid.UUID) (repository.CircleStats, error)
}

func (m *mockAttachmentRepo) Create(ctx context.Context, a *attachment.Attachment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	return nil
}

func (m *mockAttachmentRepo) GetByID(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return attachment.Attachment{}, carecircle_errors.ErrNotFound
}

func (m *mockAttachmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockAttachmentRepo) UpdateCaption(ctx context.Context, id uuid.UUID, caption string) error {
	if m.UpdateCaptionFunc != nil {
		return m.UpdateCaptionFunc(ctx, id, caption)
	}
	return nil
}

func (m *mockAttachmentRepo) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	if m.SetArchivedFunc != nil {
		return m.SetArchivedFunc(ctx, id, archived)
	}
	return nil
}

func (m *mockAttachmentRepo) ListByVisit(ctx context.Context, visitID uuid.UUID, includeArchived bool) ([]attachment.Attachment, error) {
	if m.ListByVisitFunc != nil {
		return m.ListByVisitFunc(ctx, visitID, includeArchived)
	}
	return nil, nil
}

func (m *mockAttachmentRepo) CountLive(ctx context.Context, visitID uuid.UUID, kind attachment.Kind) (int64, error) {
	if m.CountLiveFunc != nil {
		return m.CountLiveFunc(ctx, visitID, kind)
	}
	return 0, nil
}

func (m *mockAttachmentRepo) CircleStorageStats(ctx context.Context, circleID uuid.UUID) (repository.CircleStats, error) {
	if m.CircleStorageStatsFunc != nil {
		return m.CircleStorageStatsFunc(ctx, circleID)
	}
	return repository.CircleStats{}, nil
}

// --- Mock visit repository ---

type mockVisitRepo struct {
	CreateFunc            func(ctx context.Context, v *visit.Visit) error
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (visit.Visit, error)
	ListByCircleFunc      func(ctx context.Context, circleID uuid.UUID) ([]visit.Visit, error)
	SetHasVoiceNoteFunc   func(ctx context.Context, visitID uuid.UUID, hasVoiceNote bool) error
	RecomputeVoiceFunc    func(ctx context.Context, visitID uuid.UUID) (bool, error)
}

func (m *mockVisitRepo) Create(ctx context.Context, v *visit.Visit) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, v)
	}
	return nil
}

func (m *mockVisitRepo) GetByID(ctx context.Context, id uuid.UUID) (visit.Visit, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return visit.Visit{}, carecircle_errors.ErrNotFound
}

func (m *mockVisitRepo) ListByCircle(ctx context.Context, circleID uuid.UUID) ([]visit.Visit, error) {
	if m.ListByCircleFunc != nil {
		return m.ListByCircleFunc(ctx, circleID)
	}
	return nil, nil
}

func (m *mockVisitRepo) SetHasVoiceNote(ctx context.Context, visitID uuid.UUID, hasVoiceNote bool) error {
	if m.SetHasVoiceNoteFunc != nil {
		return m.SetHasVoiceNoteFunc(ctx, visitID, hasVoiceNote)
	}
	return nil
}

func (m *mockVisitRepo) RecomputeVoiceFlag(ctx context.Context, visitID uuid.UUID) (bool, error) {
	if m.RecomputeVoiceFunc != nil {
		return m.RecomputeVoiceFunc(ctx, visitID)
	}
	return false, nil
}
