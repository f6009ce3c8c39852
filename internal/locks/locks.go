package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	carecircle_errors "carecircle/pkg/errors"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// VisitLocker serializes uploads against one visit so the capacity check and
// the subsequent writes form a single critical section. Without it two
// concurrent uploads can both pass the quota check and transiently exceed it.
type VisitLocker interface {
	// Acquire blocks until the lock for visitID is held, the context ends,
	// or the retry budget runs out. The returned release function is
	// idempotent and must be called when the upload terminates.
	Acquire(ctx context.Context, visitID uuid.UUID) (release func(), err error)
}

const (
	acquireRetryDelay = 50 * time.Millisecond
	maxAcquireWait    = 30 * time.Second
)

// RedisLocker implements VisitLocker over SET NX PX with a token-checked
// release, so a lock that outlived its TTL cannot be released by the
// original holder after someone else re-acquired it.
type RedisLocker struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *goredis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

var releaseScript = goredis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, visitID uuid.UUID) (func(), error) {
	key := fmt.Sprintf("visitlock:%s", visitID.String())
	token := uuid.NewString()

	deadline := time.Now().Add(maxAcquireWait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("visit lock acquire failed: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, carecircle_errors.ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquireRetryDelay):
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}
	return release, nil
}

// MemoryLocker is an in-process VisitLocker for single-node deployments and
// tests. Entries are reference counted and dropped once uncontended.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[uuid.UUID]*refLock)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, visitID uuid.UUID) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[visitID]
	if !ok {
		entry = &refLock{}
		l.locks[visitID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		entry.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// The goroutine still holds or will hold the mutex; hand it back
		// once acquired so the entry can be reclaimed.
		go func() {
			<-acquired
			entry.mu.Unlock()
			l.drop(visitID, entry)
		}()
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.drop(visitID, entry)
		})
	}
	return release, nil
}

func (l *MemoryLocker) drop(visitID uuid.UUID, entry *refLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, visitID)
	}
	l.mu.Unlock()
}
