package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

const (
	// DefaultLockTTL bounds how long a crashed holder can block a session.
	DefaultLockTTL = 15 * time.Minute
	// DefaultLockWait is how long Lock waits for a busy session.
	DefaultLockWait = 30 * time.Second

	lockKeyPrefix = "interview-brief:lock:"
	lockRetry     = 100 * time.Millisecond
)

// SessionLocker serializes stage work per session. Different sessions never
// contend.
type SessionLocker interface {
	// Lock blocks until the session is free, the wait elapses or ctx ends.
	// The returned unlock is safe to call more than once.
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// NewSessionLocker uses Redis when rdb is set, otherwise an in-process lock.
func NewSessionLocker(rdb *goredis.Client, baseLog *logger.Logger) SessionLocker {
	if rdb == nil {
		return NewLocalLocker(DefaultLockWait)
	}
	return NewRedisLocker(rdb, DefaultLockTTL, DefaultLockWait, baseLog)
}

func busyError(sessionID string, cause error) error {
	return domain.NewError(domain.CodeStateConflict, "session_lock", "session "+sessionID+" is busy", cause)
}

type localLocker struct {
	wait  time.Duration
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker(wait time.Duration) SessionLocker {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &localLocker{wait: wait, locks: map[string]*localLock{}}
}

func (l *localLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	e := l.locks[sessionID]
	if e == nil {
		e = &localLock{ch: make(chan struct{}, 1)}
		l.locks[sessionID] = e
	}
	e.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()
	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(sessionID, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(sessionID, e)
		return nil, busyError(sessionID, ctx.Err())
	case <-timer.C:
		l.release(sessionID, e)
		return nil, busyError(sessionID, nil)
	}
}

func (l *localLocker) release(sessionID string, e *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, sessionID)
	}
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb  *goredis.Client
	ttl  time.Duration
	wait time.Duration
	log  *logger.Logger
}

func NewRedisLocker(rdb *goredis.Client, ttl, wait time.Duration, baseLog *logger.Logger) SessionLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &redisLocker{rdb: rdb, ttl: ttl, wait: wait, log: baseLog.With("service", "RedisSessionLocker")}
}

func (l *redisLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, busyError(sessionID, err)
			}
			return nil, domain.UpstreamError("session_lock", err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
						l.log.Warn("Session lock release failed", "session_id", sessionID, "error", err)
					}
				})
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, busyError(sessionID, nil)
		}
		select {
		case <-ctx.Done():
			return nil, busyError(sessionID, ctx.Err())
		case <-time.After(lockRetry):
		}
	}
}
