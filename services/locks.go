package services

import (
	"context"
	"sync"
	"time"

	"salonpro-notifier/apperrors"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLocker keeps two runs of the same routine from overlapping. TryLock
// never waits: a held lock is ErrRunInProgress.
type RunLocker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// LocalRunLocker serializes runs inside one process.
type LocalRunLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalRunLocker() *LocalRunLocker {
	return &LocalRunLocker{locks: map[string]*sync.Mutex{}}
}

func (l *LocalRunLocker) TryLock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, errors.Mark(errors.Newf("routine %s is already running", key), apperrors.ErrRunInProgress)
	}
	var once sync.Once
	return func() { once.Do(m.Unlock) }, nil
}

// releaseScript deletes the lease only if we still own it.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// RedisRunLocker holds a lease in Redis so runs are exclusive across
// instances. The TTL bounds how long a crashed holder blocks the routine.
type RedisRunLocker struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedisRunLocker(client redis.Cmdable, ttl time.Duration) *RedisRunLocker {
	return &RedisRunLocker{client: client, ttl: ttl, prefix: "salonpro:run-lock:"}
}

func (l *RedisRunLocker) TryLock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "acquire run lease %s", k)
	}
	if !ok {
		return nil, errors.Mark(errors.Newf("routine %s is already running elsewhere", key), apperrors.ErrRunInProgress)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may be done by now.
			_ = l.client.Eval(context.Background(), releaseScript, []string{k}, token).Err()
		})
	}, nil
}
