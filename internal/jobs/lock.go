package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
)

// releaseScript only deletes the lock when the stored token still
// matches, so an instance that overran the TTL cannot release a lock
// another instance has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a best-effort distributed mutex for scheduled jobs. When
// several instances run the same schedule, only the one holding the
// lock does the work.
type Lock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLock(client *redis.Client, ttl time.Duration) *Lock {
	return &Lock{client: client, ttl: ttl}
}

// Acquire tries to take the named lock. The release func is nil when
// the lock is held elsewhere.
func (l *Lock) Acquire(ctx context.Context, name string) (func(), error) {
	if l.client == nil {
		// No Redis means a single-instance deployment; run unlocked.
		return func() {}, nil
	}

	key := "lock:" + name
	token := ksuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.client, []string{key}, token)
	}
	return release, nil
}
