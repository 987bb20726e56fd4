package urlcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "streamwave:url:"

// Redis stores entries with a native key expiry so stale keys vanish on
// their own.
type Redis struct {
	client redis.UniversalClient
	now    func() time.Time
}

// Verify Redis implements Cache at compile time.
var _ Cache = (*Redis)(nil)

// NewRedis wraps a redis client. A nil clock uses time.Now.
func NewRedis(client redis.UniversalClient, now func() time.Time) *Redis {
	if now == nil {
		now = time.Now
	}
	return &Redis{client: client, now: now}
}

func (r *Redis) Get(ctx context.Context, id string) (Entry, bool) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false
	}
	// The key TTL and our clock can disagree by a little; the clock wins.
	if !e.Valid(r.now()) {
		return Entry{}, false
	}
	return e, true
}

func (r *Redis) Set(ctx context.Context, id string, e Entry) error {
	if !e.Valid(r.now()) {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	err = r.client.SetArgs(ctx, keyPrefix+id, data, redis.SetArgs{ExpireAt: e.Expiry}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("set url %s: %w", id, err)
	}
	return nil
}
