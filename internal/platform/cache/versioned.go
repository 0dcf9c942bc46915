package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Versioned is a read-through cache whose keys embed a global version number.
// Bumping the version invalidates every entry at once. A nil cache or client
// degrades to loading directly.
type Versioned struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewVersioned builds a versioned cache under the given key prefix.
func NewVersioned(client *redis.Client, prefix string, ttl time.Duration) *Versioned {
	return &Versioned{client: client, prefix: prefix, ttl: ttl}
}

func (v *Versioned) versionKey() string {
	return v.prefix + ":version"
}

func (v *Versioned) version(ctx context.Context) (int64, error) {
	ver, err := v.client.Get(ctx, v.versionKey()).Int64()
	if err == redis.Nil {
		if err := v.client.Set(ctx, v.versionKey(), 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := v.client.Set(ctx, v.versionKey(), ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// Key composes a cache key from its parts and the current version.
func (v *Versioned) Key(ctx context.Context, parts ...string) (string, error) {
	if v == nil {
		return strings.Join(parts, ":"), nil
	}
	joined := v.prefix + ":" + strings.Join(parts, ":")
	if v.client == nil {
		return joined, nil
	}
	ver, err := v.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (v *Versioned) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if v == nil || v.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := v.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := v.client.Set(ctx, key, raw, v.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every entry by incrementing the global version.
func (v *Versioned) Bump(ctx context.Context) error {
	if v == nil || v.client == nil {
		return nil
	}
	ver, err := v.client.Incr(ctx, v.versionKey()).Result()
	if err != nil {
		return err
	}
	return v.client.Publish(ctx, v.prefix+":bump", strconv.FormatInt(ver, 10)).Err()
}
