package listing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

var cache *redis.Client

// InitCache connects the read-through cache used by GetListing. The
// API degrades gracefully when Redis is unreachable.
func InitCache(addr string) error {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return err
	}
	cache = client
	return nil
}

func cacheGet(ctx context.Context, id string) *Listing {
	if cache == nil {
		return nil
	}
	data, err := cache.Get(ctx, "listing:"+id).Bytes()
	if err != nil {
		// redis.Nil on miss, anything else treated the same
		return nil
	}
	var l Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil
	}
	return &l
}

func cacheSet(ctx context.Context, l *Listing) {
	if cache == nil {
		return
	}
	data, err := json.Marshal(l)
	if err != nil {
		return
	}
	_ = cache.Set(ctx, "listing:"+l.ID, data, 1*time.Hour).Err()
}

// InvalidateCache drops a listing from the cache after any mutation.
func InvalidateCache(ctx context.Context, id string) {
	if cache == nil {
		return
	}
	_ = cache.Del(ctx, "listing:"+id).Err()
}
