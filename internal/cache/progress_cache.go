package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

// ProgressCache stores progress records in a CacheService. A zero ttl keeps records forever.
type ProgressCache struct {
	cache CacheService
	ttl   time.Duration
}

func NewProgressCache(cache CacheService, ttl time.Duration) *ProgressCache {
	return &ProgressCache{cache: cache, ttl: ttl}
}

func (p *ProgressCache) Get(ctx context.Context, key string) ([]byte, error) {
	var raw json.RawMessage
	if err := p.cache.Get(ctx, key, &raw); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, repositories.ErrProgressNotFound
		}
		return nil, err
	}
	return raw, nil
}

func (p *ProgressCache) Save(ctx context.Context, key string, payload []byte) error {
	return p.cache.Set(ctx, key, json.RawMessage(payload), p.ttl)
}

func (p *ProgressCache) Delete(ctx context.Context, key string) error {
	return p.cache.Delete(ctx, key)
}

var _ repositories.ProgressRepository = (*ProgressCache)(nil)
