package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jo-hoe/plantdoctor/internal/backend/prediction"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "prediction:"

type cachedResult struct {
	Outcome    prediction.Outcome `json:"outcome"`
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
}

// PredictionCache stores prediction results in Redis.
type PredictionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPredictionCache(rdb *redis.Client, ttl time.Duration) *PredictionCache {
	return &PredictionCache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key from the predictor name and the image content.
func Key(predictorName string, imageData []byte) string {
	sum := sha256.Sum256(imageData)
	return keyPrefix + predictorName + ":" + hex.EncodeToString(sum[:])
}

func (c *PredictionCache) Get(ctx context.Context, key string) (prediction.Result, bool) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("prediction cache read failed", "key", key, "error", err)
		}
		return prediction.Result{}, false
	}

	var cached cachedResult
	if err := json.Unmarshal(val, &cached); err != nil {
		slog.Warn("prediction cache entry is corrupt", "key", key, "error", err)
		return prediction.Result{}, false
	}
	return prediction.Result{
		Outcome:    cached.Outcome,
		Label:      cached.Label,
		Confidence: cached.Confidence,
	}, true
}

func (c *PredictionCache) Set(ctx context.Context, key string, result prediction.Result) {
	data, err := json.Marshal(cachedResult{
		Outcome:    result.Outcome,
		Label:      result.Label,
		Confidence: result.Confidence,
	})
	if err != nil {
		slog.Warn("failed to encode prediction for cache", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("prediction cache write failed", "key", key, "error", err)
	}
}

// CachingPredictor serves repeated uploads of identical bytes from the
// cache. Only deterministic outcomes are stored.
type CachingPredictor struct {
	next  prediction.Predictor
	cache *PredictionCache
}

func NewCachingPredictor(next prediction.Predictor, cache *PredictionCache) *CachingPredictor {
	return &CachingPredictor{next: next, cache: cache}
}

func (p *CachingPredictor) Name() string {
	return p.next.Name()
}

func (p *CachingPredictor) Predict(ctx context.Context, imageData []byte) prediction.Result {
	key := Key(p.next.Name(), imageData)
	if result, ok := p.cache.Get(ctx, key); ok {
		slog.Debug("prediction cache hit", "key", key)
		return result
	}

	result := p.next.Predict(ctx, imageData)
	if result.Outcome.Cacheable() {
		p.cache.Set(ctx, key, result)
	}
	return result
}

func (p *CachingPredictor) Close() error {
	return p.next.Close()
}
