package storage

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const downloadKeyPrefix = "presign:download:"

// URLCache stores minted URLs for reuse.
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisURLCache keeps URLs in Redis with a TTL.
type RedisURLCache struct {
	client *redis.Client
}

// NewRedisURLCache wraps client.
func NewRedisURLCache(client *redis.Client) *RedisURLCache {
	return &RedisURLCache{client: client}
}

func (c *RedisURLCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisURLCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachingSigner reuses download URLs while at least half of their lifetime
// remains. Upload URLs are never cached since every upload has its own key.
// Cache failures fall through to the wrapped signer.
type CachingSigner struct {
	next   ObjectSigner
	cache  URLCache
	logger *zap.Logger
	hits   func(hit bool)
	now    func() time.Time
}

// NewCachingSigner wraps next. onLookup, when non-nil, is told whether a lookup hit.
func NewCachingSigner(next ObjectSigner, cache URLCache, logger *zap.Logger, onLookup func(hit bool)) *CachingSigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingSigner{next: next, cache: cache, logger: logger, hits: onLookup, now: time.Now}
}

func (s *CachingSigner) PresignUpload(ctx context.Context, objectKey, contentType string, ttl time.Duration) (string, error) {
	return s.next.PresignUpload(ctx, objectKey, contentType, ttl)
}

// PresignDownload returns a cached URL with its remaining lifetime, or mints a new one.
func (s *CachingSigner) PresignDownload(ctx context.Context, objectKey string, ttl time.Duration) (string, time.Duration, error) {
	key := downloadKeyPrefix + objectKey
	now := s.now()
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("presign cache read failed", zap.Error(err))
	} else if ok {
		if url, expiresAt, valid := decodeCachedURL(raw); valid && expiresAt.After(now) {
			s.observe(true)
			return url, expiresAt.Sub(now), nil
		}
	}
	s.observe(false)

	url, validFor, err := s.next.PresignDownload(ctx, objectKey, ttl)
	if err != nil {
		return "", 0, err
	}
	if keep := validFor / 2; keep > 0 {
		if err := s.cache.Set(ctx, key, encodeCachedURL(url, now.Add(validFor)), keep); err != nil {
			s.logger.Warn("presign cache write failed", zap.Error(err))
		}
	}
	return url, validFor, nil
}

func (s *CachingSigner) observe(hit bool) {
	if s.hits != nil {
		s.hits(hit)
	}
}

// Cached values are "<expiry unix millis> <url>".
func encodeCachedURL(url string, expiresAt time.Time) string {
	return strconv.FormatInt(expiresAt.UnixMilli(), 10) + " " + url
}

func decodeCachedURL(raw string) (string, time.Time, bool) {
	millis, url, ok := strings.Cut(raw, " ")
	if !ok || url == "" {
		return "", time.Time{}, false
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return url, time.UnixMilli(ms), true
}
