package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
)

const (
	keyAwardUser = "xp:award:user:%s"
	keyJobLock   = "scheduler:lock:%s"
)

// AwardLimiter throttles per-user award calls and hands out the
// distributed locks the scheduler jobs run under. A nil limiter (redis
// not configured) allows everything, so a single-instance deployment
// needs no redis at all.
type AwardLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	awardRate  float64
	awardBurst int
	lockTTL    time.Duration
}

func NewAwardLimiter(cfg config.Config) (*AwardLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, fmt.Errorf("rate limit redis addr is required")
	}
	if limitCfg.AwardRate <= 0 || limitCfg.AwardBurst <= 0 {
		return nil, fmt.Errorf("award rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &AwardLimiter{
		enabled:    true,
		bucket:     NewTokenBucket(client),
		locker:     NewLocker(client),
		awardRate:  limitCfg.AwardRate,
		awardBurst: limitCfg.AwardBurst,
		lockTTL:    limitCfg.LockTTL,
	}, nil
}

func (l *AwardLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *AwardLimiter) AllowAward(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyAwardUser, strings.TrimSpace(userID)), l.awardRate, l.awardBurst)
}

func (l *AwardLimiter) TryLockJob(ctx context.Context, job string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keyJobLock, job), l.lockTTL)
}

func (l *AwardLimiter) ReleaseJob(ctx context.Context, job, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keyJobLock, job), token)
}
