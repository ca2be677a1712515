package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/metrics"
	"github.com/techagentng/challanx/models"
)

const ReportCacheTTL = 2 * time.Minute

// ReportCache is a read-through cache of report views. Writers invalidate it
// after every status change or vote.
type ReportCache interface {
	GetReport(ctx context.Context, id uuid.UUID) (*models.ReportView, bool)
	SetReport(ctx context.Context, view *models.ReportView)
	InvalidateReport(ctx context.Context, id uuid.UUID)
}

// CacheService is the redis-backed ReportCache. With a nil client every
// operation is a no-op.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService connects to redisURL. If the URL is empty or redis is
// unreachable caching is disabled.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		logger.Log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{}
	}

	logger.Log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// NewCacheServiceWithClient wraps an existing client without pinging it.
func NewCacheServiceWithClient(rdb *redis.Client) *CacheService {
	return &CacheService{rdb: rdb}
}

func (c *CacheService) GetReport(ctx context.Context, id uuid.UUID) (*models.ReportView, bool) {
	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, reportKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn().Err(err).Str("report_id", id.String()).Msg("redis: get report")
		}
		metrics.CacheMisses.Inc()
		return nil, false
	}
	var view models.ReportView
	if err := json.Unmarshal(data, &view); err != nil {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()
	return &view, true
}

func (c *CacheService) SetReport(ctx context.Context, view *models.ReportView) {
	if c.rdb == nil || view == nil || view.Report == nil {
		return
	}
	b, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, reportKey(view.Report.ID), b, ReportCacheTTL).Err(); err != nil {
		logger.Log.Warn().Err(err).Msg("redis: set report")
	}
}

func (c *CacheService) InvalidateReport(ctx context.Context, id uuid.UUID) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, reportKey(id)).Err(); err != nil {
		logger.Log.Warn().Err(err).Str("report_id", id.String()).Msg("redis: invalidate report")
	}
}

func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func reportKey(id uuid.UUID) string {
	return fmt.Sprintf("report:%s", id)
}
