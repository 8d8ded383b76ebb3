package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/reschedule-api/pkg/errors"
)

type memoryCacheRepo struct {
	values  map[string]string
	getErr  error
	deleted []string
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = value
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.deleted = append(m.deleted, keys...)
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestCacheServiceRoundTripRecordsMetrics(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]string{}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)

	var got string
	assert.False(t, svc.Get(context.Background(), "k", &got))
	svc.Set(context.Background(), "k", "v")
	assert.True(t, svc.Get(context.Background(), "k", &got))
	assert.Equal(t, "v", got)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio))

	svc.Invalidate(context.Background(), "k")
	assert.Equal(t, []string{"k"}, repo.deleted)
	assert.False(t, svc.Get(context.Background(), "k", &got))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]string{"k": "v"}}
	svc := NewCacheService(repo, nil, 0, nil, false)

	var got string
	assert.False(t, svc.Enabled())
	assert.False(t, svc.Get(context.Background(), "k", &got))
	svc.Invalidate(context.Background(), "k")
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Get(context.Background(), "k", &got))
}

func TestCacheServiceBackendErrorIsAMiss(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string]string{}, getErr: errors.New("connection refused")}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var got string
	assert.False(t, svc.Get(context.Background(), "k", &got))
}
