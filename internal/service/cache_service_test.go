package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
)

type memoryCache struct {
	mu     sync.Mutex
	items  map[string][]byte
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.items[key]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = payload
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func TestCacheServiceHitMissAndMetrics(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	_, hit := svc.Get(ctx, "contacts:store")
	assert.False(t, hit)

	svc.Set(ctx, "contacts:store", []byte("[]"), 0)
	payload, hit := svc.Get(ctx, "contacts:store")
	assert.True(t, hit)
	assert.Equal(t, "[]", string(payload))

	svc.Invalidate(ctx, "contacts:*")
	_, hit = svc.Get(ctx, "contacts:store")
	assert.False(t, hit)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(2), snap.CacheMisses)
}

func TestCacheServiceErrorsBecomeMisses(t *testing.T) {
	repo := newMemoryCache()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, nil, true)

	_, hit := svc.Get(context.Background(), "contacts:store")
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	_, hit := nilSvc.Get(context.Background(), "k")
	assert.False(t, hit)

	svc := NewCacheService(newMemoryCache(), nil, 0, nil, false)
	svc.Set(context.Background(), "k", []byte("v"), 0)
	_, hit = svc.Get(context.Background(), "k")
	assert.False(t, hit)
}
