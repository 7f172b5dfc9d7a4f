package hospitals

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/config"
	"github.com/healthmonitree/healthtrack/internal/metrics"
)

// LocationProvider is the upstream capability the service depends on;
// tests substitute a fake so no Google account is needed
type LocationProvider interface {
	SearchNearby(ctx context.Context, lat, lng float64, radiusM int) ([]Hospital, error)
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

// KV is the cache backend for search results
type KV interface {
	SetKV(key string, value []byte, ttl time.Duration) error
	GetKV(key string) ([]byte, error)
}

// Service answers hospital searches, caching results briefly to keep
// repeat map pans off the paid API
type Service struct {
	provider LocationProvider
	cache    KV
	cacheTTL time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewService creates a new Service
func NewService(provider LocationProvider, cache KV, cfg *config.PlacesConfig, logger *zap.Logger, m *metrics.Metrics) *Service {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		provider: provider,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger,
		metrics:  m,
	}
}

// cacheKey buckets coordinates to ~100m so nearby repeat searches hit
func cacheKey(lat, lng float64, radiusM int) string {
	return fmt.Sprintf("hospitals:%.3f:%.3f:%d", lat, lng, radiusM)
}

// Search returns hospitals near the point, nearest first
func (s *Service) Search(ctx context.Context, lat, lng float64, radiusM int) ([]Hospital, error) {
	key := cacheKey(lat, lng, radiusM)
	if data, err := s.cache.GetKV(key); err == nil {
		var cached []Hospital
		if err := json.Unmarshal(data, &cached); err == nil {
			s.metrics.PlacesCacheHits.Inc()
			return cached, nil
		}
	} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
		s.logger.Warn("hospital cache read failed", zap.Error(err))
	}

	hospitals, err := s.provider.SearchNearby(ctx, lat, lng, radiusM)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(hospitals); err == nil {
		if err := s.cache.SetKV(key, data, s.cacheTTL); err != nil {
			s.logger.Warn("hospital cache write failed", zap.Error(err))
		}
	}
	return hospitals, nil
}

// SearchByAddress geocodes the address first, then searches around it
func (s *Service) SearchByAddress(ctx context.Context, address string, radiusM int) ([]Hospital, *Coordinates, error) {
	coords, err := s.provider.Geocode(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	hospitals, err := s.Search(ctx, coords.Latitude, coords.Longitude, radiusM)
	if err != nil {
		return nil, nil, err
	}
	return hospitals, coords, nil
}

// Geocode resolves an address to coordinates
func (s *Service) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	return s.provider.Geocode(ctx, address)
}
