package hospitals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/healthmonitree/healthtrack/internal/config"
	"github.com/healthmonitree/healthtrack/internal/errors"
	"github.com/healthmonitree/healthtrack/internal/metrics"
)

const maxPhotoURLs = 3

// Client proxies the Google Places and Geocoding APIs. Upstream calls
// run behind a rate limiter and a circuit breaker so a misbehaving
// quota cannot hammer the API.
type Client struct {
	cfg        *config.PlacesConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new Client
func NewClient(cfg *config.PlacesConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "places",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("places breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		breaker:    breaker,
		logger:     logger,
		metrics:    m,
	}
}

// do runs one upstream request through the limiter and breaker and
// maps HTTP failures onto the places error taxonomy
func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrPlacesQuota.Code, "rate limit wait aborted")
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPlacesUpstream.Code, "places request failed")
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPlacesUpstream.Code, "failed to read places response")
		}

		switch {
		case resp.StatusCode == http.StatusForbidden:
			return nil, errors.ErrPlacesDenied
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errors.ErrPlacesQuota
		case resp.StatusCode != http.StatusOK:
			return nil, errors.New(errors.ErrPlacesUpstream.Code,
				fmt.Sprintf("places API returned %d", resp.StatusCode))
		}
		return data, nil
	})
	c.metrics.PlacesLatencySecs.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.PlacesRequests.WithLabelValues("error").Inc()
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, errors.Wrap(err, errors.ErrPlacesUpstream.Code, "places circuit open")
		}
		return nil, err
	}
	c.metrics.PlacesRequests.WithLabelValues("ok").Inc()
	return body, nil
}

// SearchNearby finds hospitals around the point, nearest first
func (c *Client) SearchNearby(ctx context.Context, lat, lng float64, radiusM int) ([]Hospital, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.ErrPlacesKeyMissing
	}
	if radiusM <= 0 {
		radiusM = c.cfg.DefaultRadius
	}

	payload, err := json.Marshal(searchRequest{
		IncludedTypes:  []string{"hospital"},
		MaxResultCount: c.cfg.MaxResults,
		LocationRestriction: locationRestriction{
			Circle: circle{
				Center: latLng{Latitude: lat, Longitude: lng},
				Radius: float64(radiusM),
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to encode search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SearchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to build search request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Goog-FieldMask",
		"places.id,places.displayName,places.formattedAddress,places.location,"+
			"places.rating,places.internationalPhoneNumber,places.photos,places.currentOpeningHours.openNow")

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrap(err, errors.ErrPlacesUpstream.Code, "failed to decode search response")
	}

	hospitals := make([]Hospital, 0, len(result.Places))
	for _, p := range result.Places {
		h := Hospital{
			PlaceID:   p.ID,
			Name:      p.DisplayName.Text,
			Address:   p.FormattedAddress,
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
			Rating:    p.Rating,
			Phone:     p.Phone,
		}
		if p.OpeningHours != nil {
			open := p.OpeningHours.OpenNow
			h.OpenNow = &open
		}
		for i, ph := range p.Photos {
			if i == maxPhotoURLs {
				break
			}
			h.PhotoURLs = append(h.PhotoURLs, c.photoURL(ph.Name))
		}
		hospitals = append(hospitals, h)
	}

	sortByDistance(hospitals, lat, lng)
	return hospitals, nil
}

func (c *Client) photoURL(name string) string {
	return fmt.Sprintf("https://places.googleapis.com/v1/%s/media?maxWidthPx=400&key=%s", name, c.cfg.APIKey)
}

// Geocode resolves a free-form address to coordinates
func (c *Client) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.ErrPlacesKeyMissing
	}
	if address == "" {
		return nil, errors.New(errors.ErrValidation.Code, "address is required")
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.GeocodeURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, "failed to build geocode request")
	}

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var result geocodeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrap(err, errors.ErrPlacesUpstream.Code, "failed to decode geocode response")
	}

	switch result.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, errors.ErrLocationNotFound
	case "REQUEST_DENIED":
		return nil, errors.ErrPlacesDenied
	case "OVER_QUERY_LIMIT":
		return nil, errors.ErrPlacesQuota
	default:
		return nil, errors.New(errors.ErrPlacesUpstream.Code,
			fmt.Sprintf("geocode returned status %s", result.Status))
	}
	if len(result.Results) == 0 {
		return nil, errors.ErrLocationNotFound
	}

	loc := result.Results[0].Geometry.Location
	return &Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
