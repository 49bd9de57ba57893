package tariff

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voltlab/smartcharge/auth"
	"github.com/voltlab/smartcharge/core/factory"
	"github.com/voltlab/smartcharge/core/price"
)

// Config holds the settings of the "rte_tariff" price source.
type Config struct {
	APIURL         string    `json:"api_url"`
	Auth           auth.Conf `json:"auth"`
	Name           string    `json:"name"`
	Required       bool      `json:"required"`
	RefreshSeconds int       `json:"refresh_seconds"`
	WindowHours    int       `json:"window_hours"`
}

// Source polls the tariff API and caches the fetched intervals between
// refreshes, so frequent re-evaluations do not hammer the API.
type Source struct {
	name     string
	required bool
	client   *Client
	ttl      time.Duration
	window   time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cache     []price.RawPoint
	fetchedAt time.Time
}

// New builds the source from its configuration.
func New(cfg Config) (*Source, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("tariff source: api_url is required")
	}
	name := cfg.Name
	if name == "" {
		name = "rte_tariff"
	}
	ttl := time.Duration(cfg.RefreshSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	window := time.Duration(cfg.WindowHours) * time.Hour
	if window <= 0 {
		window = 48 * time.Hour
	}
	var cred *auth.ClientCred
	if cfg.Auth.Configured() {
		cred = auth.NewClientCred(cfg.Auth)
	}
	return &Source{
		name:     name,
		required: cfg.Required,
		client:   NewClient(cfg.APIURL, cred),
		ttl:      ttl,
		window:   window,
		now:      time.Now,
	}, nil
}

func (s *Source) Name() string { return s.name }

func (s *Source) Required() bool { return s.required }

// Points returns the cached intervals, refreshing them when the cache
// expired. A failed refresh falls back to the stale cache when one
// exists; prices change rarely enough that stale beats nothing.
func (s *Source) Points() ([]price.RawPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.fetchedAt.IsZero() && now.Sub(s.fetchedAt) < s.ttl {
		return s.cache, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	start := now.Truncate(time.Hour)
	resp, err := s.client.Fetch(ctx, start, start.Add(s.window))
	if err != nil {
		if len(s.cache) > 0 {
			return s.cache, nil
		}
		return nil, err
	}
	points, err := resp.Points()
	if err != nil {
		return nil, err
	}
	s.cache = points
	s.fetchedAt = now
	return points, nil
}

func init() {
	if err := price.RegisterSource("rte_tariff", func(conf map[string]any) (price.Source, error) {
		var cfg Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return New(cfg)
	}); err != nil {
		panic(err)
	}
}
