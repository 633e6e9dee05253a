package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"floreria/internal/config"
	"floreria/internal/delivery"
	"floreria/internal/models"
	"floreria/internal/repositories/interfaces"
	"floreria/internal/utils"
	"floreria/pkg/cache"
	"floreria/pkg/logger"
	"floreria/pkg/maps"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

// memoryStore mimics RedisCache: values round-trip through JSON.
type memoryStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	ttl      map[string]time.Duration
	counters map[string]int64
	getErr   error
	setErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		data:     make(map[string][]byte),
		ttl:      make(map[string]time.Duration),
		counters: make(map[string]int64),
	}
}

func (m *memoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = raw
	m.ttl[key] = expiration
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		delete(m.ttl, k)
	}
	return nil
}

func (m *memoryStore) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], window, nil
}

func (m *memoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *memoryStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type memoryQuoteRepo struct {
	mu     sync.Mutex
	quotes map[primitive.ObjectID]*models.DeliveryQuote
}

func newMemoryQuoteRepo() *memoryQuoteRepo {
	return &memoryQuoteRepo{quotes: make(map[primitive.ObjectID]*models.DeliveryQuote)}
}

func (r *memoryQuoteRepo) Create(ctx context.Context, quote *models.DeliveryQuote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *quote
	r.quotes[quote.ID] = &stored
	return nil
}

func (r *memoryQuoteRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DeliveryQuote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := *q
	return &out, nil
}

func (r *memoryQuoteRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error) {
	return r.filter(func(*models.DeliveryQuote) bool { return true }, params)
}

func (r *memoryQuoteRepo) ListByCommune(ctx context.Context, commune string, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error) {
	return r.filter(func(q *models.DeliveryQuote) bool { return q.Commune == commune }, params)
}

func (r *memoryQuoteRepo) filter(keep func(*models.DeliveryQuote) bool, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []*models.DeliveryQuote
	for _, q := range r.quotes {
		if keep(q) {
			out := *q
			all = append(all, &out)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.Hex() > all[j].ID.Hex()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := params.GetSkip()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.GetLimit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memoryQuoteRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.quotes)
}

type fakeGeocoder struct {
	mu      sync.Mutex
	results map[string]maps.GeocodeResult
	reverse map[string]maps.GeocodeResult
	calls   int
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (*maps.GeocodeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	result, ok := g.results[address]
	if !ok {
		return nil, maps.ErrNoResults
	}
	return &maps.GeocodeResponse{Results: []maps.GeocodeResult{result}}, nil
}

func (g *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*maps.GeocodeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	result, ok := g.reverse[fmt.Sprintf("%.4f,%.4f", lat, lng)]
	if !ok {
		return nil, maps.ErrNoResults
	}
	return &maps.GeocodeResponse{Results: []maps.GeocodeResult{result}}, nil
}

func (g *fakeGeocoder) Name() string {
	return "fake"
}

func (g *fakeGeocoder) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type serviceFixture struct {
	clock    *testClock
	repo     *memoryQuoteRepo
	store    *memoryStore
	geocoder *fakeGeocoder
	logs     *bytes.Buffer
	service  DeliveryService
}

func newServiceFixture(now time.Time) *serviceFixture {
	return newServiceFixtureIn(now, time.UTC)
}

func newServiceFixtureIn(now time.Time, loc *time.Location) *serviceFixture {
	f := &serviceFixture{
		logs:     &bytes.Buffer{},
		clock:    &testClock{now: now},
		repo:     newMemoryQuoteRepo(),
		store:    newMemoryStore(),
		geocoder: &fakeGeocoder{results: make(map[string]maps.GeocodeResult)},
	}

	engine := delivery.NewEngine(delivery.DefaultCatalog(),
		delivery.WithClock(f.clock.Now),
		delivery.WithLocation(loc))
	cfg := &config.DeliveryConfig{
		QuoteTTL:        30 * time.Minute,
		ResolveRadiusKM: 6,
		GeocodeCacheTTL: time.Hour,
	}
	log, err := logger.NewLogger(&logger.Config{Level: logger.WarnLevel, Format: "json"})
	if err != nil {
		panic(err)
	}
	log.SetOutput(f.logs)

	f.service = NewDeliveryService(engine, f.repo, NewCacheService(f.store, log, ""), f.geocoder, cfg, log)
	return f
}
