package delivery

import (
	"errors"
	"sync/atomic"
	"time"

	"floreria/internal/utils"
)

var (
	ErrCommuneUnavailable = errors.New("Comuna no disponible para envío")
	ErrZoneNotConfigured  = errors.New("Zona de envío no configurada")
)

// Engine computes fees, slot availability and registry lookups over a
// Catalog. Each operation reads a single catalog snapshot, so SetCatalog may
// run concurrently with requests.
type Engine struct {
	catalog  atomic.Pointer[Catalog]
	now      func() time.Time
	location *time.Location
}

type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the shop time zone used for calendar days and slot
// times.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	e := &Engine{
		now:      time.Now,
		location: utils.LoadLocation(utils.DefaultTimeZone),
	}
	e.catalog.Store(catalog)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog.Load()
}

// SetCatalog replaces the reference tables. Operations already running keep
// the catalog they started with.
func (e *Engine) SetCatalog(catalog *Catalog) {
	if catalog != nil {
		e.catalog.Store(catalog)
	}
}

func (e *Engine) Location() *time.Location {
	return e.location
}

// Now is the engine clock in the shop time zone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.location)
}
