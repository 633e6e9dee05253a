package delivery

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"floreria/internal/models"
	"floreria/internal/utils"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/default.yaml
var defaultCatalogYAML []byte

// Tables is the raw reference data of the delivery catalog as it appears in
// the YAML file.
type Tables struct {
	Currency      string                  `yaml:"currency"`
	Zones         []models.Zone           `yaml:"zones"`
	Communes      []models.Commune        `yaml:"communes"`
	Schedule      models.DeliverySchedule `yaml:"schedule"`
	DeliveryTypes []models.DeliveryType   `yaml:"delivery_types"`
}

// Catalog is the immutable, indexed form of Tables. All accessors return
// copies, so a Catalog can be shared between goroutines.
type Catalog struct {
	tables Tables

	zoneIndex    map[string]int
	communeIndex map[string]int
	foldedNames  map[string]string
	slotIndex    map[string]models.TimeSlot
	days         map[time.Weekday]models.DaySchedule
	specialDates map[models.CalendarDay]models.SpecialDate
	types        map[models.DeliveryTypeCode]models.DeliveryType
}

// NewCatalog indexes the tables without checking them. Use Validate (or
// LoadCatalog, which calls it) before serving from untrusted tables.
func NewCatalog(t Tables) *Catalog {
	if t.Currency == "" {
		t.Currency = utils.DefaultCurrency
	}
	if t.Schedule.MinAdvanceHours <= 0 {
		t.Schedule.MinAdvanceHours = utils.DefaultMinAdvanceHours
	}

	c := &Catalog{
		tables:       t,
		zoneIndex:    make(map[string]int, len(t.Zones)),
		communeIndex: make(map[string]int, len(t.Communes)),
		foldedNames:  make(map[string]string, len(t.Communes)),
		slotIndex:    make(map[string]models.TimeSlot, len(t.Schedule.Slots)),
		days:         make(map[time.Weekday]models.DaySchedule, len(t.Schedule.Days)),
		specialDates: make(map[models.CalendarDay]models.SpecialDate, len(t.Schedule.SpecialDates)),
		types:        make(map[models.DeliveryTypeCode]models.DeliveryType, len(t.DeliveryTypes)),
	}

	for i, z := range t.Zones {
		c.zoneIndex[z.ID] = i
	}
	for i, cm := range t.Communes {
		c.communeIndex[cm.Name] = i
		c.foldedNames[utils.FoldName(cm.Name)] = cm.Name
	}
	for _, s := range t.Schedule.Slots {
		c.slotIndex[s.ID] = s
	}
	for _, d := range t.Schedule.Days {
		c.days[time.Weekday(d.Weekday)] = d
	}
	for _, sd := range t.Schedule.SpecialDates {
		c.specialDates[sd.Date] = sd
	}
	for _, dt := range t.DeliveryTypes {
		c.types[dt.Code] = dt
	}

	return c
}

// LoadCatalog decodes YAML tables and validates them.
func LoadCatalog(data []byte) (*Catalog, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode delivery catalog: %w", err)
	}

	c := NewCatalog(t)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read delivery catalog %s: %w", path, err)
	}
	return LoadCatalog(data)
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded delivery catalog is invalid: %v", err))
	}
	return c
}

// Validate reports every consistency problem of the catalog at once.
func (c *Catalog) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.tables.Zones) == 0 {
		add("catalog has no zones")
	}

	seenZones := make(map[string]bool, len(c.tables.Zones))
	listedBy := make(map[string]string)
	for _, z := range c.tables.Zones {
		if z.ID == "" {
			add("zone %q has an empty id", z.Name)
			continue
		}
		if seenZones[z.ID] {
			add("zone %q is defined more than once", z.ID)
		}
		seenZones[z.ID] = true

		if z.BaseFee < 0 {
			add("zone %q has a negative base fee", z.ID)
		}
		if z.FreeDeliveryThreshold < 0 {
			add("zone %q has a negative free delivery threshold", z.ID)
		}
		if z.DeliveryTime.Min > z.DeliveryTime.Max {
			add("zone %q has an inverted delivery time range", z.ID)
		}

		for _, name := range z.Communes {
			if other, ok := listedBy[name]; ok && other != z.ID {
				add("commune %q is listed by zones %q and %q", name, other, z.ID)
				continue
			}
			listedBy[name] = z.ID
			if _, ok := c.communeIndex[name]; !ok {
				add("zone %q lists unknown commune %q", z.ID, name)
			}
		}
	}

	seenCommunes := make(map[string]bool, len(c.tables.Communes))
	for _, cm := range c.tables.Communes {
		if seenCommunes[cm.Name] {
			add("commune %q is defined more than once", cm.Name)
		}
		seenCommunes[cm.Name] = true

		if !cm.Active {
			continue
		}
		if _, ok := c.zoneIndex[cm.ZoneID]; !ok {
			add("active commune %q references unknown zone %q", cm.Name, cm.ZoneID)
			continue
		}
		if listedBy[cm.Name] != cm.ZoneID {
			add("active commune %q is not listed by its zone %q", cm.Name, cm.ZoneID)
		}
	}

	seenSlots := make(map[string]bool, len(c.tables.Schedule.Slots))
	for _, s := range c.tables.Schedule.Slots {
		if seenSlots[s.ID] {
			add("slot %q is defined more than once", s.ID)
		}
		seenSlots[s.ID] = true
		if s.Start.Minutes() >= s.End.Minutes() {
			add("slot %q must start before it ends", s.ID)
		}
	}
	for _, d := range c.tables.Schedule.Days {
		for _, id := range d.Slots {
			if _, ok := c.slotIndex[id]; !ok {
				add("%s references unknown slot %q", time.Weekday(d.Weekday), id)
			}
		}
	}
	for _, id := range c.tables.Schedule.ExtendedSlots {
		if _, ok := c.slotIndex[id]; !ok {
			add("extended hours reference unknown slot %q", id)
		}
	}
	for _, sd := range c.tables.Schedule.SpecialDates {
		if !sd.Date.Valid() {
			add("special date %q has an invalid day", sd.Name)
		}
		if sd.Surcharge < 0 {
			add("special date %s has a negative surcharge", sd.Date)
		}
	}

	for _, dt := range c.tables.DeliveryTypes {
		if !dt.Code.Valid() {
			add("unknown delivery type %q", dt.Code)
		}
		if dt.Multiplier <= 0 {
			add("delivery type %q needs a positive multiplier", dt.Code)
		}
		if dt.AdvanceDiscount < 0 || dt.AdvanceDiscount >= 1 {
			add("delivery type %q advance discount must be in [0, 1)", dt.Code)
		}
		if dt.AdvanceDiscount != 0 && dt.Code != models.DeliveryTypeScheduled {
			add("delivery type %q cannot carry an advance discount", dt.Code)
		}
		if dt.MinOrderValue < 0 {
			add("delivery type %q has a negative minimum order value", dt.Code)
		}
	}
	if _, ok := c.types[models.DeliveryTypeStandard]; !ok {
		add("delivery type %q is required", models.DeliveryTypeStandard)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid delivery catalog: %w", errors.Join(errs...))
}

func (c *Catalog) Currency() string {
	return c.tables.Currency
}

func (c *Catalog) MinAdvanceHours() int {
	return c.tables.Schedule.MinAdvanceHours
}

// Zones returns the zones in catalog order.
func (c *Catalog) Zones() []models.Zone {
	zones := make([]models.Zone, len(c.tables.Zones))
	for i, z := range c.tables.Zones {
		zones[i] = copyZone(z)
	}
	return zones
}

func (c *Catalog) Zone(id string) (models.Zone, bool) {
	i, ok := c.zoneIndex[id]
	if !ok {
		return models.Zone{}, false
	}
	return copyZone(c.tables.Zones[i]), true
}

// Commune looks up a commune by its exact, case-sensitive name.
func (c *Catalog) Commune(name string) (models.Commune, bool) {
	i, ok := c.communeIndex[name]
	if !ok {
		return models.Commune{}, false
	}
	return c.tables.Communes[i], true
}

// CanonicalCommuneName maps an accent and case insensitive spelling to the
// registry name ("nunoa" → "Ñuñoa").
func (c *Catalog) CanonicalCommuneName(name string) (string, bool) {
	canonical, ok := c.foldedNames[utils.FoldName(name)]
	return canonical, ok
}

func (c *Catalog) Communes() []models.Commune {
	communes := make([]models.Commune, len(c.tables.Communes))
	copy(communes, c.tables.Communes)
	return communes
}

func (c *Catalog) Slot(id string) (models.TimeSlot, bool) {
	s, ok := c.slotIndex[id]
	return s, ok
}

func (c *Catalog) Day(weekday time.Weekday) (models.DaySchedule, bool) {
	d, ok := c.days[weekday]
	return d, ok
}

func (c *Catalog) ExtendedSlots() []string {
	return append([]string(nil), c.tables.Schedule.ExtendedSlots...)
}

func (c *Catalog) SpecialDate(day models.CalendarDay) (models.SpecialDate, bool) {
	sd, ok := c.specialDates[day]
	return sd, ok
}

// SpecialDates returns the special dates sorted by calendar day.
func (c *Catalog) SpecialDates() []models.SpecialDate {
	dates := append([]models.SpecialDate(nil), c.tables.Schedule.SpecialDates...)
	sort.Slice(dates, func(i, j int) bool {
		if dates[i].Date.Month != dates[j].Date.Month {
			return dates[i].Date.Month < dates[j].Date.Month
		}
		return dates[i].Date.Day < dates[j].Date.Day
	})
	return dates
}

func (c *Catalog) DeliveryType(code models.DeliveryTypeCode) (models.DeliveryType, bool) {
	dt, ok := c.types[code]
	return copyDeliveryType(dt), ok
}

// DeliveryTypes returns the configured delivery types in catalog order.
func (c *Catalog) DeliveryTypes() []models.DeliveryType {
	types := make([]models.DeliveryType, len(c.tables.DeliveryTypes))
	for i, dt := range c.tables.DeliveryTypes {
		types[i] = copyDeliveryType(dt)
	}
	return types
}

func copyZone(z models.Zone) models.Zone {
	z.Communes = append([]string(nil), z.Communes...)
	return z
}

func copyDeliveryType(dt models.DeliveryType) models.DeliveryType {
	if dt.Cutoff != nil {
		cutoff := *dt.Cutoff
		dt.Cutoff = &cutoff
	}
	return dt
}
