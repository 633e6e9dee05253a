package delivery

import (
	"testing"
	"time"

	"floreria/internal/models"
	"floreria/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDeliveryFee_BelowThreshold(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 10, 10, 0))

	fee, err := engine.CalculateDeliveryFee("Recoleta", 10000, models.DeliveryTypeStandard, date(2025, time.March, 12, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, "centro-norte", fee.ZoneID)
	assert.Equal(t, "Zona Centro Norte", fee.ZoneName)
	assert.Equal(t, models.DeliveryTypeStandard, fee.DeliveryType)
	assert.Equal(t, int64(2990), fee.BaseFee)
	assert.Equal(t, int64(2990), fee.Fee)
	assert.False(t, fee.IsFreeDelivery)
	assert.Equal(t, int64(35000), fee.FreeDeliveryThreshold)
	assert.Equal(t, int64(25000), fee.AmountForFreeDelivery)
	assert.Zero(t, fee.Surcharge)
	assert.Zero(t, fee.Discount)
	assert.Empty(t, fee.SpecialDate)
	assert.Equal(t, models.DeliveryTimeRange{Min: 3, Max: 5, Unit: models.TimeUnitHours}, fee.DeliveryTime)
}

func TestCalculateDeliveryFee_FreeDelivery(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 10, 10, 0))

	for _, total := range []int64{35000, 40000} {
		fee, err := engine.CalculateDeliveryFee("Recoleta", total, models.DeliveryTypeStandard, date(2025, time.March, 12, 0, 0))
		require.NoError(t, err)
		assert.Zero(t, fee.Fee)
		assert.True(t, fee.IsFreeDelivery)
		assert.Zero(t, fee.AmountForFreeDelivery)
	}
}

func TestCalculateDeliveryFee_UnavailableCommune(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 10, 10, 0))

	for _, name := range []string{"Atlantis", "Pirque", "recoleta", ""} {
		fee, err := engine.CalculateDeliveryFee(name, 10000, models.DeliveryTypeStandard, time.Time{})
		assert.Nil(t, fee, name)
		assert.ErrorIs(t, err, ErrCommuneUnavailable, name)
		assert.EqualError(t, err, "Comuna no disponible para envío")
	}
}

func TestCalculateDeliveryFee_ZoneNotConfigured(t *testing.T) {
	catalog := NewCatalog(Tables{
		Communes: []models.Commune{{Name: "Isla de Maipo", ZoneID: "rural", Active: true}},
		DeliveryTypes: []models.DeliveryType{
			{Code: models.DeliveryTypeStandard, Multiplier: 1},
		},
	})
	engine := NewEngine(catalog, WithClock(fixedClock(date(2025, time.March, 10, 10, 0))), WithLocation(time.UTC))

	_, err := engine.CalculateDeliveryFee("Isla de Maipo", 10000, models.DeliveryTypeStandard, time.Time{})
	assert.ErrorIs(t, err, ErrZoneNotConfigured)
	assert.EqualError(t, err, "Zona de envío no configurada")
}

func TestCalculateDeliveryFee_SpecialDateSurcharge(t *testing.T) {
	engine := newTestEngine(date(2025, time.February, 10, 10, 0))

	fee, err := engine.CalculateDeliveryFee("Las Condes", 10000, models.DeliveryTypeStandard, date(2025, time.February, 14, 12, 0))
	require.NoError(t, err)

	assert.Equal(t, int64(3490), fee.BaseFee)
	assert.Equal(t, int64(5000), fee.Surcharge)
	assert.Equal(t, int64(8490), fee.Fee)
	assert.Equal(t, "San Valentín", fee.SpecialDate)
}

func TestCalculateDeliveryFee_FreeDeliveryAbsorbsSurcharge(t *testing.T) {
	engine := newTestEngine(date(2025, time.February, 10, 10, 0))

	fee, err := engine.CalculateDeliveryFee("Las Condes", 40000, models.DeliveryTypeExpress, date(2025, time.February, 14, 12, 0))
	require.NoError(t, err)

	assert.True(t, fee.IsFreeDelivery)
	assert.Zero(t, fee.Fee)
	assert.Zero(t, fee.Surcharge)
	assert.Equal(t, "San Valentín", fee.SpecialDate)
}

func TestCalculateDeliveryFee_TypeMultipliers(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 12, 9, 0))
	on := date(2025, time.March, 12, 15, 0)

	tests := []struct {
		name     string
		code     models.DeliveryTypeCode
		wantType models.DeliveryTypeCode
		wantFee  int64
	}{
		{"standard", models.DeliveryTypeStandard, models.DeliveryTypeStandard, 2490},
		{"express", models.DeliveryTypeExpress, models.DeliveryTypeExpress, 3735},
		{"same day rounds half up", models.DeliveryTypeSameDay, models.DeliveryTypeSameDay, 3113},
		{"scheduled without advance", models.DeliveryTypeScheduled, models.DeliveryTypeScheduled, 2490},
		{"empty falls back to standard", "", models.DeliveryTypeStandard, 2490},
		{"unknown falls back to standard", "drone", models.DeliveryTypeStandard, 2490},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, err := engine.CalculateDeliveryFee("Santiago", 10000, tt.code, on)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, fee.DeliveryType)
			assert.Equal(t, tt.wantFee, fee.Fee)
			assert.Zero(t, fee.Discount)
		})
	}
}

func TestCalculateDeliveryFee_ScheduledAdvanceDiscount(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 10, 10, 0))

	fee, err := engine.CalculateDeliveryFee("Santiago", 10000, models.DeliveryTypeScheduled, date(2025, time.March, 12, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(249), fee.Discount)
	assert.Equal(t, int64(2241), fee.Fee)

	// Exactly 24 hours ahead still qualifies.
	fee, err = engine.CalculateDeliveryFee("Santiago", 10000, models.DeliveryTypeScheduled, date(2025, time.March, 11, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(249), fee.Discount)

	fee, err = engine.CalculateDeliveryFee("Santiago", 10000, models.DeliveryTypeScheduled, date(2025, time.March, 11, 9, 59))
	require.NoError(t, err)
	assert.Zero(t, fee.Discount)
	assert.Equal(t, int64(2490), fee.Fee)
}

func TestCalculateDeliveryFee_ScheduledDiscountIncludesSurcharge(t *testing.T) {
	engine := newTestEngine(date(2025, time.February, 10, 10, 0))

	fee, err := engine.CalculateDeliveryFee("Las Condes", 10000, models.DeliveryTypeScheduled, date(2025, time.February, 14, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(849), fee.Discount)
	assert.Equal(t, int64(7641), fee.Fee)
}

func TestCalculateDeliveryFee_NegativeTotalIsClamped(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 10, 10, 0))

	fee, err := engine.CalculateDeliveryFee("Maipú", -500, models.DeliveryTypeStandard, date(2025, time.March, 12, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(3990), fee.Fee)
	assert.Equal(t, int64(45000), fee.AmountForFreeDelivery)
}

func TestCalculateDeliveryFee_ZeroDateUsesClock(t *testing.T) {
	now := date(2025, time.December, 24, 9, 0)
	engine := newTestEngine(now)

	fee, err := engine.CalculateDeliveryFee("Santiago", 1000, models.DeliveryTypeStandard, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, now, fee.DeliveryDate)
	assert.Equal(t, "Nochebuena", fee.SpecialDate)
	assert.Equal(t, int64(6490), fee.Fee)
}

func TestCalculateDeliveryFee_NeverNegativeForActiveCommunes(t *testing.T) {
	engine := newTestEngine(date(2025, time.February, 10, 10, 0))
	dates := []time.Time{
		date(2025, time.February, 10, 18, 0),
		date(2025, time.February, 14, 9, 0),
		date(2025, time.March, 20, 12, 0),
	}

	for _, listing := range engine.ListAvailableCommunes() {
		for _, code := range models.DeliveryTypeCodes {
			for _, d := range dates {
				for _, total := range []int64{0, 12000, 100000} {
					fee, err := engine.CalculateDeliveryFee(listing.Name, total, code, d)
					require.NoError(t, err, listing.Name)
					assert.GreaterOrEqual(t, fee.Fee, int64(0))
					if fee.IsFreeDelivery {
						assert.Zero(t, fee.Fee)
						assert.Zero(t, fee.AmountForFreeDelivery)
					} else {
						assert.Positive(t, fee.AmountForFreeDelivery)
					}
				}
			}
		}
	}
}

func TestCheckDeliveryType(t *testing.T) {
	morning := date(2025, time.March, 12, 10, 0)
	afternoon := date(2025, time.March, 12, 15, 0)

	tests := []struct {
		name     string
		now      time.Time
		code     models.DeliveryTypeCode
		total    int64
		at       time.Time
		eligible bool
		reason   string
	}{
		{"standard always", morning, models.DeliveryTypeStandard, 0, time.Time{}, true, ""},
		{"express below minimum", morning, models.DeliveryTypeExpress, 10000, time.Time{}, false, "$15.000"},
		{"express at minimum", morning, models.DeliveryTypeExpress, 15000, time.Time{}, true, ""},
		{"same day before cutoff", morning, models.DeliveryTypeSameDay, 5000, afternoon, true, ""},
		{"same day after cutoff", afternoon, models.DeliveryTypeSameDay, 5000, time.Time{}, false, "14:00"},
		{"same day for tomorrow", morning, models.DeliveryTypeSameDay, 5000, date(2025, time.March, 13, 10, 0), false, "hoy"},
		{"scheduled", morning, models.DeliveryTypeScheduled, 5000, date(2025, time.March, 20, 10, 0), true, ""},
		{"unknown type", morning, "drone", 5000, time.Time{}, false, "no disponible"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(tt.now)
			got := engine.CheckDeliveryType(tt.code, tt.total, tt.at)
			assert.Equal(t, tt.code, got.Type)
			assert.Equal(t, tt.eligible, got.Eligible)
			if tt.reason == "" {
				assert.Empty(t, got.Reason)
			} else {
				assert.Contains(t, got.Reason, tt.reason)
			}
		})
	}
}

func TestCalculateDeliveryFee_SpecialDateWithoutMidnight(t *testing.T) {
	loc := santiago(t)
	tables := DefaultCatalog().tables
	tables.Schedule.SpecialDates = append(tables.Schedule.SpecialDates,
		models.SpecialDate{Date: models.CalendarDay{Month: time.September, Day: 6}, Name: "Sábado de prueba", Surcharge: 1000},
		models.SpecialDate{Date: models.CalendarDay{Month: time.September, Day: 7}, Name: "Domingo de prueba", Surcharge: 3000},
	)
	now := time.Date(2025, time.September, 1, 10, 0, 0, 0, loc)
	engine := NewEngine(NewCatalog(tables), WithClock(fixedClock(now)), WithLocation(loc))

	on, err := utils.ParseDeliveryDate("2025-09-07", loc)
	require.NoError(t, err)

	fee, err := engine.CalculateDeliveryFee("Providencia", 10000, models.DeliveryTypeStandard, on)
	require.NoError(t, err)
	assert.Equal(t, "Domingo de prueba", fee.SpecialDate)
	assert.Equal(t, int64(3000), fee.Surcharge)
	assert.Equal(t, int64(5490), fee.Fee)
}

func TestCalculateDeliveryFee_AdvanceDiscountOnlyForScheduled(t *testing.T) {
	tables := DefaultCatalog().tables
	for i := range tables.DeliveryTypes {
		if tables.DeliveryTypes[i].Code == models.DeliveryTypeExpress {
			tables.DeliveryTypes[i].AdvanceDiscount = 0.2
		}
	}
	engine := NewEngine(NewCatalog(tables), WithClock(fixedClock(date(2025, time.March, 10, 10, 0))), WithLocation(time.UTC))

	fee, err := engine.CalculateDeliveryFee("Santiago", 10000, models.DeliveryTypeExpress, date(2025, time.March, 14, 10, 0))
	require.NoError(t, err)
	assert.Zero(t, fee.Discount)
	assert.Equal(t, int64(3735), fee.Fee)
}
