package delivery

import (
	"testing"
	"time"

	"floreria/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotIDs(t *testing.T, engine *Engine, day time.Time) []string {
	t.Helper()
	var ids []string
	for _, s := range engine.GetAvailableSlots(day).Slots {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestGetAvailableSlots_ClosedSunday(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 10, 10, 0))

	got := engine.GetAvailableSlots(date(2025, time.March, 16, 0, 0))
	assert.False(t, got.Available)
	assert.Equal(t, "Domingo", got.DayName)
	assert.Equal(t, "2025-03-16", got.Date)
	assert.Equal(t, "No realizamos entregas los domingos", got.Reason)
	assert.NotNil(t, got.Slots)
	assert.Empty(t, got.Slots)
}

func TestGetAvailableSlots_SundayWithoutMidnight(t *testing.T) {
	loc := santiago(t)
	now := time.Date(2025, time.September, 5, 10, 0, 0, 0, loc)
	engine := NewEngine(DefaultCatalog(), WithClock(fixedClock(now)), WithLocation(loc))

	parsed, err := utils.ParseDeliveryDate("2025-09-07", loc)
	require.NoError(t, err)

	for _, day := range []time.Time{parsed, time.Date(2025, time.September, 7, 12, 0, 0, 0, loc)} {
		got := engine.GetAvailableSlots(day)
		assert.Equal(t, "2025-09-07", got.Date)
		assert.Equal(t, "Domingo", got.DayName)
		assert.False(t, got.Available)
		assert.Equal(t, "No realizamos entregas los domingos", got.Reason)
		assert.Empty(t, got.Slots)
	}

	monday := engine.GetAvailableSlots(time.Date(2025, time.September, 8, 0, 0, 0, 0, loc))
	assert.Equal(t, "Lunes", monday.DayName)
	assert.True(t, monday.Available)
	require.NotEmpty(t, monday.Slots)
	assert.Equal(t, 8, monday.Slots[0].StartsAt.Day())
}

func TestGetAvailableSlots_OpenDay(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 10, 10, 0))

	got := engine.GetAvailableSlots(date(2025, time.March, 12, 16, 45))
	assert.True(t, got.Available)
	assert.Equal(t, "Miércoles", got.DayName)
	assert.Empty(t, got.Reason)
	assert.Nil(t, got.SpecialDate)
	require.Len(t, got.Slots, 4)
	for _, s := range got.Slots {
		assert.True(t, s.Available, s.ID)
		assert.False(t, s.Extended, s.ID)
	}
	assert.Equal(t, date(2025, time.March, 12, 9, 0), got.Slots[0].StartsAt)

	assert.Equal(t, []string{"morning", "midday", "afternoon"}, slotIDs(t, engine, date(2025, time.March, 15, 0, 0)))
}

func TestGetAvailableSlots_LeadTime(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 12, 10, 30))

	got := engine.GetAvailableSlots(date(2025, time.March, 12, 0, 0))
	require.True(t, got.Available)
	require.Len(t, got.Slots, 4)

	want := map[string]bool{"morning": false, "midday": false, "afternoon": true, "evening": true}
	for _, s := range got.Slots {
		assert.Equal(t, want[s.ID], s.Available, s.ID)
		if !s.Available {
			assert.Equal(t, "Se requiere un mínimo de 3 horas de anticipación", s.Reason)
		}
	}

	slot, ok := got.Slot("midday")
	require.True(t, ok)
	assert.False(t, slot.Available)
}

func TestGetAvailableSlots_LeadTimeNeverViolated(t *testing.T) {
	for minute := 0; minute < 24*60; minute += 17 {
		now := date(2025, time.March, 12, 0, 0).Add(time.Duration(minute) * time.Minute)
		engine := newTestEngine(now)
		earliest := now.Add(3 * time.Hour)

		for _, s := range engine.GetAvailableSlots(now).Slots {
			if s.Available {
				assert.False(t, s.StartsAt.Before(earliest), "slot %s at %s", s.ID, now)
			}
		}
	}
}

func TestGetAvailableSlots_NoSlotsLeftToday(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 12, 20, 0))

	got := engine.GetAvailableSlots(time.Time{})
	assert.Equal(t, "2025-03-12", got.Date)
	assert.False(t, got.Available)
	assert.Equal(t, reasonNoSlotsLeft, got.Reason)
	assert.Len(t, got.Slots, 4)
}

func TestGetAvailableSlots_PastDate(t *testing.T) {
	engine := newTestEngine(date(2025, time.March, 12, 10, 0))

	got := engine.GetAvailableSlots(date(2025, time.March, 11, 12, 0))
	assert.False(t, got.Available)
	assert.Equal(t, reasonPastDate, got.Reason)
	assert.Empty(t, got.Slots)
}

func TestGetAvailableSlots_ExtendedHours(t *testing.T) {
	engine := newTestEngine(date(2025, time.February, 10, 10, 0))

	got := engine.GetAvailableSlots(date(2025, time.February, 14, 0, 0))
	require.NotNil(t, got.SpecialDate)
	assert.Equal(t, "San Valentín", got.SpecialDate.Name)
	assert.Equal(t, int64(5000), got.SpecialDate.Surcharge)
	assert.Equal(t, "02-14", got.SpecialDate.Date)
	assert.True(t, got.SpecialDate.ExtendedHours)

	require.Len(t, got.Slots, 5)
	night := got.Slots[4]
	assert.Equal(t, "night", night.ID)
	assert.True(t, night.Extended)
	assert.True(t, night.Available)
}

func TestGetAvailableSlots_SpecialDateWithoutExtendedHours(t *testing.T) {
	engine := newTestEngine(date(2025, time.December, 20, 10, 0))

	got := engine.GetAvailableSlots(date(2025, time.December, 25, 0, 0))
	require.NotNil(t, got.SpecialDate)
	assert.Equal(t, "Navidad", got.SpecialDate.Name)
	assert.Equal(t, []string{"morning", "midday", "afternoon", "evening"}, slotIDs(t, engine, date(2025, time.December, 25, 0, 0)))
}

func TestGetAvailableSlots_ExtendedHoursDoNotOpenSunday(t *testing.T) {
	// 2027-02-14 is a Sunday.
	engine := newTestEngine(date(2027, time.February, 1, 10, 0))

	got := engine.GetAvailableSlots(date(2027, time.February, 14, 0, 0))
	assert.False(t, got.Available)
	assert.Empty(t, got.Slots)
	require.NotNil(t, got.SpecialDate)
	assert.Equal(t, "San Valentín", got.SpecialDate.Name)
}

func TestGetAvailableSlots_ShopTimeZone(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	// 02:00 UTC on Monday is still Sunday evening in Santiago.
	now := time.Date(2025, time.March, 10, 2, 0, 0, 0, time.UTC)
	engine := NewEngine(DefaultCatalog(), WithClock(fixedClock(now)), WithLocation(santiago))

	got := engine.GetAvailableSlots(time.Time{})
	assert.Equal(t, "Domingo", got.DayName)
	assert.False(t, got.Available)
}
