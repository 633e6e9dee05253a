package delivery

import (
	"fmt"
	"time"

	"floreria/internal/models"
	"floreria/internal/utils"
)

const (
	reasonPastDate    = "No es posible agendar entregas en fechas pasadas"
	reasonClosedDay   = "No hay entregas disponibles este día"
	reasonNoSlotsLeft = "No quedan horarios disponibles para esta fecha"
)

// GetAvailableSlots lists the delivery slots of a calendar day. A zero date
// means today. Slots starting earlier than now plus the minimum advance are
// returned as unavailable with the reason attached.
func (e *Engine) GetAvailableSlots(date time.Time) *models.SlotAvailability {
	c := e.Catalog()
	now := e.Now()
	if date.IsZero() {
		date = now
	}
	day := utils.StartOfDay(date.In(e.location))

	result := &models.SlotAvailability{
		Date:    utils.FormatDate(day),
		DayName: utils.DayName(day.Weekday()),
		Slots:   []models.SlotStatus{},
	}

	special, isSpecial := c.SpecialDate(models.DayOf(day))
	if isSpecial {
		result.SpecialDate = &models.SpecialDateInfo{
			Date:          special.Date.String(),
			Name:          special.Name,
			Surcharge:     special.Surcharge,
			ExtendedHours: special.ExtendedHours,
		}
	}

	if day.Before(utils.StartOfDay(now)) {
		result.Reason = reasonPastDate
		return result
	}

	schedule, ok := c.Day(day.Weekday())
	if !ok || !schedule.Open {
		result.Reason = reasonClosedDay
		if ok && schedule.ClosedReason != "" {
			result.Reason = schedule.ClosedReason
		}
		return result
	}

	earliest := now.Add(time.Duration(c.MinAdvanceHours()) * time.Hour)
	leadReason := fmt.Sprintf("Se requiere un mínimo de %d horas de anticipación", c.MinAdvanceHours())

	included := make(map[string]bool, len(schedule.Slots))
	appendSlot := func(id string, extended bool) {
		slot, ok := c.Slot(id)
		if !ok || included[id] {
			return
		}
		included[id] = true

		status := models.SlotStatus{
			ID:        slot.ID,
			Name:      slot.Name,
			Start:     slot.Start,
			End:       slot.End,
			StartsAt:  slot.Start.On(day),
			Available: true,
			Extended:  extended,
		}
		if status.StartsAt.Before(earliest) {
			status.Available = false
			status.Reason = leadReason
		}
		result.Slots = append(result.Slots, status)
	}

	for _, id := range schedule.Slots {
		appendSlot(id, false)
	}
	if isSpecial && special.ExtendedHours {
		for _, id := range c.ExtendedSlots() {
			appendSlot(id, true)
		}
	}

	for _, s := range result.Slots {
		if s.Available {
			result.Available = true
			break
		}
	}
	if !result.Available {
		result.Reason = reasonNoSlotsLeft
	}
	return result
}
