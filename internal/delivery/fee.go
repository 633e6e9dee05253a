package delivery

import (
	"fmt"
	"math"
	"time"

	"floreria/internal/models"
	"floreria/internal/utils"
)

// CalculateDeliveryFee prices a delivery to communeName. An empty or unknown
// delivery type is priced as standard and a zero deliveryDate means now.
//
// The special-date surcharge is added before the free-delivery check, so an
// order above the zone threshold ships free even on a special date. The
// scheduled discount applies only when the delivery moment is at least 24
// hours away.
func (e *Engine) CalculateDeliveryFee(communeName string, orderTotal int64, deliveryType models.DeliveryTypeCode, deliveryDate time.Time) (*models.DeliveryFee, error) {
	c := e.Catalog()
	_, zone, err := lookup(c, communeName)
	if err != nil {
		return nil, err
	}

	now := e.Now()
	if deliveryDate.IsZero() {
		deliveryDate = now
	}
	deliveryDate = deliveryDate.In(e.location)
	if orderTotal < 0 {
		orderTotal = 0
	}

	dt := effectiveType(c, deliveryType)

	fee := float64(zone.BaseFee) * dt.Multiplier

	result := &models.DeliveryFee{
		Commune:               communeName,
		ZoneID:                zone.ID,
		ZoneName:              zone.Name,
		DeliveryType:          dt.Code,
		DeliveryTime:          zone.DeliveryTime,
		DeliveryDate:          deliveryDate,
		BaseFee:               zone.BaseFee,
		FreeDeliveryThreshold: zone.FreeDeliveryThreshold,
	}

	if special, ok := c.SpecialDate(models.DayOf(deliveryDate)); ok {
		fee += float64(special.Surcharge)
		result.Surcharge = special.Surcharge
		result.SpecialDate = special.Name
	}

	if orderTotal >= zone.FreeDeliveryThreshold {
		fee = 0
		result.IsFreeDelivery = true
		result.Surcharge = 0
	} else {
		result.AmountForFreeDelivery = zone.FreeDeliveryThreshold - orderTotal
	}

	if dt.Code == models.DeliveryTypeScheduled && dt.AdvanceDiscount > 0 && fee > 0 && deliveryDate.Sub(now) >= utils.AdvanceBookingWindow {
		discount := math.Round(fee * dt.AdvanceDiscount)
		fee -= discount
		result.Discount = int64(discount)
	}

	result.Fee = int64(math.Max(0, math.Round(fee)))
	return result, nil
}

func effectiveType(c *Catalog, code models.DeliveryTypeCode) models.DeliveryType {
	if dt, ok := c.DeliveryType(code); ok {
		return dt
	}
	dt, _ := c.DeliveryType(models.DeliveryTypeStandard)
	if dt.Multiplier <= 0 {
		dt = models.DeliveryType{Code: models.DeliveryTypeStandard, Multiplier: 1}
	}
	return dt
}

// CheckDeliveryType reports whether an order of orderTotal can use the
// delivery type for a delivery at the given moment (zero means now).
func (e *Engine) CheckDeliveryType(code models.DeliveryTypeCode, orderTotal int64, at time.Time) models.DeliveryTypeEligibility {
	result := models.DeliveryTypeEligibility{Type: code}
	c := e.Catalog()

	dt, ok := c.DeliveryType(code)
	if !ok {
		result.Reason = "Tipo de envío no disponible"
		return result
	}

	now := e.Now()
	if at.IsZero() {
		at = now
	}
	at = at.In(e.location)

	if dt.MinOrderValue > 0 && orderTotal < dt.MinOrderValue {
		result.Reason = fmt.Sprintf("%s requiere un pedido mínimo de %s",
			dt.Name, utils.FormatCurrency(dt.MinOrderValue, c.Currency()))
		return result
	}

	if code == models.DeliveryTypeSameDay && !utils.SameDay(at, now) {
		result.Reason = fmt.Sprintf("%s solo está disponible para hoy", dt.Name)
		return result
	}

	if dt.Cutoff != nil && !now.Before(dt.Cutoff.On(now)) {
		result.Reason = fmt.Sprintf("%s solo está disponible para pedidos antes de las %s", dt.Name, dt.Cutoff)
		return result
	}

	result.Eligible = true
	return result
}
