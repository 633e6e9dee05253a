package models

type DeliveryTypeCode string

const (
	DeliveryTypeStandard  DeliveryTypeCode = "standard"
	DeliveryTypeExpress   DeliveryTypeCode = "express"
	DeliveryTypeSameDay   DeliveryTypeCode = "same_day"
	DeliveryTypeScheduled DeliveryTypeCode = "scheduled"
)

var DeliveryTypeCodes = []DeliveryTypeCode{
	DeliveryTypeStandard,
	DeliveryTypeExpress,
	DeliveryTypeSameDay,
	DeliveryTypeScheduled,
}

func (c DeliveryTypeCode) Valid() bool {
	for _, code := range DeliveryTypeCodes {
		if c == code {
			return true
		}
	}
	return false
}

type DeliveryType struct {
	Code            DeliveryTypeCode `json:"code" yaml:"code"`
	Name            string           `json:"name" yaml:"name"`
	Description     string           `json:"description" yaml:"description"`
	Multiplier      float64          `json:"multiplier" yaml:"multiplier"`
	MinOrderValue   int64            `json:"min_order_value,omitempty" yaml:"min_order_value"`
	Cutoff          *ClockTime       `json:"cutoff,omitempty" yaml:"cutoff"`
	AdvanceDiscount float64          `json:"advance_discount,omitempty" yaml:"advance_discount"`
}

type DeliveryTypeEligibility struct {
	Type     DeliveryTypeCode `json:"type"`
	Eligible bool             `json:"eligible"`
	Reason   string           `json:"reason,omitempty"`
}
