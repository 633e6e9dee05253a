package validators

import (
	"strings"
	"time"

	"floreria/internal/models"
	"floreria/internal/utils"
)

// FeeQueryRequest accepts any delivery type string; unknown types are
// priced as standard.
type FeeQueryRequest struct {
	Commune      string `form:"commune" validate:"required,commune_name"`
	OrderTotal   int64  `form:"order_total" validate:"min=0,max=100000000"`
	DeliveryType string `form:"delivery_type" validate:"omitempty,max=32"`
	DeliveryDate string `form:"delivery_date" validate:"omitempty,iso_date"`
}

type SlotsQueryRequest struct {
	Date string `form:"date" validate:"omitempty,iso_date"`
}

type DeliveryTypesQueryRequest struct {
	OrderTotal   int64  `form:"order_total" validate:"min=0,max=100000000"`
	DeliveryDate string `form:"delivery_date" validate:"omitempty,iso_date"`
}

type ResolveCommuneRequest struct {
	Address string `form:"address" validate:"required,min=3,max=255"`
}

type CreateQuoteRequest struct {
	OrderID      string `json:"order_id" validate:"omitempty,max=64"`
	Commune      string `json:"commune" validate:"required,commune_name"`
	OrderTotal   int64  `json:"order_total" validate:"min=0,max=100000000"`
	DeliveryType string `json:"delivery_type" validate:"omitempty,delivery_type"`
	DeliveryDate string `json:"delivery_date" validate:"omitempty,iso_date"`
	SlotID       string `json:"slot_id" validate:"omitempty,slot_id"`
}

func ValidateFeeQuery(req *FeeQueryRequest) ValidationErrors {
	req.Commune = strings.TrimSpace(req.Commune)
	req.DeliveryType = strings.TrimSpace(req.DeliveryType)
	return ValidateStruct(req)
}

func ValidateSlotsQuery(req *SlotsQueryRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateDeliveryTypesQuery(req *DeliveryTypesQueryRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateResolveCommune(req *ResolveCommuneRequest) ValidationErrors {
	req.Address = SanitizeInput(req.Address)
	return ValidateStruct(req)
}

func ValidateCreateQuote(req *CreateQuoteRequest) ValidationErrors {
	req.Commune = strings.TrimSpace(req.Commune)
	req.OrderID = strings.TrimSpace(req.OrderID)

	errors := ValidateStruct(req)

	if req.SlotID != "" && req.DeliveryDate == "" {
		errors = append(errors, ValidationError{
			Field:   "delivery_date",
			Tag:     "required_with",
			Message: "delivery_date is required when slot_id is set",
		})
	}

	return errors
}

// ToFeeQuery converts a validated request; dates are read in loc.
func (r *FeeQueryRequest) ToFeeQuery(loc *time.Location) (*models.FeeQuery, error) {
	date, err := ParseOptionalDate(r.DeliveryDate, loc)
	if err != nil {
		return nil, err
	}
	return &models.FeeQuery{
		Commune:      r.Commune,
		OrderTotal:   r.OrderTotal,
		DeliveryType: models.DeliveryTypeCode(r.DeliveryType),
		DeliveryDate: date,
	}, nil
}

func (r *CreateQuoteRequest) ToQuoteRequest(loc *time.Location) (*models.QuoteRequest, error) {
	date, err := ParseOptionalDate(r.DeliveryDate, loc)
	if err != nil {
		return nil, err
	}
	return &models.QuoteRequest{
		OrderID:      r.OrderID,
		Commune:      r.Commune,
		OrderTotal:   r.OrderTotal,
		DeliveryType: models.DeliveryTypeCode(r.DeliveryType),
		DeliveryDate: date,
		SlotID:       r.SlotID,
	}, nil
}

// ParseOptionalDate returns the zero time for an empty value.
func ParseOptionalDate(value string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	return utils.ParseDeliveryDate(value, loc)
}
