package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryFee is the result of a fee computation for one commune, order
// total, delivery type and date.
type DeliveryFee struct {
	Commune               string            `json:"commune"`
	ZoneID                string            `json:"zone_id"`
	ZoneName              string            `json:"zone_name"`
	DeliveryType          DeliveryTypeCode  `json:"delivery_type"`
	DeliveryTime          DeliveryTimeRange `json:"delivery_time"`
	DeliveryDate          time.Time         `json:"delivery_date"`
	BaseFee               int64             `json:"base_fee"`
	Fee                   int64             `json:"fee"`
	IsFreeDelivery        bool              `json:"is_free_delivery"`
	FreeDeliveryThreshold int64             `json:"free_delivery_threshold"`
	AmountForFreeDelivery int64             `json:"amount_for_free_delivery"`
	Surcharge             int64             `json:"surcharge"`
	Discount              int64             `json:"discount"`
	SpecialDate           string            `json:"special_date,omitempty"`
}

type FeeQuery struct {
	Commune      string
	OrderTotal   int64
	DeliveryType DeliveryTypeCode
	DeliveryDate time.Time
}

type QuoteRequest struct {
	OrderID      string
	Commune      string
	OrderTotal   int64
	DeliveryType DeliveryTypeCode
	DeliveryDate time.Time
	SlotID       string
}

// DeliveryQuote freezes a fee computation at checkout so the order service
// can charge it later.
type DeliveryQuote struct {
	ID                    primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID               string             `json:"order_id,omitempty" bson:"order_id,omitempty"`
	Commune               string             `json:"commune" bson:"commune"`
	ZoneID                string             `json:"zone_id" bson:"zone_id"`
	ZoneName              string             `json:"zone_name" bson:"zone_name"`
	OrderTotal            int64              `json:"order_total" bson:"order_total"`
	DeliveryType          DeliveryTypeCode   `json:"delivery_type" bson:"delivery_type"`
	DeliveryDate          time.Time          `json:"delivery_date" bson:"delivery_date"`
	SlotID                string             `json:"slot_id,omitempty" bson:"slot_id,omitempty"`
	SlotName              string             `json:"slot_name,omitempty" bson:"slot_name,omitempty"`
	SlotStart             string             `json:"slot_start,omitempty" bson:"slot_start,omitempty"`
	SlotEnd               string             `json:"slot_end,omitempty" bson:"slot_end,omitempty"`
	BaseFee               int64              `json:"base_fee" bson:"base_fee"`
	Fee                   int64              `json:"fee" bson:"fee"`
	Surcharge             int64              `json:"surcharge" bson:"surcharge"`
	Discount              int64              `json:"discount" bson:"discount"`
	IsFreeDelivery        bool               `json:"is_free_delivery" bson:"is_free_delivery"`
	AmountForFreeDelivery int64              `json:"amount_for_free_delivery" bson:"amount_for_free_delivery"`
	SpecialDate           string             `json:"special_date,omitempty" bson:"special_date,omitempty"`
	Currency              string             `json:"currency" bson:"currency"`
	Expired               bool               `json:"expired" bson:"-"`
	ExpiresAt             time.Time          `json:"expires_at" bson:"expires_at"`
	CreatedAt             time.Time          `json:"created_at" bson:"created_at"`
}
