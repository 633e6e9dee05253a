package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"floreria/internal/delivery"
	"floreria/internal/services"
	"floreria/internal/utils"
	"floreria/internal/validators"
	"floreria/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryHandler struct {
	deliveryService services.DeliveryService
	location        *time.Location
	logger          *logger.Logger
}

// NewDeliveryHandler reads calendar dates from requests in loc, the shop
// time zone.
func NewDeliveryHandler(deliveryService services.DeliveryService, loc *time.Location, logger *logger.Logger) *DeliveryHandler {
	if loc == nil {
		loc = utils.LoadLocation(utils.DefaultTimeZone)
	}
	return &DeliveryHandler{
		deliveryService: deliveryService,
		location:        loc,
		logger:          logger,
	}
}

// CalculateFee prices a delivery for a commune, order total, type and date
func (h *DeliveryHandler) CalculateFee(c *gin.Context) {
	var request validators.FeeQueryRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateFeeQuery(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	query, err := request.ToFeeQuery(h.location)
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"delivery_date": err.Error()})
		return
	}

	fee, err := h.deliveryService.CalculateFee(c.Request.Context(), query)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Delivery fee calculated successfully", fee)
}

// GetAvailableSlots lists the slots of a date, today by default
func (h *DeliveryHandler) GetAvailableSlots(c *gin.Context) {
	var request validators.SlotsQueryRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateSlotsQuery(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	date, err := validators.ParseOptionalDate(request.Date, h.location)
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"date": err.Error()})
		return
	}

	slots := h.deliveryService.GetAvailableSlots(c.Request.Context(), date)
	utils.SuccessResponse(c, "Delivery slots retrieved successfully", slots)
}

// ListCommunes lists every commune currently served
func (h *DeliveryHandler) ListCommunes(c *gin.Context) {
	communes := h.deliveryService.ListAvailableCommunes(c.Request.Context())

	utils.SuccessResponseWithMeta(c, "Communes retrieved successfully", communes, &utils.Meta{
		Count: len(communes),
	})
}

// GetCommune reports the zone serving a commune
func (h *DeliveryHandler) GetCommune(c *gin.Context) {
	name := c.Param("name")

	zone, err := h.deliveryService.GetZoneByCommune(c.Request.Context(), name)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Commune retrieved successfully", gin.H{
		"commune":   name,
		"available": h.deliveryService.IsCommuneAvailable(c.Request.Context(), name),
		"zone":      zone,
	})
}

// ListDeliveryTypes lists delivery types, with eligibility when an order
// total is given
func (h *DeliveryHandler) ListDeliveryTypes(c *gin.Context) {
	types := h.deliveryService.ListDeliveryTypes(c.Request.Context())

	if _, ok := c.GetQuery("order_total"); !ok {
		utils.SuccessResponse(c, "Delivery types retrieved successfully", gin.H{"types": types})
		return
	}

	var request validators.DeliveryTypesQueryRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateDeliveryTypesQuery(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}
	date, err := validators.ParseOptionalDate(request.DeliveryDate, h.location)
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"delivery_date": err.Error()})
		return
	}

	eligibility := h.deliveryService.CheckDeliveryTypes(c.Request.Context(), request.OrderTotal, date)
	utils.SuccessResponse(c, "Delivery types retrieved successfully", gin.H{
		"types":       types,
		"eligibility": eligibility,
	})
}

// ResolveCommune maps a free-text address to a served commune
func (h *DeliveryHandler) ResolveCommune(c *gin.Context) {
	var request validators.ResolveCommuneRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateResolveCommune(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	resolution, err := h.deliveryService.ResolveCommune(c.Request.Context(), request.Address)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Address resolved successfully", resolution)
}

// CreateQuote freezes a delivery fee for checkout
func (h *DeliveryHandler) CreateQuote(c *gin.Context) {
	var request validators.CreateQuoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCreateQuote(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	quoteRequest, err := request.ToQuoteRequest(h.location)
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"delivery_date": err.Error()})
		return
	}

	quote, err := h.deliveryService.CreateQuote(c.Request.Context(), quoteRequest)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Delivery quote created successfully", quote)
}

// GetQuote retrieves a delivery quote
func (h *DeliveryHandler) GetQuote(c *gin.Context) {
	quoteID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid quote ID")
		return
	}

	quote, err := h.deliveryService.GetQuote(c.Request.Context(), quoteID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Delivery quote retrieved successfully", quote)
}

// GetZonesSummary is the admin view of zones
func (h *DeliveryHandler) GetZonesSummary(c *gin.Context) {
	zones := h.deliveryService.GetZonesSummary(c.Request.Context())

	utils.SuccessResponseWithMeta(c, "Delivery zones retrieved successfully", zones, &utils.Meta{
		Count: len(zones),
	})
}

// ListQuotes is the admin log of quotes
func (h *DeliveryHandler) ListQuotes(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	commune := strings.TrimSpace(c.Query("commune"))
	quotes, total, err := h.deliveryService.ListQuotes(c.Request.Context(), commune, params)
	if err != nil {
		h.handleError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}

	response := map[string]interface{}{
		"quotes": quotes,
	}

	utils.SuccessResponseWithMeta(c, "Delivery quotes retrieved successfully", response, meta)
}

func (h *DeliveryHandler) handleError(c *gin.Context, err error) {
	var rejection *services.RejectionError
	reason := err.Error()
	if errors.As(err, &rejection) {
		reason = rejection.Reason
	}

	switch {
	case errors.Is(err, delivery.ErrCommuneUnavailable):
		utils.ErrorResponse(c, http.StatusNotFound, "COMMUNE_UNAVAILABLE", err.Error())
	case errors.Is(err, delivery.ErrZoneNotConfigured):
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Delivery catalog is inconsistent")
		utils.ErrorResponse(c, http.StatusInternalServerError, "ZONE_NOT_CONFIGURED", err.Error())
	case errors.Is(err, services.ErrDeliveryTypeNotEligible):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "DELIVERY_TYPE_NOT_ELIGIBLE", reason)
	case errors.Is(err, services.ErrSlotUnavailable):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "SLOT_UNAVAILABLE", reason)
	case errors.Is(err, services.ErrUnknownSlot):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "UNKNOWN_SLOT", err.Error())
	case errors.Is(err, services.ErrQuoteNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "QUOTE_NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrCommuneNotResolved):
		utils.ErrorResponse(c, http.StatusNotFound, "COMMUNE_NOT_RESOLVED", err.Error())
	case errors.Is(err, services.ErrGeocoderDisabled):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "GEOCODER_DISABLED", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out")
	default:
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Delivery request failed")
		utils.InternalServerErrorResponse(c)
	}
}
