package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"floreria/internal/config"
	"floreria/internal/delivery"
	"floreria/internal/models"
	"floreria/internal/repositories/interfaces"
	"floreria/internal/utils"
	"floreria/pkg/cache"
	"floreria/pkg/logger"
	"floreria/pkg/maps"
	"floreria/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrDeliveryTypeNotEligible = errors.New("delivery type not eligible for this order")
	ErrSlotUnavailable         = errors.New("delivery slot unavailable")
	ErrUnknownSlot             = errors.New("unknown delivery slot")
	ErrQuoteNotFound           = errors.New("delivery quote not found")
	ErrCommuneNotResolved      = errors.New("could not resolve a delivery commune for this address")
	ErrGeocoderDisabled        = errors.New("address resolution is not configured")
)

// RejectionError carries the customer-facing reason behind a sentinel
// error such as ErrSlotUnavailable.
type RejectionError struct {
	Err    error
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

type DeliveryService interface {
	// Pricing
	CalculateFee(ctx context.Context, query *models.FeeQuery) (*models.DeliveryFee, error)
	CheckDeliveryTypes(ctx context.Context, orderTotal int64, date time.Time) []models.DeliveryTypeEligibility

	// Schedule
	GetAvailableSlots(ctx context.Context, date time.Time) *models.SlotAvailability

	// Registry
	GetZoneByCommune(ctx context.Context, commune string) (*models.Zone, error)
	IsCommuneAvailable(ctx context.Context, commune string) bool
	ListAvailableCommunes(ctx context.Context) []models.CommuneListing
	GetZonesSummary(ctx context.Context) []models.ZoneSummary
	ListDeliveryTypes(ctx context.Context) []models.DeliveryType
	ResolveCommune(ctx context.Context, address string) (*models.CommuneResolution, error)

	// Quotes
	CreateQuote(ctx context.Context, request *models.QuoteRequest) (*models.DeliveryQuote, error)
	GetQuote(ctx context.Context, quoteID primitive.ObjectID) (*models.DeliveryQuote, error)
	ListQuotes(ctx context.Context, commune string, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error)
}

type deliveryService struct {
	engine    *delivery.Engine
	quoteRepo interfaces.DeliveryQuoteRepository
	cache     CacheService
	geocoder  maps.Geocoder
	config    *config.DeliveryConfig
	logger    *logger.Logger
}

// NewDeliveryService wires the pricing engine to persistence. cache and
// geocoder may be nil: quotes are then read from MongoDB only and address
// resolution reports ErrGeocoderDisabled.
func NewDeliveryService(
	engine *delivery.Engine,
	quoteRepo interfaces.DeliveryQuoteRepository,
	cache CacheService,
	geocoder maps.Geocoder,
	cfg *config.DeliveryConfig,
	logger *logger.Logger,
) DeliveryService {
	if cfg == nil {
		cfg = &config.DeliveryConfig{}
	}
	return &deliveryService{
		engine:    engine,
		quoteRepo: quoteRepo,
		cache:     cache,
		geocoder:  geocoder,
		config:    cfg,
		logger:    logger,
	}
}

func (s *deliveryService) CalculateFee(ctx context.Context, query *models.FeeQuery) (*models.DeliveryFee, error) {
	fee, err := s.engine.CalculateDeliveryFee(query.Commune, query.OrderTotal, query.DeliveryType, query.DeliveryDate)
	if err != nil {
		s.logger.WithContext(ctx).
			WithField("commune", query.Commune).
			WithError(err).
			Debug("Delivery fee not available")
		return nil, err
	}
	metrics.RecordFeeCalculation(fee.ZoneID, fee.IsFreeDelivery)
	return fee, nil
}

func (s *deliveryService) CheckDeliveryTypes(ctx context.Context, orderTotal int64, date time.Time) []models.DeliveryTypeEligibility {
	types := s.engine.DeliveryTypes()
	result := make([]models.DeliveryTypeEligibility, 0, len(types))
	for _, dt := range types {
		result = append(result, s.engine.CheckDeliveryType(dt.Code, orderTotal, date))
	}
	return result
}

func (s *deliveryService) GetAvailableSlots(ctx context.Context, date time.Time) *models.SlotAvailability {
	return s.engine.GetAvailableSlots(date)
}

func (s *deliveryService) GetZoneByCommune(ctx context.Context, commune string) (*models.Zone, error) {
	return s.engine.GetZoneByCommune(commune)
}

func (s *deliveryService) IsCommuneAvailable(ctx context.Context, commune string) bool {
	return s.engine.IsCommuneAvailable(commune)
}

func (s *deliveryService) ListAvailableCommunes(ctx context.Context) []models.CommuneListing {
	return s.engine.ListAvailableCommunes()
}

func (s *deliveryService) GetZonesSummary(ctx context.Context) []models.ZoneSummary {
	return s.engine.GetZonesSummary()
}

func (s *deliveryService) ListDeliveryTypes(ctx context.Context) []models.DeliveryType {
	return s.engine.DeliveryTypes()
}

func (s *deliveryService) CreateQuote(ctx context.Context, request *models.QuoteRequest) (*models.DeliveryQuote, error) {
	log := s.logger.WithContext(ctx).WithField("commune", request.Commune)

	if _, err := s.engine.GetZoneByCommune(request.Commune); err != nil {
		return nil, err
	}

	code := request.DeliveryType
	if code == "" {
		code = models.DeliveryTypeStandard
	}

	now := s.engine.Now()
	day := request.DeliveryDate
	if day.IsZero() {
		day = now
	}
	day = day.In(s.engine.Location())

	availability := s.engine.GetAvailableSlots(day)
	if !availability.Available {
		s.logRejection(log, "day_unavailable", availability.Reason)
		return nil, &RejectionError{Err: ErrSlotUnavailable, Reason: availability.Reason}
	}

	at := utils.StartOfDay(day)
	if at.Before(now) {
		at = now
	}

	var slot *models.SlotStatus
	if request.SlotID != "" {
		if _, ok := s.engine.Catalog().Slot(request.SlotID); !ok {
			metrics.RecordQuoteRejected("unknown_slot")
			return nil, ErrUnknownSlot
		}
		status, ok := availability.Slot(request.SlotID)
		if !ok {
			reason := fmt.Sprintf("El horario %s no se ofrece el %s", request.SlotID, availability.DayName)
			s.logRejection(log, "slot_not_offered", reason)
			return nil, &RejectionError{Err: ErrSlotUnavailable, Reason: reason}
		}
		if !status.Available {
			s.logRejection(log, "slot_unavailable", status.Reason)
			return nil, &RejectionError{Err: ErrSlotUnavailable, Reason: status.Reason}
		}
		slot = &status
		at = status.StartsAt
	}

	eligibility := s.engine.CheckDeliveryType(code, request.OrderTotal, at)
	if !eligibility.Eligible {
		s.logRejection(log, "type_not_eligible", eligibility.Reason)
		return nil, &RejectionError{Err: ErrDeliveryTypeNotEligible, Reason: eligibility.Reason}
	}

	fee, err := s.engine.CalculateDeliveryFee(request.Commune, request.OrderTotal, code, at)
	if err != nil {
		return nil, err
	}

	quote := &models.DeliveryQuote{
		ID:                    primitive.NewObjectID(),
		OrderID:               request.OrderID,
		Commune:               fee.Commune,
		ZoneID:                fee.ZoneID,
		ZoneName:              fee.ZoneName,
		OrderTotal:            request.OrderTotal,
		DeliveryType:          fee.DeliveryType,
		DeliveryDate:          at,
		BaseFee:               fee.BaseFee,
		Fee:                   fee.Fee,
		Surcharge:             fee.Surcharge,
		Discount:              fee.Discount,
		IsFreeDelivery:        fee.IsFreeDelivery,
		AmountForFreeDelivery: fee.AmountForFreeDelivery,
		SpecialDate:           fee.SpecialDate,
		Currency:              s.engine.Catalog().Currency(),
		CreatedAt:             now,
		ExpiresAt:             now.Add(s.quoteTTL()),
	}
	if slot != nil {
		quote.SlotID = slot.ID
		quote.SlotName = slot.Name
		quote.SlotStart = slot.Start.String()
		quote.SlotEnd = slot.End.String()
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to save delivery quote: %w", err)
	}

	log = log.WithQuoteID(quote.ID)
	if s.cache != nil {
		if err := s.cache.CacheQuote(ctx, quote, s.quoteTTL()); err != nil {
			log.WithError(err).Warn("Failed to cache delivery quote")
		}
	}

	metrics.RecordQuoteCreated(quote.ZoneID, string(quote.DeliveryType))
	s.logger.WithContext(ctx).LogQuoteEvent(quote.ID, utils.EventQuoteCreated, map[string]interface{}{
		"commune":       quote.Commune,
		"zone_id":       quote.ZoneID,
		"delivery_type": string(quote.DeliveryType),
		"fee":           quote.Fee,
	})

	return quote, nil
}

func (s *deliveryService) GetQuote(ctx context.Context, quoteID primitive.ObjectID) (*models.DeliveryQuote, error) {
	ctx = logger.ContextWithQuoteID(ctx, quoteID)

	if s.cache != nil {
		quote, err := s.cache.GetCachedQuote(ctx, quoteID)
		if err == nil {
			return s.markExpired(quote), nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithContext(ctx).WithError(err).Warn("Quote cache lookup failed")
		}
	}

	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get delivery quote: %w", err)
	}

	s.markExpired(quote)
	if s.cache != nil && !quote.Expired {
		remaining := quote.ExpiresAt.Sub(s.engine.Now())
		if err := s.cache.CacheQuote(ctx, quote, remaining); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to cache delivery quote")
		}
	}
	return quote, nil
}

// ListQuotes lists all quotes, or only those of commune when it is set.
func (s *deliveryService) ListQuotes(ctx context.Context, commune string, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error) {
	var (
		quotes []*models.DeliveryQuote
		total  int64
		err    error
	)
	if commune != "" {
		quotes, total, err = s.quoteRepo.ListByCommune(ctx, commune, params)
	} else {
		quotes, total, err = s.quoteRepo.List(ctx, params)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list delivery quotes: %w", err)
	}
	for _, q := range quotes {
		s.markExpired(q)
	}
	return quotes, total, nil
}

func (s *deliveryService) ResolveCommune(ctx context.Context, address string) (*models.CommuneResolution, error) {
	if s.geocoder == nil {
		return nil, ErrGeocoderDisabled
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrCommuneNotResolved
	}

	result, err := s.geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	resolution := &models.CommuneResolution{
		Address:          address,
		FormattedAddress: result.Address,
		Location: models.Coordinates{
			Latitude:  result.Coordinates.Latitude,
			Longitude: result.Coordinates.Longitude,
		},
	}

	if listing, ok := s.matchCommuneByName(result); ok {
		resolution.Commune = listing.Name
		resolution.ZoneID = listing.ZoneID
		resolution.ZoneName = listing.ZoneName
		resolution.Method = models.ResolutionByName
	} else if listing, ok := s.matchCommuneByReverse(ctx, result); ok {
		resolution.Commune = listing.Name
		resolution.ZoneID = listing.ZoneID
		resolution.ZoneName = listing.ZoneName
		resolution.Method = models.ResolutionByReverse
	} else {
		commune, distance, found := s.engine.NearestCommune(
			result.Coordinates.Latitude, result.Coordinates.Longitude, s.config.ResolveRadiusKM)
		if !found {
			metrics.RecordCommuneResolution("unresolved")
			return nil, ErrCommuneNotResolved
		}
		zone, err := s.engine.GetZoneByCommune(commune.Name)
		if err != nil {
			return nil, err
		}
		resolution.Commune = commune.Name
		resolution.ZoneID = zone.ID
		resolution.ZoneName = zone.Name
		resolution.Method = models.ResolutionByNearest
		resolution.DistanceKM = distance
	}

	metrics.RecordCommuneResolution(resolution.Method)
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"event":    utils.EventCommuneResolved,
		"commune":  resolution.Commune,
		"method":   resolution.Method,
		"provider": s.geocoder.Name(),
	}).Info("Address resolved to commune")

	return resolution, nil
}

func (s *deliveryService) geocode(ctx context.Context, address string) (*maps.GeocodeResult, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCachedGeocode(ctx, address)
		if err == nil {
			metrics.RecordGeocodeLookup(metrics.SourceCache)
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithContext(ctx).WithError(err).Warn("Geocode cache lookup failed")
		}
	}

	resp, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		metrics.RecordGeocodeLookup(metrics.SourceError)
		if errors.Is(err, maps.ErrNoResults) {
			return nil, ErrCommuneNotResolved
		}
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}
	best, err := resp.Best()
	if err != nil {
		return nil, ErrCommuneNotResolved
	}
	metrics.RecordGeocodeLookup(metrics.SourceProvider)

	if s.cache != nil {
		if err := s.cache.CacheGeocode(ctx, address, &best, s.config.GeocodeCacheTTL); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to cache geocode result")
		}
	}
	return &best, nil
}

// matchCommuneByName prefers the provider's locality, then scans the
// formatted address part by part. The street line is skipped when other
// parts exist since streets are often named after communes.
func (s *deliveryService) matchCommuneByName(result *maps.GeocodeResult) (models.CommuneListing, bool) {
	listings := s.engine.ListAvailableCommunes()

	if name, ok := s.engine.Catalog().CanonicalCommuneName(result.Locality); ok {
		for _, l := range listings {
			if l.Name == name {
				return l, true
			}
		}
	}

	parts := strings.Split(result.Address, ",")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for _, part := range parts {
		var best models.CommuneListing
		found := false
		for _, l := range listings {
			if utils.ContainsWord(part, l.Name) && len(l.Name) > len(best.Name) {
				best, found = l, true
			}
		}
		if found {
			return best, true
		}
	}
	return models.CommuneListing{}, false
}

// matchCommuneByReverse runs the name match over the reverse geocode of the
// result's coordinates.
func (s *deliveryService) matchCommuneByReverse(ctx context.Context, result *maps.GeocodeResult) (models.CommuneListing, bool) {
	resp, err := s.geocoder.ReverseGeocode(ctx, result.Coordinates.Latitude, result.Coordinates.Longitude)
	if err != nil {
		if !errors.Is(err, maps.ErrNoResults) {
			s.logger.WithContext(ctx).WithError(err).Warn("Reverse geocode failed")
		}
		return models.CommuneListing{}, false
	}
	for i := range resp.Results {
		if listing, ok := s.matchCommuneByName(&resp.Results[i]); ok {
			return listing, true
		}
	}
	return models.CommuneListing{}, false
}

func (s *deliveryService) markExpired(quote *models.DeliveryQuote) *models.DeliveryQuote {
	quote.Expired = !s.engine.Now().Before(quote.ExpiresAt)
	return quote
}

func (s *deliveryService) quoteTTL() time.Duration {
	if s.config.QuoteTTL > 0 {
		return s.config.QuoteTTL
	}
	return utils.DefaultQuoteTTL
}

func (s *deliveryService) logRejection(log *logger.Logger, cause, reason string) {
	metrics.RecordQuoteRejected(cause)
	log.WithFields(map[string]interface{}{
		"event":  utils.EventQuoteRejected,
		"reason": reason,
	}).Info("Delivery quote rejected")
}
