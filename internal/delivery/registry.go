package delivery

import (
	"math"
	"sort"

	"floreria/internal/models"
	"floreria/internal/utils"
)

func lookup(c *Catalog, communeName string) (models.Commune, models.Zone, error) {
	commune, ok := c.Commune(communeName)
	if !ok || !commune.Active {
		return models.Commune{}, models.Zone{}, ErrCommuneUnavailable
	}

	zone, ok := c.Zone(commune.ZoneID)
	if !ok {
		return models.Commune{}, models.Zone{}, ErrZoneNotConfigured
	}
	return commune, zone, nil
}

// GetZoneByCommune returns the zone serving an active commune.
func (e *Engine) GetZoneByCommune(communeName string) (*models.Zone, error) {
	_, zone, err := lookup(e.Catalog(), communeName)
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (e *Engine) IsCommuneAvailable(communeName string) bool {
	_, _, err := lookup(e.Catalog(), communeName)
	return err == nil
}

// ListAvailableCommunes lists every active commune with its zone data,
// sorted by zone name and then commune name.
func (e *Engine) ListAvailableCommunes() []models.CommuneListing {
	c := e.Catalog()
	listings := make([]models.CommuneListing, 0)
	for _, commune := range c.Communes() {
		if !commune.Active {
			continue
		}
		zone, ok := c.Zone(commune.ZoneID)
		if !ok {
			continue
		}
		listings = append(listings, models.CommuneListing{
			Name:                  commune.Name,
			PostalCode:            commune.PostalCode,
			ZoneID:                zone.ID,
			ZoneName:              zone.Name,
			BaseFee:               zone.BaseFee,
			FreeDeliveryThreshold: zone.FreeDeliveryThreshold,
			DeliveryTime:          zone.DeliveryTime,
			Premium:               zone.Premium,
		})
	}

	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].ZoneName != listings[j].ZoneName {
			return listings[i].ZoneName < listings[j].ZoneName
		}
		return listings[i].Name < listings[j].Name
	})
	return listings
}

// GetZonesSummary returns one entry per zone in catalog order.
func (e *Engine) GetZonesSummary() []models.ZoneSummary {
	c := e.Catalog()
	zones := c.Zones()
	summaries := make([]models.ZoneSummary, 0, len(zones))
	for _, zone := range zones {
		active := 0
		for _, name := range zone.Communes {
			if commune, ok := c.Commune(name); ok && commune.Active && commune.ZoneID == zone.ID {
				active++
			}
		}
		summaries = append(summaries, models.ZoneSummary{
			ID:                    zone.ID,
			Name:                  zone.Name,
			CommuneCount:          len(zone.Communes),
			ActiveCommuneCount:    active,
			Communes:              zone.Communes,
			BaseFee:               zone.BaseFee,
			FreeDeliveryThreshold: zone.FreeDeliveryThreshold,
			DeliveryTime:          zone.DeliveryTime,
			Premium:               zone.Premium,
		})
	}
	return summaries
}

func (e *Engine) DeliveryTypes() []models.DeliveryType {
	return e.Catalog().DeliveryTypes()
}

// NearestCommune finds the active commune closest to a point. A maxKM of
// zero or less disables the radius check.
func (e *Engine) NearestCommune(lat, lng, maxKM float64) (models.Commune, float64, bool) {
	c := e.Catalog()
	var (
		best     models.Commune
		bestDist = math.Inf(1)
		found    bool
	)

	for _, commune := range c.Communes() {
		if !commune.Active {
			continue
		}
		if _, ok := c.Zone(commune.ZoneID); !ok {
			continue
		}
		dist := utils.CalculateDistance(lat, lng, commune.Coordinates.Latitude, commune.Coordinates.Longitude)
		if dist < bestDist {
			best, bestDist, found = commune, dist, true
		}
	}

	if !found || (maxKM > 0 && bestDist > maxKM) {
		return models.Commune{}, 0, false
	}
	return best, bestDist, true
}
