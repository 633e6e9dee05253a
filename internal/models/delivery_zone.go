package models

type TimeUnit string

const (
	TimeUnitHours TimeUnit = "horas"
	TimeUnitDays  TimeUnit = "días"
)

type DeliveryTimeRange struct {
	Min  int      `json:"min" bson:"min" yaml:"min"`
	Max  int      `json:"max" bson:"max" yaml:"max"`
	Unit TimeUnit `json:"unit" bson:"unit" yaml:"unit"`
}

// Zone groups communes sharing the same fee, delivery window and
// free-delivery threshold. Amounts are whole CLP pesos.
type Zone struct {
	ID                    string            `json:"id" bson:"id" yaml:"id"`
	Name                  string            `json:"name" bson:"name" yaml:"name"`
	DeliveryTime          DeliveryTimeRange `json:"delivery_time" bson:"delivery_time" yaml:"delivery_time"`
	BaseFee               int64             `json:"base_fee" bson:"base_fee" yaml:"base_fee"`
	FreeDeliveryThreshold int64             `json:"free_delivery_threshold" bson:"free_delivery_threshold" yaml:"free_delivery_threshold"`
	Communes              []string          `json:"communes" bson:"communes" yaml:"communes"`
	Premium               bool              `json:"premium,omitempty" bson:"premium,omitempty" yaml:"premium"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude" yaml:"lat"`
	Longitude float64 `json:"longitude" bson:"longitude" yaml:"lng"`
}

type Commune struct {
	Name        string      `json:"name" bson:"name" yaml:"name"`
	ZoneID      string      `json:"zone_id" bson:"zone_id" yaml:"zone_id"`
	PostalCode  string      `json:"postal_code" bson:"postal_code" yaml:"postal_code"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates" yaml:"coordinates"`
	Active      bool        `json:"active" bson:"active" yaml:"active"`
}

// CommuneListing is an active commune joined with its zone's display data.
type CommuneListing struct {
	Name                  string            `json:"name"`
	PostalCode            string            `json:"postal_code"`
	ZoneID                string            `json:"zone_id"`
	ZoneName              string            `json:"zone_name"`
	BaseFee               int64             `json:"base_fee"`
	FreeDeliveryThreshold int64             `json:"free_delivery_threshold"`
	DeliveryTime          DeliveryTimeRange `json:"delivery_time"`
	Premium               bool              `json:"premium,omitempty"`
}

type ZoneSummary struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	CommuneCount          int               `json:"commune_count"`
	ActiveCommuneCount    int               `json:"active_commune_count"`
	Communes              []string          `json:"communes"`
	BaseFee               int64             `json:"base_fee"`
	FreeDeliveryThreshold int64             `json:"free_delivery_threshold"`
	DeliveryTime          DeliveryTimeRange `json:"delivery_time"`
	Premium               bool              `json:"premium"`
}

// CommuneResolution is the outcome of mapping a free-text address to a
// commune of the registry.
type CommuneResolution struct {
	Address          string      `json:"address"`
	FormattedAddress string      `json:"formatted_address"`
	Commune          string      `json:"commune"`
	ZoneID           string      `json:"zone_id"`
	ZoneName         string      `json:"zone_name"`
	Method           string      `json:"method"`
	DistanceKM       float64     `json:"distance_km,omitempty"`
	Location         Coordinates `json:"location"`
}

const (
	ResolutionByName    = "name_match"
	ResolutionByReverse = "reverse_geocode"
	ResolutionByNearest = "nearest_commune"
)
