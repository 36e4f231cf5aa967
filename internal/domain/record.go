package domain

import "time"

// Source CSV column names.
const (
	ColID              = "id"
	ColLat             = "lat"
	ColLon             = "lon"
	ColTimestamp       = "data_hora_gmt"
	ColSatellite       = "satelite"
	ColMunicipality    = "municipio"
	ColState           = "estado"
	ColCountry         = "pais"
	ColMunicipalityID  = "municipio_id"
	ColStateID         = "estado_id"
	ColCountryID       = "pais_id"
	ColDaysWithoutRain = "numero_dias_sem_chuva"
	ColPrecipitation   = "precipitacao"
	ColFireRisk        = "risco_fogo"
	ColBiome           = "bioma"
	ColFRP             = "frp"
)

// Engineered feature column names.
const (
	ColDate                     = "date"
	ColDayOfYear                = "day_of_year"
	ColMonth                    = "month"
	ColWeekday                  = "weekday"
	ColYear                     = "year"
	ColCosDayOfYear             = "cos_day_of_year"
	ColDaysWithoutRainDayBefore = "numero_dias_sem_chuva_day_before"
	ColPrecipitationDayBefore   = "precipitacao_day_before"
)

// SourceColumns is the daily CSV column set, in the fixed output order used
// when predictions are written back out.
var SourceColumns = []string{
	ColID, ColLat, ColLon, ColTimestamp, ColSatellite, ColMunicipality,
	ColState, ColCountry, ColMunicipalityID, ColStateID, ColCountryID,
	ColDaysWithoutRain, ColPrecipitation, ColFireRisk, ColBiome, ColFRP,
}

// HotspotRecord is one detected fire hotspot as read from a daily CSV.
// Nullable numeric columns are pointers; FireRisk is nil when the file has no
// risco_fogo column or the cell is empty. Field order matches SourceColumns.
type HotspotRecord struct {
	ID              string    `json:"id"`
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	ObservedAt      time.Time `json:"data_hora_gmt"`
	Satellite       string    `json:"satelite"`
	Municipality    string    `json:"municipio"`
	State           string    `json:"estado"`
	Country         string    `json:"pais"`
	MunicipalityID  *float64  `json:"municipio_id"`
	StateID         *float64  `json:"estado_id"`
	CountryID       *float64  `json:"pais_id"`
	DaysWithoutRain *float64  `json:"numero_dias_sem_chuva"`
	Precipitation   *float64  `json:"precipitacao"`
	FireRisk        *float64  `json:"risco_fogo"`
	Biome           string    `json:"bioma"`
	FRP             *float64  `json:"frp"`
}

// HasPositiveRisk reports whether the record is eligible for training.
func (r HotspotRecord) HasPositiveRisk() bool {
	return r.FireRisk != nil && *r.FireRisk > 0
}

// Float returns a pointer to v, for building nullable fields.
func Float(v float64) *float64 {
	return &v
}
