// Package features turns hotspot tables into model-ready feature tables.
// Every exported transform is a pure function over *table.Table so that the
// training and prediction pipelines can compose them as named stages.
package features

import (
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// FromRecords lays hotspot records out as a table in source column order.
// The risco_fogo column is included only when withLabel is true.
func FromRecords(recs []domain.HotspotRecord, withLabel bool) *table.Table {
	n := len(recs)
	var (
		id        = table.NewString(domain.ColID, n)
		lat       = table.NewFloat(domain.ColLat, n)
		lon       = table.NewFloat(domain.ColLon, n)
		ts        = table.NewTime(domain.ColTimestamp, n)
		satellite = table.NewString(domain.ColSatellite, n)
		city      = table.NewString(domain.ColMunicipality, n)
		state     = table.NewString(domain.ColState, n)
		country   = table.NewString(domain.ColCountry, n)
		cityID    = table.NewFloat(domain.ColMunicipalityID, n)
		stateID   = table.NewFloat(domain.ColStateID, n)
		countryID = table.NewFloat(domain.ColCountryID, n)
		dryDays   = table.NewFloat(domain.ColDaysWithoutRain, n)
		precip    = table.NewFloat(domain.ColPrecipitation, n)
		risk      = table.NewFloat(domain.ColFireRisk, n)
		biome     = table.NewString(domain.ColBiome, n)
		frp       = table.NewFloat(domain.ColFRP, n)
	)

	for i, r := range recs {
		setText(id, i, r.ID)
		lat.SetFloat(i, r.Lat)
		lon.SetFloat(i, r.Lon)
		if !r.ObservedAt.IsZero() {
			ts.SetTime(i, r.ObservedAt)
		}
		setText(satellite, i, r.Satellite)
		setText(city, i, r.Municipality)
		setText(state, i, r.State)
		setText(country, i, r.Country)
		cityID.SetFloatPtr(i, r.MunicipalityID)
		stateID.SetFloatPtr(i, r.StateID)
		countryID.SetFloatPtr(i, r.CountryID)
		dryDays.SetFloatPtr(i, r.DaysWithoutRain)
		precip.SetFloatPtr(i, r.Precipitation)
		risk.SetFloatPtr(i, r.FireRisk)
		setText(biome, i, r.Biome)
		frp.SetFloatPtr(i, r.FRP)
	}

	cols := []*table.Column{id, lat, lon, ts, satellite, city, state, country,
		cityID, stateID, countryID, dryDays, precip}
	if withLabel {
		cols = append(cols, risk)
	}
	cols = append(cols, biome, frp)
	return table.MustOf(cols...)
}

func setText(c *table.Column, i int, v string) {
	if v != "" {
		c.SetText(i, v)
	}
}
