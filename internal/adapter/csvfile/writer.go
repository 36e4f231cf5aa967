package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
)

// TimestampLayout is how data_hora_gmt is written back out.
const TimestampLayout = "2006-01-02 15:04:05"

// Write emits records as CSV with the header in source column order.
func Write(w io.Writer, recs []domain.HotspotRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.SourceColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("write record %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row formats a record as CSV cells in source column order.
func Row(r domain.HotspotRecord) []string {
	ts := ""
	if !r.ObservedAt.IsZero() {
		ts = r.ObservedAt.UTC().Format(TimestampLayout)
	}
	return []string{
		r.ID,
		formatFloat(r.Lat),
		formatFloat(r.Lon),
		ts,
		r.Satellite,
		r.Municipality,
		r.State,
		r.Country,
		formatPtr(r.MunicipalityID),
		formatPtr(r.StateID),
		formatPtr(r.CountryID),
		formatPtr(r.DaysWithoutRain),
		formatPtr(r.Precipitation),
		formatPtr(r.FireRisk),
		r.Biome,
		formatPtr(r.FRP),
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
