package features

import (
	"fmt"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// TrainingBaseColumns lead the training table, ahead of the indicator columns.
var TrainingBaseColumns = []string{
	domain.ColLat,
	domain.ColLon,
	domain.ColFireRisk,
	domain.ColDate,
	domain.ColYear,
	domain.ColDayOfYear,
	domain.ColCosDayOfYear,
	domain.ColDaysWithoutRainDayBefore,
	domain.ColPrecipitationDayBefore,
}

// DropIdentifiers removes the raw timestamp and the country columns, which
// carry no signal once the temporal features exist.
func DropIdentifiers(t *table.Table) (*table.Table, error) {
	return t.Drop(domain.ColTimestamp, domain.ColCountry, domain.ColCountryID), nil
}

// KeepPositiveRisk keeps rows whose risco_fogo is present and strictly
// positive. Sensor sentinels such as -999 and exact zeros are discarded.
func KeepPositiveRisk(t *table.Table) (*table.Table, error) {
	risk, err := t.Require(domain.ColFireRisk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInputFormat, err)
	}
	if risk.Kind() != table.Float {
		return nil, fmt.Errorf("%w: %s is %s, want float", domain.ErrInputFormat, domain.ColFireRisk, risk.Kind())
	}
	return t.Filter(func(i int) bool {
		v, ok := risk.Float(i)
		return ok && v > 0
	}), nil
}

// SelectTrainingColumns restricts the table to TrainingBaseColumns followed
// by the indicator columns in their current order.
func SelectTrainingColumns(t *table.Table) (*table.Table, error) {
	names := append([]string(nil), TrainingBaseColumns...)
	for _, c := range t.Columns() {
		if IsDummy(c) {
			names = append(names, c.Name())
		}
	}
	out, err := t.Select(names...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInputFormat, err)
	}
	return out, nil
}

// KeepSince returns a stage that keeps rows dated on or after cutoff and then
// drops the date column.
func KeepSince(cutoff time.Time) func(*table.Table) (*table.Table, error) {
	cutoff = domain.Day(cutoff)
	return func(t *table.Table) (*table.Table, error) {
		date, err := t.Require(domain.ColDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInputFormat, err)
		}
		kept := t.Filter(func(i int) bool {
			d, ok := date.Time(i)
			return ok && !d.Before(cutoff)
		})
		return kept.Drop(domain.ColDate), nil
	}
}
