package features

import (
	"fmt"
	"math"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// CosDayOfYear projects a day of year onto the unit circle. Day 1 and day 365
// map to nearly the same value, which a raw day index cannot express.
func CosDayOfYear(dayOfYear int) float64 {
	return math.Cos(2 * math.Pi * float64(dayOfYear) / 365)
}

// EncodeTemporal derives date, day_of_year, month, weekday (Monday=0), year
// and cos_day_of_year from data_hora_gmt. A null timestamp is an input error.
func EncodeTemporal(t *table.Table) (*table.Table, error) {
	ts, err := t.Require(domain.ColTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInputFormat, err)
	}
	if ts.Kind() != table.Time {
		return nil, fmt.Errorf("%w: %s is %s, want time", domain.ErrInputFormat, domain.ColTimestamp, ts.Kind())
	}

	n := t.Len()
	date := table.NewTime(domain.ColDate, n)
	doy := table.NewFloat(domain.ColDayOfYear, n)
	month := table.NewFloat(domain.ColMonth, n)
	weekday := table.NewFloat(domain.ColWeekday, n)
	year := table.NewFloat(domain.ColYear, n)
	cos := table.NewFloat(domain.ColCosDayOfYear, n)

	for i := 0; i < n; i++ {
		v, ok := ts.Time(i)
		if !ok {
			return nil, fmt.Errorf("%w: row %d has no %s", domain.ErrInputFormat, i, domain.ColTimestamp)
		}
		d := domain.Day(v)
		date.SetTime(i, d)
		doy.SetFloat(i, float64(d.YearDay()))
		month.SetFloat(i, float64(d.Month()))
		weekday.SetFloat(i, float64((int(d.Weekday())+6)%7))
		year.SetFloat(i, float64(d.Year()))
		cos.SetFloat(i, CosDayOfYear(d.YearDay()))
	}

	return t.With(date, doy, month, weekday, year, cos)
}
