package features

import (
	"sort"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

const secondsPerDay = 24 * 60 * 60

// NullFloat is a float that may be missing.
type NullFloat struct {
	Value float64
	Valid bool
}

func nullFloat(c *table.Column, i int) NullFloat {
	v, ok := c.Float(i)
	return NullFloat{Value: v, Valid: ok}
}

// SeriesDay is one calendar day of a reindexed city series. Days on which
// the city had no observation carry null source values.
type SeriesDay struct {
	Date                     time.Time
	DaysWithoutRain          NullFloat
	Precipitation            NullFloat
	DaysWithoutRainDayBefore NullFloat
	PrecipitationDayBefore   NullFloat
}

// DailySeries is the gap-free daily series of one (estado, municipio) pair
// covering every calendar day from its first to its last observation.
type DailySeries struct {
	State        string
	Municipality string
	Days         []SeriesDay
}

// dayAt returns the series entry for day, if it falls inside the series.
func (s DailySeries) dayAt(day int64) (SeriesDay, bool) {
	if len(s.Days) == 0 {
		return SeriesDay{}, false
	}
	i := day - dayNumber(s.Days[0].Date)
	if i < 0 || i >= int64(len(s.Days)) {
		return SeriesDay{}, false
	}
	return s.Days[i], true
}

type cityKey struct {
	state        string
	municipality string
}

type observation struct {
	dryDays NullFloat
	precip  NullFloat
}

func dayNumber(t time.Time) int64 { return domain.Day(t).Unix() / secondsPerDay }

func dayFromNumber(n int64) time.Time { return time.Unix(n*secondsPerDay, 0).UTC() }

// cityKeyAt returns the row's city key; ok is false when either part is null.
func cityKeyAt(state, city *table.Column, i int) (cityKey, bool) {
	s, okS := state.Text(i)
	m, okM := city.Text(i)
	if !okS || !okM {
		return cityKey{}, false
	}
	return cityKey{state: s, municipality: m}, true
}

type lagInputs struct {
	date, state, city, dryDays, precip *table.Column
}

func requireLagInputs(t *table.Table) (lagInputs, error) {
	var (
		in  lagInputs
		err error
	)
	if in.date, err = requireKind(t, domain.ColDate, table.Time); err != nil {
		return in, err
	}
	if in.state, err = requireKind(t, domain.ColState, table.String); err != nil {
		return in, err
	}
	if in.city, err = requireKind(t, domain.ColMunicipality, table.String); err != nil {
		return in, err
	}
	if in.dryDays, err = requireKind(t, domain.ColDaysWithoutRain, table.Float); err != nil {
		return in, err
	}
	if in.precip, err = requireKind(t, domain.ColPrecipitation, table.Float); err != nil {
		return in, err
	}
	return in, nil
}

// CitySeries deduplicates rows to the first observation per (estado,
// municipio, date) and reindexes each city over its full day range. Series
// are returned sorted by estado then municipio. Rows with a null city key are
// not part of any series.
func CitySeries(t *table.Table) ([]DailySeries, error) {
	in, err := requireLagInputs(t)
	if err != nil {
		return nil, err
	}

	obs := make(map[cityKey]map[int64]observation)
	for i := 0; i < t.Len(); i++ {
		key, ok := cityKeyAt(in.state, in.city, i)
		if !ok {
			continue
		}
		d, ok := in.date.Time(i)
		if !ok {
			continue
		}
		days, found := obs[key]
		if !found {
			days = make(map[int64]observation)
			obs[key] = days
		}
		day := dayNumber(d)
		if _, dup := days[day]; dup {
			continue
		}
		days[day] = observation{dryDays: nullFloat(in.dryDays, i), precip: nullFloat(in.precip, i)}
	}

	keys := make([]cityKey, 0, len(obs))
	for k := range obs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].state != keys[b].state {
			return keys[a].state < keys[b].state
		}
		return keys[a].municipality < keys[b].municipality
	})

	series := make([]DailySeries, 0, len(keys))
	for _, k := range keys {
		series = append(series, reindex(k, obs[k]))
	}
	return series, nil
}

func reindex(key cityKey, days map[int64]observation) DailySeries {
	first, last := int64(0), int64(0)
	started := false
	for d := range days {
		if !started || d < first {
			first = d
		}
		if !started || d > last {
			last = d
		}
		started = true
	}

	s := DailySeries{State: key.state, Municipality: key.municipality}
	s.Days = make([]SeriesDay, 0, last-first+1)
	for d := first; d <= last; d++ {
		o := days[d]
		day := SeriesDay{Date: dayFromNumber(d), DaysWithoutRain: o.dryDays, Precipitation: o.precip}
		if d > first {
			prev := s.Days[len(s.Days)-1]
			day.DaysWithoutRainDayBefore = prev.DaysWithoutRain
			day.PrecipitationDayBefore = prev.Precipitation
		}
		s.Days = append(s.Days, day)
	}
	return s
}

// BuildCityLags appends numero_dias_sem_chuva_day_before and
// precipitacao_day_before to t. Each row receives its city's value from the
// previous calendar day, or null when that day had no observation. Row count
// and order are unchanged.
func BuildCityLags(t *table.Table) (*table.Table, error) {
	series, err := CitySeries(t)
	if err != nil {
		return nil, err
	}
	in, _ := requireLagInputs(t)

	byCity := make(map[cityKey]DailySeries, len(series))
	for _, s := range series {
		byCity[cityKey{state: s.State, municipality: s.Municipality}] = s
	}

	n := t.Len()
	dryLag := table.NewFloat(domain.ColDaysWithoutRainDayBefore, n)
	precipLag := table.NewFloat(domain.ColPrecipitationDayBefore, n)
	for i := 0; i < n; i++ {
		key, ok := cityKeyAt(in.state, in.city, i)
		if !ok {
			continue
		}
		d, ok := in.date.Time(i)
		if !ok {
			continue
		}
		day, ok := byCity[key].dayAt(dayNumber(d))
		if !ok {
			continue
		}
		if day.DaysWithoutRainDayBefore.Valid {
			dryLag.SetFloat(i, day.DaysWithoutRainDayBefore.Value)
		}
		if day.PrecipitationDayBefore.Valid {
			precipLag.SetFloat(i, day.PrecipitationDayBefore.Value)
		}
	}
	return t.With(dryLag, precipLag)
}
