package features

import (
	"fmt"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(c *table.Column, i int) {
	if v, ok := c.Float(i); ok {
		m.sum += v
		m.n++
	}
}

func (m meanAcc) value() NullFloat {
	if m.n == 0 {
		return NullFloat{}
	}
	return NullFloat{Value: m.sum / float64(m.n), Valid: true}
}

// dayBeforeMeans summarises the previous day's file per (estado, municipio):
// the mean of numero_dias_sem_chuva and precipitacao over the city's rows,
// skipping nulls.
func dayBeforeMeans(prev *table.Table) (map[cityKey]observation, error) {
	state, err := requireKind(prev, domain.ColState, table.String)
	if err != nil {
		return nil, err
	}
	city, err := requireKind(prev, domain.ColMunicipality, table.String)
	if err != nil {
		return nil, err
	}
	dry, err := requireKind(prev, domain.ColDaysWithoutRain, table.Float)
	if err != nil {
		return nil, err
	}
	precip, err := requireKind(prev, domain.ColPrecipitation, table.Float)
	if err != nil {
		return nil, err
	}

	acc := make(map[cityKey]*[2]meanAcc)
	for i := 0; i < prev.Len(); i++ {
		key, ok := cityKeyAt(state, city, i)
		if !ok {
			continue
		}
		a, found := acc[key]
		if !found {
			a = &[2]meanAcc{}
			acc[key] = a
		}
		a[0].add(dry, i)
		a[1].add(precip, i)
	}

	out := make(map[cityKey]observation, len(acc))
	for k, a := range acc {
		out[k] = observation{dryDays: a[0].value(), precip: a[1].value()}
	}
	return out, nil
}

// JoinDayBefore left-joins the previous day's per-city means onto today's
// rows as the two day-before columns, then fills every remaining null
// numeric cell with 0. Unmatched cities therefore get 0.
func JoinDayBefore(today, prev *table.Table) (*table.Table, error) {
	means, err := dayBeforeMeans(prev)
	if err != nil {
		return nil, fmt.Errorf("aggregate previous day: %w", err)
	}
	state, err := requireKind(today, domain.ColState, table.String)
	if err != nil {
		return nil, err
	}
	city, err := requireKind(today, domain.ColMunicipality, table.String)
	if err != nil {
		return nil, err
	}

	n := today.Len()
	dryLag := table.NewFloat(domain.ColDaysWithoutRainDayBefore, n)
	precipLag := table.NewFloat(domain.ColPrecipitationDayBefore, n)
	for i := 0; i < n; i++ {
		key, ok := cityKeyAt(state, city, i)
		if !ok {
			continue
		}
		m, ok := means[key]
		if !ok {
			continue
		}
		if m.dryDays.Valid {
			dryLag.SetFloat(i, m.dryDays.Value)
		}
		if m.precip.Valid {
			precipLag.SetFloat(i, m.precip.Value)
		}
	}

	joined, err := today.With(dryLag, precipLag)
	if err != nil {
		return nil, err
	}
	return joined.FillNull(0), nil
}

func requireKind(t *table.Table, name string, kind table.Kind) (*table.Column, error) {
	c, err := t.Require(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInputFormat, err)
	}
	if c.Kind() != kind {
		return nil, fmt.Errorf("%w: %s is %s, want %s", domain.ErrInputFormat, name, c.Kind(), kind)
	}
	return c, nil
}
