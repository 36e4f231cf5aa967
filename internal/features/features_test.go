package features

import (
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(state, city string, at time.Time, dryDays, precip float64) domain.HotspotRecord {
	return domain.HotspotRecord{
		ID:              city + at.Format("20060102"),
		Lat:             -10,
		Lon:             -50,
		ObservedAt:      at,
		Satellite:       "AQUA_M-T",
		Municipality:    city,
		State:           state,
		Country:         "Brasil",
		StateID:         domain.Float(17),
		CountryID:       domain.Float(33),
		DaysWithoutRain: domain.Float(dryDays),
		Precipitation:   domain.Float(precip),
		FireRisk:        domain.Float(0.5),
		Biome:           "Cerrado",
	}
}

func floatAt(t *testing.T, tbl *table.Table, col string, i int) (float64, bool) {
	t.Helper()
	c, err := tbl.Require(col)
	require.NoError(t, err)
	return c.Float(i)
}

// --- temporal ---

func TestCosDayOfYear_WrapsAroundYearEnd(t *testing.T) {
	assert.InDelta(t, CosDayOfYear(1), CosDayOfYear(365), 0.001)
	assert.InDelta(t, -1.0, CosDayOfYear(183), 0.001)
	assert.Greater(t, math.Abs(CosDayOfYear(1)-CosDayOfYear(183)), 1.9)
}

func TestEncodeTemporal(t *testing.T) {
	tbl := FromRecords([]domain.HotspotRecord{
		rec("TOCANTINS", "X", time.Date(2025, 5, 19, 23, 59, 0, 0, time.UTC), 1, 0),
	}, true)

	out, err := EncodeTemporal(tbl)
	require.NoError(t, err)

	date, _ := out.Column(domain.ColDate)
	d, ok := date.Time(0)
	require.True(t, ok)
	assert.Equal(t, day(2025, 5, 19), d)

	for col, want := range map[string]float64{
		domain.ColDayOfYear: 139,
		domain.ColMonth:     5,
		domain.ColWeekday:   0, // Monday
		domain.ColYear:      2025,
	} {
		got, ok := floatAt(t, out, col, 0)
		require.True(t, ok, col)
		assert.Equal(t, want, got, col)
	}
	cos, _ := floatAt(t, out, domain.ColCosDayOfYear, 0)
	assert.InDelta(t, CosDayOfYear(139), cos, 1e-12)
}

func TestEncodeTemporal_NullTimestamp(t *testing.T) {
	tbl := FromRecords([]domain.HotspotRecord{{Municipality: "X", State: "PA"}}, false)
	_, err := EncodeTemporal(tbl)
	require.ErrorIs(t, err, domain.ErrInputFormat)
}

func TestEncodeTemporal_MissingColumn(t *testing.T) {
	_, err := EncodeTemporal(table.MustOf(table.FloatsOf("lat", 1)))
	require.ErrorIs(t, err, domain.ErrInputFormat)
}

// --- lags ---

func lagged(t *testing.T, recs ...domain.HotspotRecord) *table.Table {
	t.Helper()
	tbl, err := EncodeTemporal(FromRecords(recs, true))
	require.NoError(t, err)
	out, err := BuildCityLags(tbl)
	require.NoError(t, err)
	return out
}

func TestBuildCityLags_ConsecutiveDays(t *testing.T) {
	out := lagged(t,
		rec("TOCANTINS", "X", day(2025, 5, 19), 3, 1.5),
		rec("TOCANTINS", "X", day(2025, 5, 20), 5, 0),
	)

	_, ok := floatAt(t, out, domain.ColDaysWithoutRainDayBefore, 0)
	assert.False(t, ok, "first day has no previous day")

	v, ok := floatAt(t, out, domain.ColDaysWithoutRainDayBefore, 1)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
	p, ok := floatAt(t, out, domain.ColPrecipitationDayBefore, 1)
	require.True(t, ok)
	assert.Equal(t, 1.5, p)
}

func TestBuildCityLags_GapProducesNullLag(t *testing.T) {
	d := day(2024, 9, 1)
	tbl, err := EncodeTemporal(FromRecords([]domain.HotspotRecord{
		rec("PA", "Altamira", d, 4, 0),
		rec("PA", "Altamira", d.AddDate(0, 0, 2), 6, 0),
	}, true))
	require.NoError(t, err)

	series, err := CitySeries(tbl)
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Len(t, series[0].Days, 3)

	gap := series[0].Days[1]
	assert.Equal(t, d.AddDate(0, 0, 1), gap.Date)
	assert.False(t, gap.DaysWithoutRain.Valid)
	assert.Equal(t, NullFloat{Value: 4, Valid: true}, gap.DaysWithoutRainDayBefore)
	assert.False(t, series[0].Days[2].DaysWithoutRainDayBefore.Valid)

	out, err := BuildCityLags(tbl)
	require.NoError(t, err)
	_, ok := floatAt(t, out, domain.ColDaysWithoutRainDayBefore, 1)
	assert.False(t, ok)
}

func TestBuildCityLags_DedupKeepsFirstObservation(t *testing.T) {
	out := lagged(t,
		rec("PA", "X", day(2024, 9, 1).Add(10*time.Hour), 2, 0),
		rec("PA", "X", day(2024, 9, 1).Add(14*time.Hour), 9, 0),
		rec("PA", "X", day(2024, 9, 2), 1, 0),
		rec("PA", "X", day(2024, 9, 2).Add(time.Hour), 1, 0),
	)
	require.Equal(t, 4, out.Len())

	for _, i := range []int{2, 3} {
		v, ok := floatAt(t, out, domain.ColDaysWithoutRainDayBefore, i)
		require.True(t, ok)
		assert.Equal(t, 2.0, v)
	}
}

func TestBuildCityLags_CitiesAreIndependent(t *testing.T) {
	out := lagged(t,
		rec("PA", "X", day(2024, 9, 1), 2, 0),
		rec("MT", "X", day(2024, 9, 2), 7, 0),
		rec("PA", "Y", day(2024, 9, 2), 7, 0),
	)
	for i := 0; i < out.Len(); i++ {
		_, ok := floatAt(t, out, domain.ColDaysWithoutRainDayBefore, i)
		assert.False(t, ok, "row %d", i)
	}
}

func TestBuildCityLags_NullCityKey(t *testing.T) {
	out := lagged(t,
		rec("PA", "", day(2024, 9, 1), 2, 0),
		rec("PA", "", day(2024, 9, 2), 3, 0),
	)
	require.Equal(t, 2, out.Len())
	_, ok := floatAt(t, out, domain.ColDaysWithoutRainDayBefore, 1)
	assert.False(t, ok)
}

// --- categorical ---

func TestEncodeCategoricals(t *testing.T) {
	recs := []domain.HotspotRecord{
		rec("TOCANTINS", "X", day(2024, 9, 1), 0, 0),
		rec("PARA", "Y", day(2024, 9, 1), 0, 0),
		rec("", "Z", day(2024, 9, 1), 0, 0),
	}
	recs[1].Biome = "Amazônia"
	out, err := EncodeCategoricals(FromRecords(recs, true))
	require.NoError(t, err)

	assert.False(t, out.Has(domain.ColBiome))
	assert.False(t, out.Has(domain.ColState))
	assert.True(t, out.Has(domain.ColStateID))

	names := out.Names()
	tail := names[len(names)-4:]
	assert.Empty(t, cmp.Diff([]string{"bioma_Amazônia", "bioma_Cerrado", "estado_PARA", "estado_TOCANTINS"}, tail))

	check := func(col string, want ...bool) {
		c, err := out.Require(col)
		require.NoError(t, err)
		for i, w := range want {
			v, ok := c.Bool(i)
			require.True(t, ok)
			assert.Equal(t, w, v, "%s[%d]", col, i)
		}
	}
	check("estado_TOCANTINS", true, false, false)
	check("estado_PARA", false, true, false)
	check("bioma_Cerrado", true, false, true)

	stateID, _ := out.Column(domain.ColStateID)
	assert.False(t, IsDummy(stateID))
}

// --- reconcile ---

func testSchema() domain.ModelSchema {
	return domain.ModelSchema{Columns: []domain.SchemaColumn{
		{Name: "lat", Type: domain.TypeFloat},
		{Name: "lon", Type: domain.TypeFloat},
		{Name: domain.ColFireRisk, Type: domain.TypeFloat},
		{Name: "day_of_year", Type: domain.TypeFloat},
		{Name: "bioma_Cerrado", Type: domain.TypeBool},
		{Name: "estado_PARA", Type: domain.TypeBool},
	}}
}

func TestReconcile_AnyMissingSubset(t *testing.T) {
	schema := testSchema()
	features := schema.Features(domain.ColFireRisk)
	full := []*table.Column{
		table.FloatsOf("lat", -1, -2),
		table.FloatsOf("lon", -3, -4),
		table.FloatsOf("day_of_year", 10, 11),
		table.BoolsOf("bioma_Cerrado", true, false),
		table.BoolsOf("estado_PARA", false, true),
	}

	for mask := 0; mask < 1<<len(full); mask++ {
		var cols []*table.Column
		// reverse order plus an extra column the schema does not know
		for i := len(full) - 1; i >= 0; i-- {
			if mask&(1<<i) != 0 {
				cols = append(cols, full[i])
			}
		}
		cols = append(cols, table.BoolsOf("estado_ACRE", true, true))
		tbl := table.MustOf(cols...)

		out, err := Reconcile(tbl, schema)
		require.NoError(t, err)
		assert.Equal(t, domain.ModelSchema{Columns: features}.Names(), out.Names())

		for i, sc := range features {
			c, _ := out.Column(sc.Name)
			assert.Zero(t, c.NullCount())
			if mask&(1<<i) != 0 {
				continue
			}
			v, ok := c.Numeric(0)
			require.True(t, ok)
			assert.Zero(t, v, "missing %s must be filled", sc.Name)
			if sc.Type == domain.TypeBool {
				assert.Equal(t, table.Bool, c.Kind())
			}
		}
	}
}

func TestReconcile_FillsNulls(t *testing.T) {
	lat := table.NewFloat("lat", 1)
	out, err := Reconcile(table.MustOf(lat), testSchema())
	require.NoError(t, err)
	v, ok := floatAt(t, out, "lat", 0)
	assert.True(t, ok)
	assert.Zero(t, v)
}

func TestReconcile_SchemaErrors(t *testing.T) {
	_, err := Reconcile(table.MustOf(table.FloatsOf("lat", 1)), domain.ModelSchema{})
	require.ErrorIs(t, err, domain.ErrSchema)

	_, err = Reconcile(table.MustOf(table.StringsOf("lat", "x")), testSchema())
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestSchemaOf(t *testing.T) {
	s, err := SchemaOf(table.MustOf(table.FloatsOf("lat", 1), table.BoolsOf("estado_PA", true)))
	require.NoError(t, err)
	assert.Equal(t, []domain.SchemaColumn{{Name: "lat", Type: domain.TypeFloat}, {Name: "estado_PA", Type: domain.TypeBool}}, s.Columns)

	_, err = SchemaOf(table.MustOf(table.StringsOf("s", "x")))
	require.ErrorIs(t, err, domain.ErrSchema)
}

// --- training stages ---

func TestKeepPositiveRisk(t *testing.T) {
	risk := table.NewFloat(domain.ColFireRisk, 5)
	for i, v := range []float64{0, -1, 0.01, -999} {
		risk.SetFloat(i, v)
	}
	tbl := table.MustOf(table.FloatsOf("lat", 1, 2, 3, 4, 5), risk)

	out, err := KeepPositiveRisk(tbl)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	v, _ := floatAt(t, out, domain.ColFireRisk, 0)
	assert.Equal(t, 0.01, v)

	_, err = KeepPositiveRisk(table.MustOf(table.FloatsOf("lat", 1)))
	require.ErrorIs(t, err, domain.ErrInputFormat)
}

func TestKeepSince(t *testing.T) {
	tbl := table.MustOf(
		table.TimesOf(domain.ColDate, day(2022, 12, 31), day(2023, 1, 1), day(2024, 3, 3)),
		table.FloatsOf("lat", 1, 2, 3),
	)
	out, err := KeepSince(day(2023, 1, 1))(tbl)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	assert.False(t, out.Has(domain.ColDate))
	v, _ := floatAt(t, out, "lat", 0)
	assert.Equal(t, 2.0, v)
}

func TestSelectTrainingColumns(t *testing.T) {
	tbl, err := EncodeTemporal(FromRecords([]domain.HotspotRecord{rec("PA", "X", day(2024, 1, 1), 1, 1)}, true))
	require.NoError(t, err)
	tbl, err = BuildCityLags(tbl)
	require.NoError(t, err)
	tbl, err = EncodeCategoricals(tbl)
	require.NoError(t, err)

	out, err := SelectTrainingColumns(tbl)
	require.NoError(t, err)
	want := append(append([]string(nil), TrainingBaseColumns...), "bioma_Cerrado", "estado_PA")
	assert.Equal(t, want, out.Names())
}

// --- prediction join ---

func TestJoinDayBefore_MeansAndUnmatched(t *testing.T) {
	prev := FromRecords([]domain.HotspotRecord{
		rec("TOCANTINS", "X", day(2025, 5, 19), 2, 1),
		rec("TOCANTINS", "X", day(2025, 5, 19), 4, 3),
	}, false)
	today := FromRecords([]domain.HotspotRecord{
		rec("TOCANTINS", "X", day(2025, 5, 20), 0, 0),
		rec("TOCANTINS", "Y", day(2025, 5, 20), 0, 0),
	}, false)

	out, err := JoinDayBefore(today, prev)
	require.NoError(t, err)

	v, ok := floatAt(t, out, domain.ColDaysWithoutRainDayBefore, 0)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
	p, _ := floatAt(t, out, domain.ColPrecipitationDayBefore, 0)
	assert.Equal(t, 2.0, p)

	v, ok = floatAt(t, out, domain.ColDaysWithoutRainDayBefore, 1)
	require.True(t, ok)
	assert.Zero(t, v)
}
