package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tbl, err := Of(
		FloatsOf("a", 1, 2, 3),
		StringsOf("s", "x", "", "z"),
		BoolsOf("b", true, false, true),
	)
	require.NoError(t, err)
	return tbl
}

func TestOf_LengthMismatch(t *testing.T) {
	_, err := Of(FloatsOf("a", 1, 2), FloatsOf("b", 1))
	require.Error(t, err)
}

func TestSet_ReplacesInPlace(t *testing.T) {
	tbl := sample(t)
	require.NoError(t, tbl.Set(FloatsOf("s", 9, 9, 9)))
	assert.Equal(t, []string{"a", "s", "b"}, tbl.Names())

	c, ok := tbl.Column("s")
	require.True(t, ok)
	assert.Equal(t, Float, c.Kind())
}

func TestWith_DoesNotMutateReceiver(t *testing.T) {
	tbl := sample(t)
	out, err := tbl.With(FloatsOf("c", 0, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "s", "b"}, tbl.Names())
	assert.Equal(t, []string{"a", "s", "b", "c"}, out.Names())
}

func TestDrop_IgnoresUnknown(t *testing.T) {
	out := sample(t).Drop("s", "nope")
	assert.Equal(t, []string{"a", "b"}, out.Names())
	assert.True(t, out.Has("a"))
	assert.False(t, out.Has("s"))
}

func TestSelect(t *testing.T) {
	tbl := sample(t)

	out, err := tbl.Select("b", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, out.Names())

	_, err = tbl.Select("a", "missing")
	require.ErrorIs(t, err, ErrMissingColumn)

	_, err = tbl.Select("a", "a")
	require.Error(t, err)
}

func TestFilter_PreservesOrderAndNulls(t *testing.T) {
	tbl := sample(t)
	out := tbl.Filter(func(i int) bool { return i != 0 })
	require.Equal(t, 2, out.Len())

	s, _ := out.Column("s")
	assert.True(t, s.IsNull(0))
	v, ok := s.Text(1)
	assert.True(t, ok)
	assert.Equal(t, "z", v)
}

func TestFilter_EmptyResult(t *testing.T) {
	out := sample(t).Filter(func(int) bool { return false })
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, []string{"a", "s", "b"}, out.Names())
}

func TestFillNull(t *testing.T) {
	f := NewFloat("f", 2)
	f.SetFloat(1, 4)
	b := NewBool("b", 2)
	b.SetNull(0)
	tbl := MustOf(f, b, NewString("s", 2))

	out := tbl.FillNull(0)

	of, _ := out.Column("f")
	v, ok := of.Float(0)
	assert.True(t, ok)
	assert.Zero(t, v)
	ob, _ := out.Column("b")
	bv, ok := ob.Bool(0)
	assert.True(t, ok)
	assert.False(t, bv)
	os, _ := out.Column("s")
	assert.Equal(t, 2, os.NullCount())

	// receiver untouched
	assert.True(t, f.IsNull(0))
}

func TestConcat_UnionsColumns(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	t1 := MustOf(FloatsOf("a", 1), TimesOf("d", day))
	t2 := MustOf(FloatsOf("a", 2), StringsOf("extra", "e"))

	out, err := Concat(t1, t2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"a", "d", "extra"}, out.Names())

	d, _ := out.Column("d")
	assert.False(t, d.IsNull(0))
	assert.True(t, d.IsNull(1))
	e, _ := out.Column("extra")
	assert.True(t, e.IsNull(0))
}

func TestConcat_KindMismatch(t *testing.T) {
	_, err := Concat(MustOf(FloatsOf("a", 1)), MustOf(StringsOf("a", "x")))
	require.Error(t, err)
}

func TestColumn_Numeric(t *testing.T) {
	b := BoolsOf("b", true, false)
	v, ok := b.Numeric(0)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	s := StringsOf("s", "x")
	_, ok = s.Numeric(0)
	assert.False(t, ok)
}

func TestColumn_RenamedIsDeepCopy(t *testing.T) {
	a := FloatsOf("a", 1)
	r := a.Renamed("r")
	r.SetFloat(0, 5)

	v, _ := a.Float(0)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, "r", r.Name())
}
