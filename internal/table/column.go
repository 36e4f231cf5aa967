package table

import (
	"fmt"
	"time"
)

// Kind is the value type of a Column.
type Kind int

const (
	Float Kind = iota
	Bool
	String
	Time
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Time:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a named, typed, nullable vector. Only the slice matching Kind is
// populated; valid[i] is false for null cells.
type Column struct {
	name   string
	kind   Kind
	floats []float64
	bools  []bool
	strs   []string
	times  []time.Time
	valid  []bool
}

func newColumn(name string, kind Kind, n int) *Column {
	c := &Column{name: name, kind: kind, valid: make([]bool, n)}
	switch kind {
	case Float:
		c.floats = make([]float64, n)
	case Bool:
		c.bools = make([]bool, n)
	case String:
		c.strs = make([]string, n)
	case Time:
		c.times = make([]time.Time, n)
	}
	return c
}

// NewFloat returns an all-null float column of length n.
func NewFloat(name string, n int) *Column { return newColumn(name, Float, n) }

// NewString returns an all-null string column of length n.
func NewString(name string, n int) *Column { return newColumn(name, String, n) }

// NewTime returns an all-null time column of length n.
func NewTime(name string, n int) *Column { return newColumn(name, Time, n) }

// NewBool returns a bool column of length n with every cell false.
func NewBool(name string, n int) *Column {
	c := newColumn(name, Bool, n)
	for i := range c.valid {
		c.valid[i] = true
	}
	return c
}

// FloatsOf returns a float column holding vals, none null.
func FloatsOf(name string, vals ...float64) *Column {
	c := NewFloat(name, len(vals))
	for i, v := range vals {
		c.SetFloat(i, v)
	}
	return c
}

// BoolsOf returns a bool column holding vals.
func BoolsOf(name string, vals ...bool) *Column {
	c := NewBool(name, len(vals))
	copy(c.bools, vals)
	return c
}

// StringsOf returns a string column holding vals; empty strings are null.
func StringsOf(name string, vals ...string) *Column {
	c := NewString(name, len(vals))
	for i, v := range vals {
		if v != "" {
			c.SetText(i, v)
		}
	}
	return c
}

// TimesOf returns a time column holding vals, none null.
func TimesOf(name string, vals ...time.Time) *Column {
	c := NewTime(name, len(vals))
	for i, v := range vals {
		c.SetTime(i, v)
	}
	return c
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }
func (c *Column) Len() int     { return len(c.valid) }

// IsNull reports whether cell i is null.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// SetNull clears cell i.
func (c *Column) SetNull(i int) {
	c.valid[i] = false
	switch c.kind {
	case Float:
		c.floats[i] = 0
	case Bool:
		c.bools[i] = false
	case String:
		c.strs[i] = ""
	case Time:
		c.times[i] = time.Time{}
	}
}

func (c *Column) Float(i int) (float64, bool) { return c.floats[i], c.valid[i] }

func (c *Column) SetFloat(i int, v float64) {
	c.floats[i] = v
	c.valid[i] = true
}

// SetFloatPtr stores *v, or null when v is nil.
func (c *Column) SetFloatPtr(i int, v *float64) {
	if v == nil {
		c.SetNull(i)
		return
	}
	c.SetFloat(i, *v)
}

func (c *Column) Bool(i int) (bool, bool) { return c.bools[i], c.valid[i] }

func (c *Column) SetBool(i int, v bool) {
	c.bools[i] = v
	c.valid[i] = true
}

func (c *Column) Text(i int) (string, bool) { return c.strs[i], c.valid[i] }

func (c *Column) SetText(i int, v string) {
	c.strs[i] = v
	c.valid[i] = true
}

func (c *Column) Time(i int) (time.Time, bool) { return c.times[i], c.valid[i] }

func (c *Column) SetTime(i int, v time.Time) {
	c.times[i] = v
	c.valid[i] = true
}

// Numeric returns cell i as a float64: floats as-is, bools as 0/1. The second
// result is false for null cells and for string or time columns.
func (c *Column) Numeric(i int) (float64, bool) {
	if !c.valid[i] {
		return 0, false
	}
	switch c.kind {
	case Float:
		return c.floats[i], true
	case Bool:
		if c.bools[i] {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Renamed returns a copy of c under a new name.
func (c *Column) Renamed(name string) *Column {
	out := c.Clone()
	out.name = name
	return out
}

// Clone returns a deep copy of c.
func (c *Column) Clone() *Column {
	out := newColumn(c.name, c.kind, c.Len())
	for i := range c.valid {
		out.copyCell(i, c, i)
	}
	return out
}

// take copies the rows at idx, in idx order.
func (c *Column) take(idx []int) *Column {
	out := newColumn(c.name, c.kind, len(idx))
	for j, i := range idx {
		out.copyCell(j, c, i)
	}
	return out
}

// copyCell sets cell j of c from cell i of src; kinds must match.
func (c *Column) copyCell(j int, src *Column, i int) {
	if !src.valid[i] {
		c.SetNull(j)
		return
	}
	switch c.kind {
	case Float:
		c.SetFloat(j, src.floats[i])
	case Bool:
		c.SetBool(j, src.bools[i])
	case String:
		c.SetText(j, src.strs[i])
	case Time:
		c.SetTime(j, src.times[i])
	}
}
