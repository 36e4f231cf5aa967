// Package table is a small columnar frame for the feature pipeline: ordered,
// typed, nullable columns of equal length. Operations return new tables and
// never mutate their receiver's columns.
package table

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is returned when a named column is not present.
var ErrMissingColumn = errors.New("missing column")

// Table is an ordered set of equal-length columns.
type Table struct {
	rows  int
	cols  []*Column
	index map[string]int
}

// New returns an empty table with n rows and no columns.
func New(n int) *Table {
	return &Table{rows: n, index: make(map[string]int)}
}

// Of builds a table from columns, which must share one length.
func Of(cols ...*Column) (*Table, error) {
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
	t := New(n)
	for _, c := range cols {
		if err := t.Set(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustOf is Of for static construction in tests and fixtures.
func MustOf(cols ...*Column) *Table {
	t, err := Of(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Len() int { return t.rows }

// Names returns column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Require returns the named column or an ErrMissingColumn error.
func (t *Table) Require(name string) (*Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return c, nil
}

// Set adds c to the end of the table, or replaces a same-named column in
// place. The column length must match the table's row count.
func (t *Table) Set(c *Column) error {
	if c.Len() != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d", c.name, c.Len(), t.rows)
	}
	if i, ok := t.index[c.name]; ok {
		t.cols[i] = c
		return nil
	}
	t.index[c.name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// With returns a copy of t with c set.
func (t *Table) With(cols ...*Column) (*Table, error) {
	out := t.shallow()
	for _, c := range cols {
		if err := out.Set(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Drop returns a copy of t without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	out := New(t.rows)
	for _, c := range t.cols {
		if _, ok := skip[c.name]; ok {
			continue
		}
		out.index[c.name] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out
}

// Select returns the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := New(t.rows)
	for _, n := range names {
		c, err := t.Require(n)
		if err != nil {
			return nil, err
		}
		if _, dup := out.index[n]; dup {
			return nil, fmt.Errorf("duplicate column %q in selection", n)
		}
		out.index[n] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// Take returns the rows at idx, in idx order.
func (t *Table) Take(idx []int) *Table {
	out := New(len(idx))
	for _, c := range t.cols {
		out.index[c.name] = len(out.cols)
		out.cols = append(out.cols, c.take(idx))
	}
	return out
}

// Filter returns the rows for which keep returns true, preserving order.
func (t *Table) Filter(keep func(i int) bool) *Table {
	idx := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return t.Take(idx)
}

// FillNull returns a copy of t with null float cells set to v and null bool
// cells set to v != 0. String and time columns are left untouched.
func (t *Table) FillNull(v float64) *Table {
	out := New(t.rows)
	for _, c := range t.cols {
		if c.NullCount() > 0 && (c.kind == Float || c.kind == Bool) {
			filled := c.Clone()
			for i := range filled.valid {
				if filled.valid[i] {
					continue
				}
				if c.kind == Float {
					filled.SetFloat(i, v)
				} else {
					filled.SetBool(i, v != 0)
				}
			}
			c = filled
		}
		out.index[c.name] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out
}

// Concat stacks tables row-wise. Columns are matched by name; the result
// keeps the first table's order and appends columns first seen later. Cells
// for columns a table lacks are null. Same-named columns must share a kind.
func Concat(tables ...*Table) (*Table, error) {
	total := 0
	var order []string
	kinds := make(map[string]Kind)
	for _, t := range tables {
		total += t.rows
		for _, c := range t.cols {
			k, seen := kinds[c.name]
			if !seen {
				kinds[c.name] = c.kind
				order = append(order, c.name)
				continue
			}
			if k != c.kind {
				return nil, fmt.Errorf("column %q is %s in one table and %s in another", c.name, k, c.kind)
			}
		}
	}

	out := New(total)
	for _, name := range order {
		col := newColumn(name, kinds[name], total)
		offset := 0
		for _, t := range tables {
			if src, ok := t.Column(name); ok {
				for i := 0; i < t.rows; i++ {
					col.copyCell(offset+i, src, i)
				}
			}
			offset += t.rows
		}
		out.index[name] = len(out.cols)
		out.cols = append(out.cols, col)
	}
	return out, nil
}

func (t *Table) shallow() *Table {
	out := New(t.rows)
	out.cols = append(out.cols, t.cols...)
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}
