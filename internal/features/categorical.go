package features

import (
	"fmt"
	"sort"
	"strings"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// CategoricalColumns are one-hot encoded, in this order.
var CategoricalColumns = []string{domain.ColBiome, domain.ColState}

// DummyName returns the indicator column name for value v of column col.
func DummyName(col, v string) string { return col + "_" + v }

// IsDummy reports whether c is an indicator generated by EncodeCategoricals.
// Source columns such as estado_id share the prefix but are not bool.
func IsDummy(c *table.Column) bool {
	if c.Kind() != table.Bool {
		return false
	}
	for _, col := range CategoricalColumns {
		if strings.HasPrefix(c.Name(), col+"_") {
			return true
		}
	}
	return false
}

// EncodeCategoricals replaces bioma and estado with boolean indicator
// columns, one per distinct observed value, sorted by value and appended to
// the end of the table. A null category sets no indicator.
func EncodeCategoricals(t *table.Table) (*table.Table, error) {
	var dummies []*table.Column
	for _, name := range CategoricalColumns {
		src, err := t.Require(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInputFormat, err)
		}
		if src.Kind() != table.String {
			return nil, fmt.Errorf("%w: %s is %s, want string", domain.ErrInputFormat, name, src.Kind())
		}
		dummies = append(dummies, oneHot(src)...)
	}

	out := t.Drop(CategoricalColumns...)
	return out.With(dummies...)
}

func oneHot(src *table.Column) []*table.Column {
	seen := make(map[string]struct{})
	for i := 0; i < src.Len(); i++ {
		if v, ok := src.Text(i); ok {
			seen[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)

	pos := make(map[string]int, len(values))
	cols := make([]*table.Column, len(values))
	for j, v := range values {
		pos[v] = j
		cols[j] = table.NewBool(DummyName(src.Name(), v), src.Len())
	}
	for i := 0; i < src.Len(); i++ {
		if v, ok := src.Text(i); ok {
			cols[pos[v]].SetBool(i, true)
		}
	}
	return cols
}
