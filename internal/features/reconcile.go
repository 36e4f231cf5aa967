package features

import (
	"fmt"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// Reconcile aligns an inference table with the model schema. Schema columns
// the table lacks are added as false (bool) or 0 (float); the result holds
// exactly the schema's feature columns in schema order, nulls filled with 0.
// Columns outside the schema are dropped.
func Reconcile(t *table.Table, schema domain.ModelSchema) (*table.Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	features := schema.Features(domain.ColFireRisk)
	var added []*table.Column
	names := make([]string, 0, len(features))
	for _, sc := range features {
		names = append(names, sc.Name)
		c, ok := t.Column(sc.Name)
		if !ok {
			added = append(added, placeholder(sc, t.Len()))
			continue
		}
		if c.Kind() != table.Float && c.Kind() != table.Bool {
			return nil, fmt.Errorf("%w: column %q is %s, model needs a number", domain.ErrSchema, sc.Name, c.Kind())
		}
	}

	aligned, err := t.With(added...)
	if err != nil {
		return nil, fmt.Errorf("add missing columns: %w", err)
	}
	aligned, err = aligned.Select(names...)
	if err != nil {
		return nil, fmt.Errorf("select schema columns: %w", err)
	}
	return aligned.FillNull(0), nil
}

func placeholder(sc domain.SchemaColumn, n int) *table.Column {
	if sc.Type == domain.TypeBool {
		return table.NewBool(sc.Name, n)
	}
	c := table.NewFloat(sc.Name, n)
	for i := 0; i < n; i++ {
		c.SetFloat(i, 0)
	}
	return c
}

// SchemaOf derives the model schema from a table's column order and kinds.
// Only float and bool columns are representable.
func SchemaOf(t *table.Table) (domain.ModelSchema, error) {
	var s domain.ModelSchema
	for _, c := range t.Columns() {
		switch c.Kind() {
		case table.Float:
			s.Columns = append(s.Columns, domain.SchemaColumn{Name: c.Name(), Type: domain.TypeFloat})
		case table.Bool:
			s.Columns = append(s.Columns, domain.SchemaColumn{Name: c.Name(), Type: domain.TypeBool})
		default:
			return domain.ModelSchema{}, fmt.Errorf("%w: column %q of kind %s cannot be persisted", domain.ErrSchema, c.Name(), c.Kind())
		}
	}
	return s, s.Validate()
}
