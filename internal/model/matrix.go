package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// Matrix lays out the named columns of t as a dense rows x len(names)
// matrix. Bool cells become 0 or 1. A null or non-numeric cell is an error,
// since the model contract forbids missing values.
func Matrix(t *table.Table, names []string) (*mat.Dense, error) {
	if t.Len() == 0 || len(names) == 0 {
		return nil, fmt.Errorf("%w: empty feature matrix (%d rows, %d columns)", domain.ErrSchema, t.Len(), len(names))
	}
	m := mat.NewDense(t.Len(), len(names), nil)
	for j, name := range names {
		c, err := t.Require(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSchema, err)
		}
		for i := 0; i < t.Len(); i++ {
			v, ok := c.Numeric(i)
			if !ok {
				return nil, fmt.Errorf("%w: column %s row %d is not a number", domain.ErrSchema, name, i)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// Vector returns a float column as a slice, failing on nulls.
func Vector(t *table.Table, name string) ([]float64, error) {
	c, err := t.Require(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSchema, err)
	}
	out := make([]float64, t.Len())
	for i := range out {
		v, ok := c.Numeric(i)
		if !ok {
			return nil, fmt.Errorf("%w: column %s row %d is not a number", domain.ErrSchema, name, i)
		}
		out[i] = v
	}
	return out, nil
}
