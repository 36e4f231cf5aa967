package domain

import "fmt"

// ColumnType is the persisted type of a ModelSchema column.
type ColumnType string

const (
	TypeFloat ColumnType = "float"
	TypeBool  ColumnType = "bool"
)

// SchemaColumn is one column of a ModelSchema.
type SchemaColumn struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// ModelSchema is the ordered column list of the persisted training table.
// It is produced once per training run and read-only afterwards.
type ModelSchema struct {
	Columns []SchemaColumn `json:"columns"`
}

// Names returns the column names in schema order.
func (s ModelSchema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Features returns the schema columns without the label, in schema order.
func (s ModelSchema) Features(label string) []SchemaColumn {
	out := make([]SchemaColumn, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == label {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Validate rejects empty schemas, duplicate names, and unknown types.
func (s ModelSchema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: schema has no columns", ErrSchema)
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: schema column with empty name", ErrSchema)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate schema column %q", ErrSchema, c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Type != TypeFloat && c.Type != TypeBool {
			return fmt.Errorf("%w: column %q has unsupported type %q", ErrSchema, c.Name, c.Type)
		}
	}
	return nil
}
