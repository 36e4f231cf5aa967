package parquet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/local"
	goparquet "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// ReadSchema returns the column names and types of the Parquet file at path
// without reading any rows. Every failure is a domain.ErrSchema.
func ReadSchema(path string) (domain.ModelSchema, error) {
	var schema domain.ModelSchema
	err := withReader(path, func(pr *reader.ParquetReader) error {
		var err error
		schema, err = schemaOf(pr)
		return err
	})
	if err != nil {
		return domain.ModelSchema{}, fmt.Errorf("%w: read schema %s: %w", domain.ErrSchema, path, err)
	}
	return schema, nil
}

// ReadTable loads every column of the Parquet file at path.
func ReadTable(path string) (*table.Table, error) {
	var out *table.Table
	err := withReader(path, func(pr *reader.ParquetReader) error {
		schema, err := schemaOf(pr)
		if err != nil {
			return err
		}
		n := int(pr.GetNumRows())
		cols := make([]*table.Column, len(schema.Columns))
		for i, sc := range schema.Columns {
			values, _, _, err := pr.ReadColumnByIndex(int64(i), int64(n))
			if err != nil {
				return fmt.Errorf("read column %s: %w", sc.Name, err)
			}
			if n > 0 && len(values) != n {
				return fmt.Errorf("column %s has %d values, want %d", sc.Name, len(values), n)
			}
			if cols[i], err = toColumn(sc, values, n); err != nil {
				return err
			}
		}
		out = table.New(n)
		for _, c := range cols {
			if err := out.Set(c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return out, nil
}

// SchemaFile is a ModelSchema source backed by a persisted training table.
type SchemaFile struct {
	Path string
}

// Schema reads the schema fresh on every call.
func (f SchemaFile) Schema() (domain.ModelSchema, error) {
	return ReadSchema(f.Path)
}

func withReader(path string, fn func(*reader.ParquetReader) error) (err error) {
	// The reader panics on some corrupt footers.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt parquet file: %v", r)
		}
	}()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return err
	}
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetColumnReader(fr, 1)
	if err != nil {
		return fmt.Errorf("open parquet reader: %w", err)
	}
	defer pr.ReadStop()
	return fn(pr)
}

func schemaOf(pr *reader.ParquetReader) (domain.ModelSchema, error) {
	var s domain.ModelSchema
	elems := pr.Footer.GetSchema()
	if len(elems) < 2 {
		return s, errors.New("file has no columns")
	}
	names, err := columnNames(pr.Footer)
	if err != nil {
		return s, err
	}
	// elems[0] is the root group.
	leaves := elems[1:]
	if len(names) != len(leaves) {
		return s, fmt.Errorf("footer lists %d column names for %d columns", len(names), len(leaves))
	}
	for i, el := range leaves {
		name := names[i]
		if el.GetNumChildren() > 0 || el.Type == nil {
			return s, fmt.Errorf("nested column %q is not supported", name)
		}
		switch el.GetType() {
		case goparquet.Type_DOUBLE:
			s.Columns = append(s.Columns, domain.SchemaColumn{Name: name, Type: domain.TypeFloat})
		case goparquet.Type_BOOLEAN:
			s.Columns = append(s.Columns, domain.SchemaColumn{Name: name, Type: domain.TypeBool})
		default:
			return s, fmt.Errorf("column %q has unsupported type %s", name, el.GetType())
		}
	}
	return s, s.Validate()
}

func columnNames(footer *goparquet.FileMetaData) ([]string, error) {
	for _, kv := range footer.GetKeyValueMetadata() {
		if kv.GetKey() != columnsKey {
			continue
		}
		var names []string
		if err := json.Unmarshal([]byte(kv.GetValue()), &names); err != nil {
			return nil, fmt.Errorf("decode %s: %w", columnsKey, err)
		}
		return names, nil
	}
	return nil, fmt.Errorf("footer has no %s entry", columnsKey)
}

func toColumn(sc domain.SchemaColumn, values []interface{}, n int) (*table.Column, error) {
	if sc.Type == domain.TypeBool {
		c := table.NewBool(sc.Name, n)
		for i, v := range values {
			switch b := v.(type) {
			case nil:
				c.SetNull(i)
			case bool:
				c.SetBool(i, b)
			default:
				return nil, fmt.Errorf("column %s row %d: unexpected %T", sc.Name, i, v)
			}
		}
		return c, nil
	}
	c := table.NewFloat(sc.Name, n)
	for i, v := range values {
		switch f := v.(type) {
		case nil:
		case float64:
			c.SetFloat(i, f)
		default:
			return nil, fmt.Errorf("column %s row %d: unexpected %T", sc.Name, i, v)
		}
	}
	return c, nil
}
