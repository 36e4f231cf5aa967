// Package parquet persists feature tables as Parquet files. The column order
// of a written table is the ModelSchema read back by prediction.
package parquet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goparquet "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// columnsKey is the footer key/value entry holding the ordered column names.
// Parquet schema element names are rewritten by the encoder, so names with
// spaces or accents ("estado_MATO GROSSO DO SUL") only survive through it.
const columnsKey = "firerisk.columns"

// WriteTable encodes t as a single SNAPPY-compressed Parquet stream. Float
// columns become optional DOUBLE, bool columns BOOLEAN. Equal tables produce
// equal bytes.
func WriteTable(w io.Writer, t *table.Table) (err error) {
	md, err := metadata(t)
	if err != nil {
		return err
	}

	pw, err := writer.NewCSVWriterFromWriter(md, w, 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = goparquet.CompressionCodec_SNAPPY

	names, err := json.Marshal(t.Names())
	if err != nil {
		return fmt.Errorf("encode column names: %w", err)
	}
	encoded := string(names)
	pw.Footer.KeyValueMetadata = append(pw.Footer.KeyValueMetadata,
		&goparquet.KeyValue{Key: columnsKey, Value: &encoded})

	cols := t.Columns()
	row := make([]interface{}, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			row[j] = cell(c, i)
		}
		if err := pw.Write(append([]interface{}(nil), row...)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	// WriteStop can panic on malformed pages.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("finalize parquet: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return nil
}

// WriteFile writes t to path, replacing any existing file only once the new
// content is complete.
func WriteFile(path string, t *table.Table) error {
	var buf bytes.Buffer
	if err := WriteTable(&buf, t); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*.parquet")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// metadata names leaves positionally; the real names live under columnsKey.
func metadata(t *table.Table) ([]string, error) {
	md := make([]string, 0, len(t.Columns()))
	for i, c := range t.Columns() {
		switch c.Kind() {
		case table.Float:
			md = append(md, fmt.Sprintf("name=c%04d, type=DOUBLE, repetitiontype=OPTIONAL", i))
		case table.Bool:
			md = append(md, fmt.Sprintf("name=c%04d, type=BOOLEAN, repetitiontype=OPTIONAL", i))
		default:
			return nil, fmt.Errorf("column %q of kind %s cannot be written to parquet", c.Name(), c.Kind())
		}
	}
	return md, nil
}

func cell(c *table.Column, i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	if c.Kind() == table.Bool {
		v, _ := c.Bool(i)
		return v
	}
	v, _ := c.Float(i)
	return v
}
