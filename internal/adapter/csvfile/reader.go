// Package csvfile reads and writes INPE daily hotspot CSV files.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
)

// Read parses a daily hotspot CSV. Every source column except risco_fogo must
// be present in the header; risco_fogo is required only when withLabel is
// set. Empty numeric cells become nil. Any malformed cell is reported as
// domain.ErrInputFormat with its line number.
func Read(r io.Reader, withLabel bool) ([]domain.HotspotRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInputFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", domain.ErrInputFormat, err)
	}
	idx, err := headerIndex(header, withLabel)
	if err != nil {
		return nil, err
	}

	var recs []domain.HotspotRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrInputFormat, line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, withLabel bool) ([]domain.HotspotRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := Read(f, withLabel)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return recs, nil
}

func headerIndex(header []string, withLabel bool) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		idx[h] = i
	}
	var missing []string
	for _, col := range domain.SourceColumns {
		if col == domain.ColFireRisk && !withLabel {
			continue
		}
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", domain.ErrInputFormat, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (domain.HotspotRecord, error) {
	p := rowParser{row: row, idx: idx}
	rec := domain.HotspotRecord{
		ID:              p.text(domain.ColID),
		Lat:             p.required(domain.ColLat),
		Lon:             p.required(domain.ColLon),
		Satellite:       p.text(domain.ColSatellite),
		Municipality:    p.text(domain.ColMunicipality),
		State:           p.text(domain.ColState),
		Country:         p.text(domain.ColCountry),
		MunicipalityID:  p.number(domain.ColMunicipalityID),
		StateID:         p.number(domain.ColStateID),
		CountryID:       p.number(domain.ColCountryID),
		DaysWithoutRain: p.number(domain.ColDaysWithoutRain),
		Precipitation:   p.number(domain.ColPrecipitation),
		FireRisk:        p.number(domain.ColFireRisk),
		Biome:           p.text(domain.ColBiome),
		FRP:             p.number(domain.ColFRP),
	}
	if ts := p.text(domain.ColTimestamp); ts != "" {
		t, err := domain.ParseTimestamp(ts)
		if err != nil {
			return rec, err
		}
		rec.ObservedAt = t
	} else if p.err == nil {
		p.err = fmt.Errorf("%w: empty %s", domain.ErrInputFormat, domain.ColTimestamp)
	}
	return rec, p.err
}

// rowParser reads cells by column name and keeps the first error.
type rowParser struct {
	row []string
	idx map[string]int
	err error
}

func (p *rowParser) text(col string) string {
	i, ok := p.idx[col]
	if !ok || i >= len(p.row) {
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) number(col string) *float64 {
	s := p.text(col)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("%w: %s=%q is not a number", domain.ErrInputFormat, col, s)
		}
		return nil
	}
	return &v
}

func (p *rowParser) required(col string) float64 {
	v := p.number(col)
	if v == nil {
		if p.err == nil {
			p.err = fmt.Errorf("%w: empty %s", domain.ErrInputFormat, col)
		}
		return 0
	}
	return *v
}
