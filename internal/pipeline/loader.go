package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/csvfile"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/features"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// CSVFiles lists the .csv files directly under dir, sorted by name.
func CSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadFolder reads every CSV under dir and stacks them into one table, in
// file-name order. Every file is attempted; all failures are reported
// together and nothing is returned if any file fails.
func LoadFolder(dir string, withLabel bool) (*table.Table, error) {
	files, err := CSVFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no csv files in %s", domain.ErrNotFound, dir)
	}

	var (
		errs   *multierror.Error
		tables = make([]*table.Table, 0, len(files))
	)
	for _, f := range files {
		recs, err := csvfile.ReadFile(f, withLabel)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		tables = append(tables, features.FromRecords(recs, withLabel))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}
	return table.Concat(tables...)
}

// LoadDaily reads a single daily file without requiring risco_fogo.
func LoadDaily(path string) ([]domain.HotspotRecord, *table.Table, error) {
	recs, err := csvfile.ReadFile(path, false)
	if err != nil {
		return nil, nil, err
	}
	return recs, features.FromRecords(recs, false), nil
}
