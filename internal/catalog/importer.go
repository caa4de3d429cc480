package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported catalog file format")

// ImportResult holds the result of an import operation.
type ImportResult struct {
	UnitsImported int
	CardsImported int
	Skipped       int
	Errors        []string
}

// XLSXConfig defines which sheet and columns hold the catalog.
type XLSXConfig struct {
	SheetName   string // Name of the sheet to import; empty means the first sheet
	UnitColumn  string // Column with the unit ID
	TitleColumn string // Column with the unit title
	KeyColumn   string // Column with the card key
	StartRow    int    // The row to start importing from (1-based index)
}

// DefaultXLSXConfig returns the default workbook layout: unit ID, title and
// card key in columns A to C with a header row.
func DefaultXLSXConfig() XLSXConfig {
	return XLSXConfig{
		UnitColumn:  "A",
		TitleColumn: "B",
		KeyColumn:   "C",
		StartRow:    2,
	}
}

// manifest is the YAML catalog document. A unit lists its keys explicitly or
// gives a phrase count, which expands to the keys "1".."n".
type manifest struct {
	Units []struct {
		ID      string   `yaml:"id"`
		Title   string   `yaml:"title"`
		Keys    []string `yaml:"keys"`
		Phrases int      `yaml:"phrases"`
	} `yaml:"units"`
}

// ParseYAML reads a YAML manifest into content units.
func ParseYAML(r io.Reader) ([]*domain.ContentUnit, error) {
	var doc manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []*domain.ContentUnit{}, nil
		}
		return nil, fmt.Errorf("failed to decode catalog manifest: %w", err)
	}

	units := make([]*domain.ContentUnit, 0, len(doc.Units))
	for i, u := range doc.Units {
		unit := &domain.ContentUnit{ID: strings.TrimSpace(u.ID), Title: u.Title, Keys: u.Keys}
		if len(unit.Keys) == 0 && u.Phrases > 0 {
			unit.Keys = make([]string, u.Phrases)
			for k := range unit.Keys {
				unit.Keys[k] = strconv.Itoa(k + 1)
			}
		}
		if unit.Keys == nil {
			unit.Keys = []string{}
		}
		if err := unit.Validate(); err != nil {
			return nil, fmt.Errorf("unit %d: %w", i+1, err)
		}
		units = append(units, unit)
	}
	return units, nil
}

// ParseXLSX reads content units from an Excel workbook. Rows are grouped by
// unit ID in order of first appearance; rows with a missing unit or key are
// reported in rowErrors and skipped.
func ParseXLSX(path string, cfg XLSXConfig) (units []*domain.ContentUnit, rowErrors []string, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}

	unitCol, err := columnIndex(cfg.UnitColumn)
	if err != nil {
		return nil, nil, err
	}
	titleCol, err := columnIndex(cfg.TitleColumn)
	if err != nil {
		return nil, nil, err
	}
	keyCol, err := columnIndex(cfg.KeyColumn)
	if err != nil {
		return nil, nil, err
	}

	byID := map[string]*domain.ContentUnit{}
	seenKey := map[string]map[string]bool{}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < cfg.StartRow {
			continue
		}

		unitID := strings.TrimSpace(cell(row, unitCol))
		key := strings.TrimSpace(cell(row, keyCol))
		if unitID == "" && key == "" {
			continue
		}
		if unitID == "" || key == "" {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: unit ID and card key are required", rowNum))
			continue
		}
		if err := (domain.CardID{UnitID: unitID, Key: key}).Validate(); err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		unit, ok := byID[unitID]
		if !ok {
			unit = &domain.ContentUnit{ID: unitID, Keys: []string{}}
			byID[unitID] = unit
			seenKey[unitID] = map[string]bool{}
			units = append(units, unit)
		}
		if title := strings.TrimSpace(cell(row, titleCol)); title != "" && unit.Title == "" {
			unit.Title = title
		}
		if seenKey[unitID][key] {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: duplicate card key %q in unit %s", rowNum, key, unitID))
			continue
		}
		seenKey[unitID][key] = true
		unit.Keys = append(unit.Keys, key)
	}

	if units == nil {
		units = []*domain.ContentUnit{}
	}
	return units, rowErrors, nil
}

func columnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", name, err)
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Importer loads catalog files into a CatalogStore.
type Importer struct {
	store  store.CatalogStore
	xlsx   XLSXConfig
	logger *slog.Logger
}

// NewImporter creates an importer writing to s.
func NewImporter(s store.CatalogStore, xlsx XLSXConfig, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:  s,
		xlsx:   xlsx,
		logger: logger.With(slog.String("component", "catalog_importer")),
	}
}

// ImportFile imports a .yaml, .yml or .xlsx catalog file. Units that fail to
// store are counted as skipped; the import continues with the next unit.
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	result := &ImportResult{Errors: make([]string, 0)}

	var units []*domain.ContentUnit
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog manifest: %w", err)
		}
		defer func() { _ = f.Close() }()
		if units, err = ParseYAML(f); err != nil {
			return nil, err
		}
	case ".xlsx":
		var rowErrors []string
		var err error
		units, rowErrors, err = ParseXLSX(path, im.xlsx)
		if err != nil {
			return nil, err
		}
		result.Errors = append(result.Errors, rowErrors...)
		result.Skipped += len(rowErrors)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := im.store.UpsertUnit(ctx, unit); err != nil {
			im.logger.Warn("failed to import content unit",
				slog.String("unit_id", unit.ID),
				slog.String("error", err.Error()))
			result.Errors = append(result.Errors, fmt.Sprintf("Unit %s: %v", unit.ID, err))
			result.Skipped++
			continue
		}
		result.UnitsImported++
		result.CardsImported += len(unit.Keys)
	}

	im.logger.Info("catalog import completed",
		slog.String("path", path),
		slog.Int("units", result.UnitsImported),
		slog.Int("cards", result.CardsImported),
		slog.Int("skipped", result.Skipped))
	return result, nil
}
