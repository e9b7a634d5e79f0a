package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"portfolioreport/internal/domain"
	"portfolioreport/pkg/sheets"

	"github.com/gocarina/gocsv"
)

// PortfolioRepository yields the ordered portfolio rows for a run.
type PortfolioRepository interface {
	ListRecords(ctx context.Context) ([]domain.PortfolioRecord, error)
}

type SheetsValuesGetter interface {
	GetValues(ctx context.Context, spreadsheetID string, readRange string) ([][]string, error)
}

type sheetsPortfolioRepositoryHandler struct {
	Client        SheetsValuesGetter
	SpreadsheetID string
	Worksheet     string
}

func NewSheetsPortfolioRepository(client SheetsValuesGetter, spreadsheetID, worksheet string) PortfolioRepository {
	return sheetsPortfolioRepositoryHandler{
		Client:        client,
		SpreadsheetID: spreadsheetID,
		Worksheet:     worksheet,
	}
}

func (h sheetsPortfolioRepositoryHandler) ListRecords(ctx context.Context) ([]domain.PortfolioRecord, error) {
	rows, err := h.Client.GetValues(ctx, h.SpreadsheetID, h.Worksheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", h.Worksheet, err)
	}
	return recordsFromRows(rows)
}

var _ SheetsValuesGetter = sheets.Client{}

type csvPortfolioRepositoryHandler struct {
	Path string
}

// NewCsvPortfolioRepository reads a sheet exported as CSV, handy for local
// runs without google credentials.
func NewCsvPortfolioRepository(path string) PortfolioRepository {
	return csvPortfolioRepositoryHandler{
		Path: path,
	}
}

func (h csvPortfolioRepositoryHandler) ListRecords(ctx context.Context) ([]domain.PortfolioRecord, error) {
	f, err := os.Open(h.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", h.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", h.Path, err)
	}

	return recordsFromRows(rows)
}

// recordsFromRows maps a header row plus data rows onto records. Fully
// blank rows are dropped, short rows are padded.
func recordsFromRows(rows [][]string) ([]domain.PortfolioRecord, error) {
	if len(rows) == 0 {
		return []domain.PortfolioRecord{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	normalized := [][]string{header}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		padded := make([]string, len(header))
		copy(padded, row)
		normalized = append(normalized, padded)
	}
	if len(normalized) == 1 {
		return []domain.PortfolioRecord{}, nil
	}

	records := []domain.PortfolioRecord{}
	if err := gocsv.UnmarshalCSV(&rowsReader{rows: normalized}, &records); err != nil {
		return nil, fmt.Errorf("failed to map portfolio rows: %w", err)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// rowsReader feeds already split rows to gocsv.
type rowsReader struct {
	rows [][]string
	pos  int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}
