package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Input-shape errors. Any of these aborts ingestion without touching the
// previously loaded record set.
var (
	ErrNoHeader = errors.New("missing header row")
	ErrNoData   = errors.New("no data rows")
)

// Workbook wraps an uploaded spreadsheet file. Row 1 is the header row, rows
// 2+ are data; no other structure is assumed.
type Workbook struct {
	file   *excelize.File
	fileID string
}

// OpenWorkbook loads a spreadsheet from the uploaded stream.
func OpenWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{file: f, fileID: uuid.New().String()}, nil
}

// FileID identifies this upload for logging and event payloads.
func (w *Workbook) FileID() string {
	return w.fileID
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// FirstSheet returns the name of the first sheet, where the export lives.
func (w *Workbook) FirstSheet() (string, error) {
	sheets := w.file.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrNoHeader
	}
	return sheets[0], nil
}

// HeaderRow returns row 1 of the sheet.
func (w *Workbook) HeaderRow(sheet string) ([]string, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 || isEmptyRow(rows[0]) {
		return nil, ErrNoHeader
	}
	return rows[0], nil
}

// DataRows returns rows 2+ of the sheet.
func (w *Workbook) DataRows(sheet string) ([][]string, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	if len(rows) <= 1 {
		return nil, ErrNoData
	}
	return rows[1:], nil
}
