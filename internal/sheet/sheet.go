package sheet

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/leadmap/internal/types"

	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptySheet  = errors.New("empty spreadsheet")
	ErrNoDataRows  = errors.New("no data rows found")
	ErrUnsupported = errors.New("unsupported file type")
)

// AllowedTypes are the extensions ReadFileData understands.
var AllowedTypes = []string{".csv", ".xlsx"}

// ReadFileData reads the first sheet of a CSV or XLSX file. Row 0 is the
// header; data rows with no non-blank cell are dropped.
func ReadFileData(filePath string) (*types.FileData, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	var (
		records [][]string
		err     error
	)
	switch ext {
	case ".csv":
		records, err = readCSV(filePath)
	case ".xlsx":
		records, err = readXLSX(filePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, err
	}

	return fromRecords(records)
}

func fromRecords(records [][]string) (*types.FileData, error) {
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for _, r := range records[1:] {
		if !isBlank(r) {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	return &types.FileData{Headers: headers, Rows: rows}, nil
}

func readCSV(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	br := bufio.NewReader(file)
	// Spreadsheet apps prefix UTF-8 CSV exports with a byte order mark.
	if r, _, err := br.ReadRune(); err == nil && r != '\ufeff' {
		_ = br.UnreadRune()
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(filePath), err)
	}
	return records, nil
}

func readXLSX(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
