package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/leadmap/internal/mapper"
	"github.com/nconklindev/leadmap/internal/types"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Leads"

var ErrOverwriteInput = errors.New("output would overwrite the input file")

// OutputPath places the export next to input: march.xlsx with ".csv" gives march_leads.csv.
func OutputPath(input, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_leads" + ext
}

// Export writes leads to outputFile, choosing the format from its extension.
func Export(inputFile, outputFile string, leads []types.Lead, progressChan chan<- float64) (*types.ExportResult, error) {
	if sameFile(inputFile, outputFile) {
		return nil, fmt.Errorf("%w: %s", ErrOverwriteInput, outputFile)
	}

	switch ext := strings.ToLower(filepath.Ext(outputFile)); ext {
	case ".csv":
		return ExportCSV(inputFile, outputFile, leads, progressChan)
	case ".xlsx":
		return ExportXLSX(inputFile, outputFile, leads, progressChan)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func headerRow() []string {
	fields := mapper.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label()
	}
	return out
}

func leadRow(l types.Lead) []string {
	fields := mapper.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = mapper.Value(l, f)
	}
	return out
}

func reportProgress(progressChan chan<- float64, current, total int) {
	if progressChan == nil || total == 0 {
		return
	}
	select {
	case progressChan <- float64(current) / float64(total):
	default:
	}
}

// ExportCSV writes the normalized leads as CSV.
func ExportCSV(inputFile, outputFile string, leads []types.Lead, progressChan chan<- float64) (*types.ExportResult, error) {
	outFile, err := os.Create(outputFile)
	if err != nil {
		return nil, err
	}
	if err := writeCSV(outFile, leads, progressChan); err != nil {
		outFile.Close()
		return nil, err
	}
	if err := outFile.Close(); err != nil {
		return nil, err
	}

	return &types.ExportResult{
		InputFile:    inputFile,
		OutputFile:   outputFile,
		LeadsWritten: len(leads),
	}, nil
}

func writeCSV(w io.Writer, leads []types.Lead, progressChan chan<- float64) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(headerRow()); err != nil {
		return err
	}
	for i, l := range leads {
		if err := writer.Write(leadRow(l)); err != nil {
			return err
		}
		reportProgress(progressChan, i+1, len(leads))
	}
	writer.Flush()
	return writer.Error()
}

// ExportXLSX writes the normalized leads to a single "Leads" sheet.
func ExportXLSX(inputFile, outputFile string, leads []types.Lead, progressChan chan<- float64) (*types.ExportResult, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, err
	}

	header := headerRow()
	if err := setRow(f, 1, header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return nil, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "A", lastCol, 24); err != nil {
		return nil, err
	}

	for i, l := range leads {
		if err := setRow(f, i+2, leadRow(l)); err != nil {
			return nil, err
		}
		reportProgress(progressChan, i+1, len(leads))
	}

	if err := f.SaveAs(outputFile); err != nil {
		return nil, err
	}

	return &types.ExportResult{
		InputFile:    inputFile,
		OutputFile:   outputFile,
		LeadsWritten: len(leads),
	}, nil
}

func setRow(f *excelize.File, rowIdx int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(exportSheet, cell, &row)
}
