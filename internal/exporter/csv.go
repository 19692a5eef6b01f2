package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	apperrors "qxcli/internal/errors"
)

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV serializes the table to destPath as delimited text, overwriting
// any existing file. The file handle is released on every exit path.
func WriteCSV(destPath string, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err)
	}

	file, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return apperrors.NewStorageError("failed to open output file", err).
			WithContext("path", destPath)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)
	for _, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError("failed to write record", err)
		}
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush output file", err)
	}
	return nil
}

// WriteTable writes the cleaned table to destPath, choosing the output format
// from the file extension: .xlsx produces a workbook, everything else CSV.
func WriteTable(destPath string, rows [][]string) error {
	if strings.EqualFold(filepath.Ext(destPath), ".xlsx") {
		return WriteXLSX(destPath, rows)
	}
	return WriteCSV(destPath, WriteOptions{Records: rows, BOMPrefix: true})
}
