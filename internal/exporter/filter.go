package exporter

import (
	"bytes"
	"encoding/csv"
	"strings"

	apperrors "qxcli/internal/errors"
)

// metadataRowCount is the number of auxiliary label rows Qualtrics emits
// directly after the header of a raw export.
const metadataRowCount = 2

// ParseTable parses raw bytes as delimited text into a table of rows.
// Exports may have ragged rows (the footer lines are single-cell), so the
// reader accepts variable field counts. Unbalanced quoting is a PARSING error.
func ParseTable(raw []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("malformed delimited text", err)
	}

	return rows, nil
}

// DropMetadataRows applies the cleaning policy: the first non-empty row is the
// header and is kept; the two rows that follow it are metadata labels and are
// dropped when present; trailing {"ImportId":...} footer rows are dropped; all
// remaining rows are kept in order. Tables too short to carry metadata rows
// pass through with only the rows that exist removed, never an error.
func DropMetadataRows(rows [][]string) [][]string {
	headerIdx := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return rows
	}

	filtered := make([][]string, 0, len(rows))
	for i, row := range rows {
		if i > headerIdx && i <= headerIdx+metadataRowCount {
			continue
		}
		if isImportFooter(row) {
			continue
		}
		filtered = append(filtered, row)
	}

	return filtered
}

// isEmptyRow reports whether every cell is blank
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isImportFooter detects the {"ImportId":"finished"} style footer lines
// Qualtrics appends below the response data.
func isImportFooter(row []string) bool {
	joined := strings.TrimSpace(strings.Join(row, " "))
	return strings.HasPrefix(joined, "{") && strings.Contains(joined, "ImportId")
}
