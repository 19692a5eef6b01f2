package exporter

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "qxcli/internal/errors"
)

// xlsxSheetName is the single sheet cleaned responses are written to
const xlsxSheetName = "Responses"

// WriteXLSX serializes the table to destPath as a single-sheet workbook,
// overwriting any existing file.
func WriteXLSX(destPath string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheetName)
	if err != nil {
		return apperrors.NewStorageError("failed to create worksheet", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return apperrors.NewStorageError("failed to drop default worksheet", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.NewStorageError("failed to compute cell coordinates", err)
		}

		cells := make([]interface{}, len(row))
		for j, value := range row {
			cells[j] = value
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, &cells); err != nil {
			return apperrors.NewStorageError("failed to write worksheet row", err)
		}
	}

	if err := f.SaveAs(destPath); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).
			WithContext("path", destPath)
	}
	return nil
}
