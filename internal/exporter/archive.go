package exporter

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	apperrors "qxcli/internal/errors"
)

// utf8BOM is the byte order mark Qualtrics prepends to CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExtractCSV decompresses an export archive and returns the raw bytes of its
// CSV payload with any UTF-8 BOM stripped. The platform packs exactly one CSV
// per archive; zero or multiple entries mean the download is not a usable
// export and yield an ARCHIVE error.
func ExtractCSV(archive []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, apperrors.NewArchiveError("cannot open export archive", err)
	}

	var entries []*zip.File
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			entries = append(entries, f)
		}
	}

	switch len(entries) {
	case 0:
		return nil, apperrors.NewArchiveError("export archive contains no CSV entry", nil)
	case 1:
	default:
		return nil, apperrors.NewArchiveError(
			fmt.Sprintf("export archive contains %d CSV entries, expected one", len(entries)), nil)
	}

	rc, err := entries[0].Open()
	if err != nil {
		return nil, apperrors.NewArchiveError("cannot open archive entry", err).
			WithContext("entry", entries[0].Name)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.NewArchiveError("cannot read archive entry", err).
			WithContext("entry", entries[0].Name)
	}

	return bytes.TrimPrefix(data, utf8BOM), nil
}
