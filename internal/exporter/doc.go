// Package exporter turns a downloaded Qualtrics export archive into a cleaned
// response file on disk.
//
// The stages mirror the shape of a raw export:
//
//	csv, err := exporter.ExtractCSV(archiveBytes)   // unzip the single CSV entry
//	rows, err := exporter.ParseTable(csv)           // parse delimited text
//	rows = exporter.DropMetadataRows(rows)          // remove the two label rows after the header
//	err = exporter.WriteTable("responses.csv", rows)
//
// WriteTable picks CSV or XLSX output from the destination extension. CSV
// output carries a UTF-8 BOM so Excel opens it with the right encoding.
package exporter
