// Package pipeline orchestrates one survey export run as a fixed sequence of
// steps: create the export job, poll it to completion, download the archive,
// extract the CSV payload, filter the metadata rows, and write the output
// file. Each step carries its own state and trace span; the first failure
// aborts the run and no partial output file is left behind.
package pipeline
