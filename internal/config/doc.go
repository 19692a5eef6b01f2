// Package config provides configuration loading for the Qualtrics export CLI.
//
// Configuration is assembled from three layers, in increasing precedence:
// built-in defaults, an optional config.yaml file, and environment variables
// with the QX prefix (e.g. QX_QUALTRICS_API_TOKEN, QX_EXPORT_OUTPUT_FILE).
//
// The credentials block (API token, datacenter, survey ID) is immutable for
// the lifetime of one run and is validated before any network call is made.
package config
