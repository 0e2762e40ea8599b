/*
Package config loads and validates the broker's YAML configuration file.

The file carries process-level settings (log level, data directory, metrics
listen address, status refresh interval) and the list of managed server
configurations. Validation rejects duplicate names, unknown broker kinds and
missing connection fields before any broker is constructed.
*/
package config
