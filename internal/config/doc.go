// Package config loads, normalizes, and validates coverharvest configuration.
//
// It supplies defaults for the harvesting constants
// (genre allow-list, release cutoff, cover size, data paths), expands user
// paths including tilde shortcuts, reads TOML files, and honours environment
// fallbacks for remote credentials. A dotenv file next to the working
// directory is read first so SUPABASE_* values can live outside the TOML.
//
// Always obtain settings through this package so the orchestrator receives
// absolute paths, lower-cased genre lists, and clear validation errors.
package config
