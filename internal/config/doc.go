// Package config loads, normalizes, and validates tapedeck configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as TAPEDECK_LIBRARY_DIR.
// Always obtain settings through this package so downstream code receives
// sanitized paths and canonical log formats.
package config
