// Package config handles configuration management for gistsync.
// It loads the embedded defaults, then an optional user file (TOML or
// YAML), then GISTSYNC_* environment variables, and produces an immutable
// Config that is passed explicitly to every component.
package config
