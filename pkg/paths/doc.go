// Package paths provides centralized path handling for gistsync.
// It implements XDG Base Directory specification compliance for the
// config, state and data locations, and tilde expansion for user paths.
package paths
