// Package filesystem provides the file and symlink operations gistsync
// performs on tracked files, on top of afero so tests can run against
// an in-memory filesystem.
package filesystem
