// Package errors defines the coded error type used across gistsync.
//
// Every failure that crosses a package boundary carries an ErrorCode so tests
// and the poll loop can branch on it without string matching. Codes are also
// classified as retryable (a later poll cycle may succeed) or terminal.
package errors
