// Package loop drives synchronization: a one-time bootstrap when no
// watermark exists, then a steady-state cycle repeated on a fixed interval.
//
// Each cycle checks the local files, offers a push, checks the remote and
// offers a pull. The first cycle after a bootstrap runs in skip mode so
// content that predates the bootstrap is never offered. The loop only ends
// when its context is cancelled.
package loop
