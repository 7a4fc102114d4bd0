// Package pkgroutine manages background goroutines with a concurrency limit.
//
// The application uses a single Manager so shutdown can wait for everything
// that is still running (for example a pending snapshot flush).
package pkgroutine
