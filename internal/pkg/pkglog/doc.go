// Package pkglog configures structured logging for the application.
//
// It sets up a JSON slog handler with normalized field names and attaches
// request-scoped attributes (such as the correlation ID) from the context.
package pkglog
