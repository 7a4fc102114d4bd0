// Package pkgerror defines shared error types used across the application.
//
// It helps keep error handling consistent by:
//   - Providing a structured Error type that carries a user-facing message,
//     a high-level type, and a stable code.
//   - Mapping codes to HTTP status codes at the edge (handlers), so routing
//     code never hand-picks status numbers.
package pkgerror
