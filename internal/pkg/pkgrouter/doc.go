// Package pkgrouter wraps HTTP routing and common middleware used by the API.
//
// It provides a small router abstraction over httprouter plus shared concerns
// like JSON encoding, error mapping, logging, recovery, and correlation ID
// propagation. Handlers return a payload (encoded as-is) or an error; errors
// always render as {"error": "<message>"} with the status derived from the
// error's code.
package pkgrouter
