package pkgconfig

// Config is the read surface the rest of the application depends on.
type Config interface {
	// GetInt returns the value for key as int64.
	GetInt(key string) int64
	// GetBool returns the value for key as bool.
	GetBool(key string) bool
	// GetString returns the value for key as string.
	GetString(key string) string
	// Set overrides the value for key in the live configuration.
	Set(key string, value any)
	// Unmarshal decodes the section at key into out.
	Unmarshal(key string, out any) error
	// Close releases any resources held by the implementation.
	Close() error
}
