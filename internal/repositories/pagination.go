package repositories

// Page bounds shared by every list operation. Overridden at startup from
// config via SetPageBounds.
var (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// SetPageBounds installs the configured page bounds. Non-positive values keep
// the built-in defaults. Called once at startup, before requests are served.
func SetPageBounds(def, max int) {
	if def > 0 {
		DefaultPageSize = def
	}
	if max > 0 {
		MaxPageSize = max
	}
}

// ClampLimit normalizes a caller-supplied page size. Non-positive values fall
// back to the default; oversized values are capped.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ClampSkip normalizes a caller-supplied offset.
func ClampSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}
