package common

// Field limits enforced before any row is written.
const (
	MaxTitleLength   = 255
	MaxContentLength = 1_000_000
)
