package dirpack

import "errors"

// Sentinel errors for dirpack operations.
var (
	// ErrConfig is returned when the configuration is missing a required
	// field or contains an invalid value.
	ErrConfig = errors.New("dirpack: invalid configuration")

	// ErrUnknownFormat is returned when the configured archive format is
	// not one of the supported format names.
	ErrUnknownFormat = errors.New("dirpack: unsupported archive format")

	// ErrInvalidPattern is returned when an ignore rule cannot be compiled,
	// for example an unterminated character class.
	ErrInvalidPattern = errors.New("dirpack: invalid ignore pattern")

	// ErrCorruptArchive is returned when a container being read does not
	// have the expected magic or entry layout.
	ErrCorruptArchive = errors.New("dirpack: corrupt archive")

	// ErrUnsafePath is returned during extraction when an entry path would
	// escape the destination directory.
	ErrUnsafePath = errors.New("dirpack: entry path escapes destination")
)
