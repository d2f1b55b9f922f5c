package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the loader. They are
// the only failures, besides writing the output file, that make a run exit
// with a non-zero status; everything else degrades a single section.
var (
	// ErrInvalidProjectRoot is returned when the project root does not exist
	// or is not a directory.
	ErrInvalidProjectRoot = errors.New("invalid project root: must be an existing directory")

	// ErrEmptyOutput is returned when the output path is empty.
	ErrEmptyOutput = errors.New("invalid output: path must not be empty")

	// ErrUnknownFormat is returned for formats other than json and markdown.
	ErrUnknownFormat = errors.New("unknown output format: use json or markdown")

	// ErrInvalidTimeout is returned when the artisan timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConnectTimeout is returned when the database connect timeout
	// is not positive.
	ErrInvalidConnectTimeout = errors.New("invalid connect timeout: must be positive")

	// ErrUnknownSection is returned when the config file disables a section
	// that does not exist.
	ErrUnknownSection = errors.New("unknown section")

	// ErrInvalidConnection is returned when a configured database connection
	// is missing its name or driver.
	ErrInvalidConnection = errors.New("invalid database connection")

	// ErrConfigNotFound is returned when an explicitly requested
	// configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
