package pipeline

import "errors"

var (
	// ErrFileNotFound is returned when an input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidExtension is returned when an input file has the wrong extension.
	ErrInvalidExtension = errors.New("invalid file extension")

	// ErrNotAPath is returned when a path is neither a file nor a directory.
	ErrNotAPath = errors.New("not a file or directory")

	// ErrAlreadyScaled is returned for inputs that are themselves outputs.
	ErrAlreadyScaled = errors.New("image already has a scale bar")
)
