package domain

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrImageDecode      = errors.New("image could not be decoded")
	ErrNoStructuredData = errors.New("no structured data in model response")
	ErrMissingFileParam = errors.New("missing file parameter")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrInvalidRecord    = errors.New("record does not match expected format")
	ErrNotComplete      = errors.New("upload has not completed processing")
)
