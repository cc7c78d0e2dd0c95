package transformation

import (
	"errors"

	"image-transformations/internal/algorithms"
)

var (
	// ErrMalformedParam is returned when a parameter string does not hold the
	// integer fields its kind expects.
	ErrMalformedParam = errors.New("malformed transformation parameter")

	// ErrMalformedSize is returned when a size string is not two integers.
	ErrMalformedSize = errors.New("malformed target size")

	// ErrUnsupportedKind is returned by Apply for unrecognized kinds.
	ErrUnsupportedKind = errors.New("unsupported transformation kind")

	// ErrApplyUnsupported is returned by Apply for kinds that only name a
	// storage path.
	ErrApplyUnsupported = errors.New("transformation cannot be applied")

	ErrEmptyDistribution = algorithms.ErrEmptyDistribution
)
