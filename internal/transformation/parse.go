package transformation

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse validates kind, param and size and returns the typed spec. Static
// and unrecognized kinds never look at size.
func Parse(kind, param, size string) (Spec, error) {
	var (
		params Params
		ints   []int
		err    error
	)

	switch Kind(kind) {
	case KindSVDReconstruction:
		if ints, err = parseInts(param, 2); err == nil {
			params = SVDReconstruction{Begin: ints[0], End: ints[1]}
		}
	case KindIPCAReconstruction:
		if ints, err = parseInts(param, 2); err == nil {
			params = IPCAReconstruction{Components: ints[0], BatchSize: ints[1]}
		}
	case KindFastICAReconstruction:
		if ints, err = parseInts(param, 1); err == nil {
			params = FastICAReconstruction{Components: ints[0]}
		}
	case KindMinDiffFilter:
		if ints, err = parseInts(param, 3); err == nil {
			params = MinDiffFilter{WindowWidth: ints[0], WindowHeight: ints[1], Stride: ints[2]}
		}
	case KindSobelBasedFilter:
		if ints, err = parseInts(param, 2); err == nil {
			params = SobelBasedFilter{KernelSize: ints[0], PixelLimit: ints[1]}
		}
	case KindNLMeanNoiseMask:
		if ints, err = parseInts(param, 2); err == nil {
			params = NLMeanNoiseMask{PatchSize: ints[0], PatchDistance: ints[1]}
		}
	case KindStatic:
		return Spec{Params: Static{ImageName: param}}, nil
	default:
		return Spec{Params: Unknown{Name: kind}}, nil
	}
	if err != nil {
		return Spec{}, fmt.Errorf("%s param %q: %w", kind, param, err)
	}

	parsedSize, err := ParseSize(size)
	if err != nil {
		return Spec{}, fmt.Errorf("%s size %q: %w", kind, size, err)
	}
	return Spec{Params: params, Size: parsedSize}, nil
}

// ParseSize reads a "height,width" pair.
func ParseSize(size string) (Size, error) {
	ints, err := parseInts(size, 2)
	if err != nil {
		return Size{}, fmt.Errorf("%w: %v", ErrMalformedSize, err)
	}
	return Size{Height: ints[0], Width: ints[1]}, nil
}

// parseInts splits s on commas and expects exactly n integer fields.
// Surrounding spaces are ignored.
func parseInts(s string, n int) ([]int, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("%w: expected %d comma separated integers, got %d fields", ErrMalformedParam, n, len(fields))
	}

	ints := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %v", ErrMalformedParam, i, err)
		}
		ints[i] = v
	}
	return ints, nil
}
