// Gradient based noise synthesis on the lightness plane
package algorithms

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrEmptyDistribution is returned when every pixel of a magnitude map was
// removed and no value is left to sample from.
var ErrEmptyDistribution = errors.New("empty pixel distribution")

// EdgeFilter implements the sobel based filter steps. The random source is
// shared by all fills and guarded by a mutex.
type EdgeFilter struct {
	mu  sync.Mutex
	src rand.Source
}

// NewEdgeFilter creates an edge filter drawing fill values from src. A nil
// src gets a randomly seeded PCG source.
func NewEdgeFilter(src rand.Source) *EdgeFilter {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &EdgeFilter{src: src}
}

func (e *EdgeFilter) Lightness(input gocv.Mat) (gocv.Mat, error) {
	return Lightness(input)
}

// SobelMagnitude returns the 8-bit Euclidean norm of the horizontal and
// vertical Sobel responses of a single channel image.
func (e *EdgeFilter) SobelMagnitude(input gocv.Mat, kernelSize int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if input.Channels() != 1 {
		return gocv.NewMat(), fmt.Errorf("sobel magnitude expects a single channel, got %d", input.Channels())
	}
	if kernelSize < 1 || kernelSize > 31 || kernelSize%2 == 0 {
		return gocv.NewMat(), fmt.Errorf("kernel size must be odd and between 1 and 31, got %d", kernelSize)
	}

	gradX := gocv.NewMat()
	defer gradX.Close()
	if err := gocv.Sobel(input, &gradX, gocv.MatTypeCV64F, 1, 0, kernelSize, 1, 0, gocv.BorderDefault); err != nil {
		return gocv.NewMat(), fmt.Errorf("horizontal sobel: %w", err)
	}

	gradY := gocv.NewMat()
	defer gradY.Close()
	if err := gocv.Sobel(input, &gradY, gocv.MatTypeCV64F, 0, 1, kernelSize, 1, 0, gocv.BorderDefault); err != nil {
		return gocv.NewMat(), fmt.Errorf("vertical sobel: %w", err)
	}

	magnitude := gocv.NewMat()
	defer magnitude.Close()
	if err := gocv.Magnitude(gradX, gradY, &magnitude); err != nil {
		return gocv.NewMat(), fmt.Errorf("gradient magnitude: %w", err)
	}

	return ToUint8(magnitude)
}

// RemovePixels zeroes every pixel strictly above limit.
func (e *EdgeFilter) RemovePixels(input gocv.Mat, limit int) (gocv.Mat, error) {
	data, err := grayBytes(input)
	if err != nil {
		return gocv.NewMat(), err
	}

	for i, v := range data {
		if int(v) > limit {
			data[i] = 0
		}
	}

	return gocv.NewMatFromBytes(input.Rows(), input.Cols(), gocv.MatTypeCV8U, data)
}

// FillFromDistribution replaces every zero pixel with a value sampled from
// the empirical distribution of the nonzero pixels. The distinct nonzero
// values are ranked in ascending order; a sampled rank r yields r plus the
// smallest nonzero value.
func (e *EdgeFilter) FillFromDistribution(input gocv.Mat) (gocv.Mat, error) {
	data, err := grayBytes(input)
	if err != nil {
		return gocv.NewMat(), err
	}

	weights, minValue := distribution(data)
	if len(weights) == 0 {
		return gocv.NewMat(), ErrEmptyDistribution
	}

	e.mu.Lock()
	sampler := distuv.NewCategorical(weights, e.src)
	for i, v := range data {
		if v == 0 {
			data[i] = uint8(int(sampler.Rand()) + minValue)
		}
	}
	e.mu.Unlock()

	return gocv.NewMatFromBytes(input.Rows(), input.Cols(), gocv.MatTypeCV8U, data)
}

// Normalize stretches input to the full [0, 255] range. A constant image
// maps to zero.
func (e *EdgeFilter) Normalize(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	output := gocv.NewMat()
	if err := gocv.Normalize(input, &output, 0, 255, gocv.NormMinMax); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("min-max normalization: %w", err)
	}
	if depth(output) != gocv.MatTypeCV8U {
		defer output.Close()
		return ToUint8(output)
	}
	return output, nil
}

// distribution counts the distinct nonzero values of data. It returns the
// counts ordered by value and the smallest nonzero value.
func distribution(data []uint8) ([]float64, int) {
	var counts [256]int
	for _, v := range data {
		counts[v]++
	}

	var weights []float64
	minValue := 0
	for v := 1; v < len(counts); v++ {
		if counts[v] == 0 {
			continue
		}
		if len(weights) == 0 {
			minValue = v
		}
		weights = append(weights, float64(counts[v]))
	}
	return weights, minValue
}

func grayBytes(input gocv.Mat) ([]uint8, error) {
	if input.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}
	if input.Channels() != 1 || depth(input) != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("expected a single channel 8-bit image, got type %v", input.Type())
	}

	// ToBytes may alias the Mat buffer
	src := input.ToBytes()
	data := make([]uint8, len(src))
	copy(data, src)
	return data, nil
}
