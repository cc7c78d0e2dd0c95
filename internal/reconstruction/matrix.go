// Package reconstruction rebuilds images from a reduced set of decomposition
// components. Images are handled as row-major matrices, one sample per row.
package reconstruction

import (
	"fmt"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// DenseFromMat copies a single channel 8-bit or 64-bit float Mat into a
// rows x cols matrix.
func DenseFromMat(m gocv.Mat) (*mat.Dense, error) {
	if m.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}
	if m.Channels() != 1 {
		return nil, fmt.Errorf("expected a single channel image, got %d channels", m.Channels())
	}

	rows, cols := m.Rows(), m.Cols()
	out := mat.NewDense(rows, cols, nil)
	switch m.Type() {
	case gocv.MatTypeCV8U:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				out.Set(y, x, float64(m.GetUCharAt(y, x)))
			}
		}
	case gocv.MatTypeCV64F:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				out.Set(y, x, m.GetDoubleAt(y, x))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported mat type: %v", m.Type())
	}
	return out, nil
}

// MatFromDense copies d into a new single channel CV64F Mat.
func MatFromDense(d mat.Matrix) gocv.Mat {
	rows, cols := d.Dims()
	out := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			out.SetDoubleAt(y, x, d.At(y, x))
		}
	}
	return out
}

// columnMeans returns the mean of every column of x.
func columnMeans(x mat.Matrix) []float64 {
	rows, cols := x.Dims()
	means := make([]float64, cols)
	for y := 0; y < rows; y++ {
		for c := 0; c < cols; c++ {
			means[c] += x.At(y, c)
		}
	}
	for c := range means {
		means[c] /= float64(rows)
	}
	return means
}

// centered returns x with offsets subtracted from each column.
func centered(x mat.Matrix, offsets []float64) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, c int, v float64) float64 {
		return v - offsets[c]
	}, x)
	return out
}

// addColumns adds offsets to each column of x in place.
func addColumns(x *mat.Dense, offsets []float64) {
	x.Apply(func(_, c int, v float64) float64 {
		return v + offsets[c]
	}, x)
}
