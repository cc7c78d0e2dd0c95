// Noise estimation and non-local means noise masks
package algorithms

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// NoiseMasker wraps the OpenCV non-local means denoiser.
type NoiseMasker struct{}

// NewNoiseMasker creates a new noise masker
func NewNoiseMasker() *NoiseMasker {
	return &NoiseMasker{}
}

// EstimateSigma returns the Gaussian noise standard deviation of input,
// averaged over its channels, in the units of its pixel values. Each channel
// uses Immerkaer's Laplacian difference estimator.
func (n *NoiseMasker) EstimateSigma(input gocv.Mat) (float64, error) {
	if input.Empty() {
		return 0, fmt.Errorf("input image is empty")
	}
	if input.Rows() < 3 || input.Cols() < 3 {
		return 0, fmt.Errorf("noise estimation needs at least 3x3 pixels, got %dx%d", input.Cols(), input.Rows())
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer kernel.Close()
	for y, row := range [3][3]float64{{1, -2, 1}, {-2, 4, -2}, {1, -2, 1}} {
		for x, v := range row {
			kernel.SetDoubleAt(y, x, v)
		}
	}

	planes := gocv.Split(input)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()

	sigmas := make([]float64, 0, len(planes))
	for _, plane := range planes {
		floatPlane := gocv.NewMat()
		plane.ConvertTo(&floatPlane, gocv.MatTypeCV64F)

		response := gocv.NewMat()
		err := gocv.Filter2D(floatPlane, &response, -1, kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderReflect101)
		floatPlane.Close()
		if err != nil {
			response.Close()
			return 0, fmt.Errorf("laplacian filter: %w", err)
		}

		sum := 0.0
		for y := 1; y < response.Rows()-1; y++ {
			for x := 1; x < response.Cols()-1; x++ {
				sum += math.Abs(response.GetDoubleAt(y, x))
			}
		}
		response.Close()

		w, h := float64(input.Cols()-2), float64(input.Rows()-2)
		sigmas = append(sigmas, sum*math.Sqrt(math.Pi/2)/(6*w*h))
	}

	return stat.Mean(sigmas, nil), nil
}

// Denoise runs non-local means with filter strength h. patchSize is the
// template window (rounded up to odd) and patchDistance the largest offset
// searched, giving a 2*patchDistance+1 search window.
func (n *NoiseMasker) Denoise(input gocv.Mat, h float64, patchSize, patchDistance int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if patchSize < 1 {
		return gocv.NewMat(), fmt.Errorf("patch size must be positive, got %d", patchSize)
	}
	if patchDistance < 0 {
		return gocv.NewMat(), fmt.Errorf("patch distance must not be negative, got %d", patchDistance)
	}

	if patchSize%2 == 0 {
		patchSize++
	}
	searchWindow := 2*patchDistance + 1

	working, err := ToUint8(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer working.Close()

	output := gocv.NewMat()
	switch working.Channels() {
	case 1:
		err = gocv.FastNlMeansDenoisingWithParams(working, &output, float32(h), patchSize, searchWindow)
	default:
		var bgr gocv.Mat
		bgr, err = ensureBGR(working)
		if err != nil {
			output.Close()
			return gocv.NewMat(), err
		}
		err = gocv.FastNlMeansDenoisingColoredWithParams(bgr, &output, float32(h), float32(h), patchSize, searchWindow)
		closeIfCopy(bgr, working)
	}
	if err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("non-local means denoising: %w", err)
	}

	if output.Empty() {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("non-local means denoising failed")
	}
	return output, nil
}

// AbsDiff returns |a - b| as an 8-bit image. Both inputs are brought to
// 8-bit, and to BGR when their channel counts differ.
func (n *NoiseMasker) AbsDiff(a, b gocv.Mat) (gocv.Mat, error) {
	if a.Empty() || b.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty images")
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return gocv.NewMat(), fmt.Errorf("image dimensions mismatch: %dx%d vs %dx%d", a.Cols(), a.Rows(), b.Cols(), b.Rows())
	}

	left, err := ToUint8(a)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer left.Close()
	right, err := ToUint8(b)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer right.Close()

	if left.Channels() == right.Channels() {
		return absDiff(left, right)
	}

	leftBGR, err := ensureBGR(left)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer closeIfCopy(leftBGR, left)
	rightBGR, err := ensureBGR(right)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer closeIfCopy(rightBGR, right)

	return absDiff(leftBGR, rightBGR)
}

func absDiff(a, b gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	if err := gocv.AbsDiff(a, b, &output); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("absolute difference: %w", err)
	}
	return output, nil
}
