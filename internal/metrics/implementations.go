package metrics

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// MSE implements Mean Squared Error on the grayscale images
type MSE struct{}

// NewMSE creates a new MSE metric
func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed gocv.Mat) (float64, error) {
	if original.Empty() || processed.Empty() {
		return 0, fmt.Errorf("empty images")
	}
	if original.Rows() != processed.Rows() || original.Cols() != processed.Cols() {
		return 0, fmt.Errorf("image dimensions mismatch")
	}

	gray1, err := ensureGrayscale(original)
	if err != nil {
		return 0, err
	}
	defer func() {
		if gray1.Ptr() != original.Ptr() {
			gray1.Close()
		}
	}()

	gray2, err := ensureGrayscale(processed)
	if err != nil {
		return 0, err
	}
	defer func() {
		if gray2.Ptr() != processed.Ptr() {
			gray2.Close()
		}
	}()

	squared := make([]float64, 0, gray1.Rows()*gray1.Cols())
	for y := 0; y < gray1.Rows(); y++ {
		for x := 0; x < gray1.Cols(); x++ {
			diff := float64(gray1.GetUCharAt(y, x)) - float64(gray2.GetUCharAt(y, x))
			squared = append(squared, diff*diff)
		}
	}

	return stat.Mean(squared, nil), nil
}

func (m *MSE) GetName() string {
	return "MSE"
}

func (m *MSE) IsHigherBetter() bool {
	return false
}

// PSNR implements Peak Signal-to-Noise Ratio for 8-bit images
type PSNR struct {
	mse *MSE
}

// NewPSNR creates a new PSNR metric
func NewPSNR() *PSNR {
	return &PSNR{mse: NewMSE()}
}

func (p *PSNR) Calculate(original, processed gocv.Mat) (float64, error) {
	mse, err := p.mse.Calculate(original, processed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}

	return 20 * math.Log10(255/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) IsHigherBetter() bool {
	return true
}
