package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Lightness returns the L* plane of the CIE Lab representation of input as a
// single channel CV64F Mat with values in [0, 100]. Gray and BGRA inputs are
// promoted to BGR first.
func Lightness(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	bgr, err := ensureBGR(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer closeIfCopy(bgr, input)

	// Lab on float input keeps L* in its natural 0..100 range
	unit := gocv.NewMat()
	defer unit.Close()
	bgr.ConvertToWithParams(&unit, gocv.MatTypeCV32F, unitScale(bgr), 0)

	lab := gocv.NewMat()
	defer lab.Close()
	if err := gocv.CvtColor(unit, &lab, gocv.ColorBGRToLab); err != nil {
		return gocv.NewMat(), fmt.Errorf("lab conversion: %w", err)
	}

	planes := gocv.Split(lab)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()
	if len(planes) != 3 {
		return gocv.NewMat(), fmt.Errorf("lab conversion returned %d planes", len(planes))
	}

	output := gocv.NewMat()
	planes[0].ConvertTo(&output, gocv.MatTypeCV64F)
	return output, nil
}
