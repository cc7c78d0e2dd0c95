// Mat helpers shared by the pixel algorithms
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// depth returns the element depth of a Mat type, dropping the channel bits.
func depth(m gocv.Mat) gocv.MatType {
	return m.Type() & 7
}

// ensureBGR returns a 3 channel view of input. The caller closes the result
// when its Ptr differs from input.
func ensureBGR(input gocv.Mat) (gocv.Mat, error) {
	switch input.Channels() {
	case 3:
		return input, nil
	case 1:
		bgr := gocv.NewMat()
		if err := gocv.CvtColor(input, &bgr, gocv.ColorGrayToBGR); err != nil {
			bgr.Close()
			return gocv.NewMat(), err
		}
		return bgr, nil
	case 4:
		bgr := gocv.NewMat()
		if err := gocv.CvtColor(input, &bgr, gocv.ColorBGRAToBGR); err != nil {
			bgr.Close()
			return gocv.NewMat(), err
		}
		return bgr, nil
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported number of channels: %d", input.Channels())
	}
}

func closeIfCopy(m, input gocv.Mat) {
	if m.Ptr() != input.Ptr() {
		m.Close()
	}
}

// unitScale is the factor mapping the depth of m onto [0, 1].
func unitScale(m gocv.Mat) float32 {
	switch depth(m) {
	case gocv.MatTypeCV8U:
		return 1.0 / 255
	case gocv.MatTypeCV16U:
		return 1.0 / 65535
	default:
		return 1
	}
}

// ToUint8 converts input to 8-bit unsigned with rounding and saturation.
func ToUint8(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if depth(input) == gocv.MatTypeCV8U {
		return input.Clone(), nil
	}

	output := gocv.NewMat()
	input.ConvertTo(&output, gocv.MatTypeCV8U)
	if output.Empty() {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("8-bit conversion failed")
	}
	return output, nil
}
