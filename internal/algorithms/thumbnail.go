package algorithms

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Thumbnailer shrinks images into a bounding box, keeping their aspect ratio.
type Thumbnailer struct {
	interpolation gocv.InterpolationFlags
}

// NewThumbnailer creates a thumbnailer using area interpolation
func NewThumbnailer() *Thumbnailer {
	return &Thumbnailer{interpolation: gocv.InterpolationArea}
}

// ThumbnailSize returns the dimensions of a width x height image shrunk to
// fit maxWidth x maxHeight. Images that already fit keep their size; no side
// drops below one pixel.
func ThumbnailSize(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	scale := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	newWidth := clampInt(int(math.Round(float64(width)*scale)), 1, maxWidth)
	newHeight := clampInt(int(math.Round(float64(height)*scale)), 1, maxHeight)
	return newWidth, newHeight
}

// Thumbnail returns a copy of input shrunk to fit maxWidth x maxHeight.
func (t *Thumbnailer) Thumbnail(input gocv.Mat, maxWidth, maxHeight int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid thumbnail bounds: %dx%d", maxWidth, maxHeight)
	}

	newWidth, newHeight := ThumbnailSize(input.Cols(), input.Rows(), maxWidth, maxHeight)
	if newWidth == input.Cols() && newHeight == input.Rows() {
		return input.Clone(), nil
	}

	output := gocv.NewMat()
	if err := gocv.Resize(input, &output, image.Point{X: newWidth, Y: newHeight}, 0, 0, t.interpolation); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("resize to %dx%d: %w", newWidth, newHeight, err)
	}
	return output, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
