// Quality metrics comparing a transformation output with its source
package metrics

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"

	"image-transformations/internal/algorithms"
)

// Metric defines the interface for quality metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(original, processed gocv.Mat) (float64, error)

	GetName() string

	// IsHigherBetter returns true if higher values indicate better quality
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.Register("mse", NewMSE())
	e.Register("psnr", NewPSNR())
	return e
}

func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names, sorted.
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Evaluator) Calculate(name string, original, processed gocv.Mat) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(original, processed)
}

// CalculateAll calculates all registered metrics, skipping failures
func (e *Evaluator) CalculateAll(original, processed gocv.Mat) map[string]float64 {
	results := make(map[string]float64)
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(original, processed); err == nil {
			results[name] = value
		}
	}
	return results
}

// Reference resizes source to the size of output so the two can be
// compared pixel by pixel. Single channel outputs are compared with the 8-bit
// L* plane of source, color outputs with source itself.
func Reference(source, output gocv.Mat) (gocv.Mat, error) {
	if source.Empty() || output.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty images")
	}

	var base gocv.Mat
	switch {
	case output.Channels() == 1:
		lightness, err := algorithms.Lightness(source)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("reference lightness: %w", err)
		}
		base, err = algorithms.ToUint8(lightness)
		lightness.Close()
		if err != nil {
			return gocv.NewMat(), err
		}
	case output.Channels() == source.Channels():
		base = source.Clone()
	default:
		return gocv.NewMat(), fmt.Errorf("cannot match %d channels to %d", source.Channels(), output.Channels())
	}
	defer base.Close()

	resized := gocv.NewMat()
	if err := gocv.Resize(base, &resized, image.Point{X: output.Cols(), Y: output.Rows()}, 0, 0, gocv.InterpolationArea); err != nil {
		resized.Close()
		return gocv.NewMat(), fmt.Errorf("reference resize: %w", err)
	}
	return resized, nil
}

func ensureGrayscale(input gocv.Mat) (gocv.Mat, error) {
	if input.Channels() == 1 {
		return input, nil
	}

	code := gocv.ColorBGRToGray
	if input.Channels() == 4 {
		code = gocv.ColorBGRAToGray
	}
	gray := gocv.NewMat()
	if err := gocv.CvtColor(input, &gray, code); err != nil {
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("grayscale conversion: %w", err)
	}
	return gray, nil
}
