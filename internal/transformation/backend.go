package transformation

import (
	"gocv.io/x/gocv"

	"image-transformations/internal/algorithms"
	"image-transformations/internal/reconstruction"
)

// Reconstructor rebuilds an image from a subset of decomposition components.
// Results may be of any depth; Apply converts them to 8-bit.
type Reconstructor interface {
	SVD(input gocv.Mat, begin, end int) (gocv.Mat, error)
	IPCA(input gocv.Mat, components, batchSize int) (gocv.Mat, error)
	FastICA(input gocv.Mat, components int) (gocv.Mat, error)
}

// EdgeFilter provides the steps of the sobel based filter.
type EdgeFilter interface {
	Lightness(input gocv.Mat) (gocv.Mat, error)
	SobelMagnitude(input gocv.Mat, kernelSize int) (gocv.Mat, error)
	RemovePixels(input gocv.Mat, limit int) (gocv.Mat, error)
	FillFromDistribution(input gocv.Mat) (gocv.Mat, error)
	Normalize(input gocv.Mat) (gocv.Mat, error)
}

// NoiseMasker provides the steps of the non-local means noise mask.
type NoiseMasker interface {
	EstimateSigma(input gocv.Mat) (float64, error)
	Denoise(input gocv.Mat, h float64, patchSize, patchDistance int) (gocv.Mat, error)
	AbsDiff(a, b gocv.Mat) (gocv.Mat, error)
}

type Thumbnailer interface {
	Thumbnail(input gocv.Mat, maxWidth, maxHeight int) (gocv.Mat, error)
}

// Backend groups the collaborators a Selector delegates pixel work to.
type Backend struct {
	Reconstructor Reconstructor
	EdgeFilter    EdgeFilter
	NoiseMasker   NoiseMasker
	Thumbnailer   Thumbnailer
}

// DefaultBackend returns the gocv and gonum implementations.
func DefaultBackend() Backend {
	return Backend{
		Reconstructor: reconstruction.NewReconstructor(0),
		EdgeFilter:    algorithms.NewEdgeFilter(nil),
		NoiseMasker:   algorithms.NewNoiseMasker(),
		Thumbnailer:   algorithms.NewThumbnailer(),
	}
}
