package reconstruction

import (
	"fmt"
	"math/rand/v2"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"image-transformations/internal/algorithms"
)

// Reconstructor rebuilds the lightness plane of an image with one of the
// decompositions. Results are single channel CV64F Mats of the input size.
type Reconstructor struct {
	seed uint64
}

// NewReconstructor creates a reconstructor whose FastICA fits start from seed.
func NewReconstructor(seed uint64) *Reconstructor {
	return &Reconstructor{seed: seed}
}

func (r *Reconstructor) SVD(input gocv.Mat, begin, end int) (gocv.Mat, error) {
	return r.rebuild(input, func(x *mat.Dense) (*mat.Dense, error) {
		return SVD(x, begin, end)
	})
}

func (r *Reconstructor) IPCA(input gocv.Mat, components, batchSize int) (gocv.Mat, error) {
	return r.rebuild(input, func(x *mat.Dense) (*mat.Dense, error) {
		return IPCA(x, components, batchSize)
	})
}

func (r *Reconstructor) FastICA(input gocv.Mat, components int) (gocv.Mat, error) {
	return r.rebuild(input, func(x *mat.Dense) (*mat.Dense, error) {
		return ICA(x, components, rand.NewPCG(r.seed, r.seed))
	})
}

func (r *Reconstructor) rebuild(input gocv.Mat, decompose func(*mat.Dense) (*mat.Dense, error)) (gocv.Mat, error) {
	x, err := lightnessMatrix(input)
	if err != nil {
		return gocv.NewMat(), err
	}

	out, err := decompose(x)
	if err != nil {
		return gocv.NewMat(), err
	}
	return MatFromDense(out), nil
}

// lightnessMatrix returns the 8-bit quantized L* plane of input.
func lightnessMatrix(input gocv.Mat) (*mat.Dense, error) {
	lightness, err := algorithms.Lightness(input)
	if err != nil {
		return nil, fmt.Errorf("lightness: %w", err)
	}
	defer lightness.Close()

	quantized, err := algorithms.ToUint8(lightness)
	if err != nil {
		return nil, err
	}
	defer quantized.Close()

	return DenseFromMat(quantized)
}
