package reconstruction

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	icaMaxIterations = 200
	icaTolerance     = 1e-4
)

// FastICA estimates independent components with the symmetric fixed point
// algorithm and the logcosh contrast, on PCA whitened data.
type FastICA struct {
	components int
	rnd        *rand.Rand

	mean      []float64
	unmixing  *mat.Dense // components x features
	mixing    *mat.Dense // features x components
	converged bool
}

// NewFastICA creates an unfitted model. src seeds the initial unmixing
// matrix; a nil src uses a fixed seed so fits are reproducible.
func NewFastICA(components int, src rand.Source) (*FastICA, error) {
	if components < 1 {
		return nil, fmt.Errorf("number of components must be positive, got %d", components)
	}
	if src == nil {
		src = rand.NewPCG(1, 2)
	}
	return &FastICA{components: components, rnd: rand.New(src)}, nil
}

// Converged reports whether the last Fit reached the tolerance before the
// iteration limit.
func (f *FastICA) Converged() bool {
	return f.converged
}

// Fit estimates the unmixing matrix of x, one sample per row.
func (f *FastICA) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	n := f.components
	if n > min(rows, cols) {
		return fmt.Errorf("number of components %d exceeds min(rows, cols) = %d", n, min(rows, cols))
	}

	f.mean = columnMeans(x)
	xc := centered(x, f.mean)

	var svd mat.SVD
	if !svd.Factorize(xc, mat.SVDThinV) {
		return fmt.Errorf("svd factorization failed")
	}
	values := svd.Values(nil)
	if values[n-1] <= values[0]*1e-12 {
		return fmt.Errorf("number of components %d exceeds the rank of the data", n)
	}
	var v mat.Dense
	svd.VTo(&v)

	// whitening maps centered samples to unit covariance: features x n
	whitening := mat.DenseCopyOf(v.Slice(0, cols, 0, n))
	whitening.Apply(func(_, j int, w float64) float64 {
		return w * math.Sqrt(float64(rows)) / values[j]
	}, whitening)

	var white mat.Dense
	white.Mul(xc, whitening)

	w := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w.Set(i, j, f.rnd.NormFloat64())
		}
	}
	w, err := decorrelate(w)
	if err != nil {
		return err
	}

	f.converged = false
	for iter := 0; iter < icaMaxIterations; iter++ {
		next, err := f.step(&white, w)
		if err != nil {
			return err
		}

		var cross mat.Dense
		cross.Mul(next, w.T())
		limit := 0.0
		for i := 0; i < n; i++ {
			limit = math.Max(limit, math.Abs(math.Abs(cross.At(i, i))-1))
		}
		w = next
		if limit < icaTolerance {
			f.converged = true
			break
		}
	}

	f.unmixing = &mat.Dense{}
	f.unmixing.Mul(w, whitening.T())

	// mixing is the pseudo-inverse of the full row rank unmixing matrix
	var gram, gramInv mat.Dense
	gram.Mul(f.unmixing, f.unmixing.T())
	if err := gramInv.Inverse(&gram); err != nil {
		return fmt.Errorf("mixing matrix: %w", err)
	}
	f.mixing = &mat.Dense{}
	f.mixing.Mul(f.unmixing.T(), &gramInv)
	return nil
}

// step performs one symmetric fixed point update:
// W+ = E[g(WX) X] - diag(E[g'(WX)]) W, then decorrelates W+.
func (f *FastICA) step(white *mat.Dense, w *mat.Dense) (*mat.Dense, error) {
	rows, _ := white.Dims()
	n, _ := w.Dims()

	var y mat.Dense
	y.Mul(white, w.T())

	derivMeans := make([]float64, n)
	y.Apply(func(_, j int, v float64) float64 {
		t := math.Tanh(v)
		derivMeans[j] += 1 - t*t
		return t
	}, &y)

	var next mat.Dense
	next.Mul(y.T(), white)
	next.Scale(1/float64(rows), &next)
	for i := 0; i < n; i++ {
		g := derivMeans[i] / float64(rows)
		for j := 0; j < n; j++ {
			next.Set(i, j, next.At(i, j)-g*w.At(i, j))
		}
	}
	return decorrelate(&next)
}

// Transform returns the independent sources of x.
func (f *FastICA) Transform(x mat.Matrix) (*mat.Dense, error) {
	if f.unmixing == nil {
		return nil, fmt.Errorf("model is not fitted")
	}
	if _, cols := x.Dims(); cols != len(f.mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(f.mean), cols)
	}

	var sources mat.Dense
	sources.Mul(centered(x, f.mean), f.unmixing.T())
	return &sources, nil
}

// InverseTransform mixes sources back into feature space.
func (f *FastICA) InverseTransform(sources mat.Matrix) (*mat.Dense, error) {
	if f.mixing == nil {
		return nil, fmt.Errorf("model is not fitted")
	}

	var out mat.Dense
	out.Mul(sources, f.mixing.T())
	addColumns(&out, f.mean)
	return &out, nil
}

// ICA fits FastICA on x and returns x rebuilt from its sources.
func ICA(x *mat.Dense, components int, src rand.Source) (*mat.Dense, error) {
	model, err := NewFastICA(components, src)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(x); err != nil {
		return nil, err
	}
	sources, err := model.Transform(x)
	if err != nil {
		return nil, err
	}
	return model.InverseTransform(sources)
}

// decorrelate returns (W W^T)^(-1/2) W.
func decorrelate(w *mat.Dense) (*mat.Dense, error) {
	n, _ := w.Dims()

	var gram mat.Dense
	gram.Mul(w, w.T())
	var eig mat.EigenSym
	if !eig.Factorize(mat.NewSymDense(n, gram.RawMatrix().Data), true) {
		return nil, fmt.Errorf("eigen decomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	invSqrt := make([]float64, n)
	for i, v := range values {
		if v <= 0 {
			return nil, fmt.Errorf("unmixing matrix is singular")
		}
		invSqrt[i] = 1 / math.Sqrt(v)
	}

	var scaled, root, out mat.Dense
	scaled.Mul(&vectors, mat.NewDiagDense(n, invSqrt))
	root.Mul(&scaled, vectors.T())
	out.Mul(&root, w)
	return &out, nil
}
