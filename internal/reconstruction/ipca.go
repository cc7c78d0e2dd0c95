package reconstruction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// IncrementalPCA fits a principal component basis one batch of rows at a
// time, updating the basis with the SVD of the previous components stacked
// on the new centered batch.
type IncrementalPCA struct {
	components int
	batchSize  int

	mean     []float64
	basis    *mat.Dense // components x features
	singular []float64
	seen     int
}

// NewIncrementalPCA creates an unfitted model keeping the given number of
// components. Each batch must hold at least that many rows.
func NewIncrementalPCA(components, batchSize int) (*IncrementalPCA, error) {
	if components < 1 {
		return nil, fmt.Errorf("number of components must be positive, got %d", components)
	}
	if batchSize < components {
		return nil, fmt.Errorf("batch size %d is smaller than the number of components %d", batchSize, components)
	}
	return &IncrementalPCA{components: components, batchSize: batchSize}, nil
}

// Fit consumes x in batches of batchSize rows. A trailing batch shorter than
// the number of components is merged into the one before it.
func (p *IncrementalPCA) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	if p.components > min(rows, cols) {
		return fmt.Errorf("number of components %d exceeds min(rows, cols) = %d", p.components, min(rows, cols))
	}

	for _, b := range batchBounds(rows, p.batchSize, p.components) {
		if err := p.partialFit(x.Slice(b[0], b[1], 0, cols)); err != nil {
			return fmt.Errorf("batch [%d, %d): %w", b[0], b[1], err)
		}
	}
	return nil
}

func (p *IncrementalPCA) partialFit(batch mat.Matrix) error {
	rows, cols := batch.Dims()
	batchMean := columnMeans(batch)
	centeredBatch := centered(batch, batchMean)

	stacked := centeredBatch
	if p.seen > 0 {
		k := len(p.singular)
		stacked = mat.NewDense(k+rows+1, cols, nil)
		for i := 0; i < k; i++ {
			for c := 0; c < cols; c++ {
				stacked.Set(i, c, p.singular[i]*p.basis.At(i, c))
			}
		}
		stacked.Slice(k, k+rows, 0, cols).(*mat.Dense).Copy(centeredBatch)

		n, m := float64(p.seen), float64(rows)
		correction := math.Sqrt(n * m / (n + m))
		for c := 0; c < cols; c++ {
			stacked.Set(k+rows, c, correction*(p.mean[c]-batchMean[c]))
		}
	}

	var svd mat.SVD
	if !svd.Factorize(stacked, mat.SVDThinV) {
		return fmt.Errorf("svd factorization failed")
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	k := min(p.components, len(values))
	p.basis = mat.DenseCopyOf(v.Slice(0, cols, 0, k).T())
	p.singular = values[:k]

	if p.seen == 0 {
		p.mean = batchMean
	} else {
		total := float64(p.seen + rows)
		for c := range p.mean {
			p.mean[c] = (float64(p.seen)*p.mean[c] + float64(rows)*batchMean[c]) / total
		}
	}
	p.seen += rows
	return nil
}

// Transform projects x onto the fitted basis.
func (p *IncrementalPCA) Transform(x mat.Matrix) (*mat.Dense, error) {
	if p.basis == nil {
		return nil, fmt.Errorf("model is not fitted")
	}
	if _, cols := x.Dims(); cols != len(p.mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(p.mean), cols)
	}

	var projected mat.Dense
	projected.Mul(centered(x, p.mean), p.basis.T())
	return &projected, nil
}

// InverseTransform maps projected coordinates back to feature space.
func (p *IncrementalPCA) InverseTransform(projected mat.Matrix) (*mat.Dense, error) {
	if p.basis == nil {
		return nil, fmt.Errorf("model is not fitted")
	}

	var out mat.Dense
	out.Mul(projected, p.basis)
	addColumns(&out, p.mean)
	return &out, nil
}

// IPCA fits an incremental PCA on x and returns x rebuilt from its
// projection.
func IPCA(x *mat.Dense, components, batchSize int) (*mat.Dense, error) {
	model, err := NewIncrementalPCA(components, batchSize)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(x); err != nil {
		return nil, err
	}
	projected, err := model.Transform(x)
	if err != nil {
		return nil, err
	}
	return model.InverseTransform(projected)
}

// batchBounds splits rows into [start, end) ranges of size batchSize,
// folding a final range shorter than minSize into its predecessor.
func batchBounds(rows, batchSize, minSize int) [][2]int {
	var bounds [][2]int
	for start := 0; start < rows; start += batchSize {
		end := min(start+batchSize, rows)
		if end-start < minSize && len(bounds) > 0 {
			bounds[len(bounds)-1][1] = end
			break
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}
