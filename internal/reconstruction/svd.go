package reconstruction

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SVD rebuilds x from its singular components in [begin, end). end is
// clamped to the number of singular values.
func SVD(x mat.Matrix, begin, end int) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, fmt.Errorf("svd factorization failed")
	}

	values := svd.Values(nil)
	if end > len(values) {
		end = len(values)
	}
	if begin < 0 || begin >= end {
		return nil, fmt.Errorf("invalid component range [%d, %d) for %d singular values", begin, end, len(values))
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rows, cols := x.Dims()
	uk := u.Slice(0, rows, begin, end)
	vk := v.Slice(0, cols, begin, end)
	sigma := mat.NewDiagDense(end-begin, values[begin:end])

	var scaled, out mat.Dense
	scaled.Mul(uk, sigma)
	out.Mul(&scaled, vk.T())
	return &out, nil
}
