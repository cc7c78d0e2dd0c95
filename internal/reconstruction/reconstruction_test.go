package reconstruction

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

func randomMatrix(rows, cols int, seed uint64) *mat.Dense {
	rnd := rand.New(rand.NewPCG(seed, seed))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(rnd.IntN(101))
	}
	return mat.NewDense(rows, cols, data)
}

// lowRank returns a rows x cols matrix of rank r. Its centered form has rank
// at most r as well.
func lowRank(rows, cols, r int, seed uint64) *mat.Dense {
	var out mat.Dense
	out.Mul(randomMatrix(rows, r, seed), randomMatrix(r, cols, seed+1))
	out.Scale(0.01, &out)
	return &out
}

func TestSVDFullRangeReproducesInput(t *testing.T) {
	x := randomMatrix(12, 9, 1)

	out, err := SVD(x, 0, 100)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(x, out, 1e-8))
}

func TestSVDSplitsIntoComponents(t *testing.T) {
	x := randomMatrix(10, 8, 2)

	head, err := SVD(x, 0, 3)
	require.NoError(t, err)
	tail, err := SVD(x, 3, 8)
	require.NoError(t, err)

	var sum mat.Dense
	sum.Add(head, tail)
	assert.True(t, mat.EqualApprox(x, &sum, 1e-8))
}

func TestSVDInvalidRange(t *testing.T) {
	x := randomMatrix(5, 5, 3)

	for _, r := range [][2]int{{3, 3}, {4, 2}, {-1, 2}, {5, 10}} {
		_, err := SVD(x, r[0], r[1])
		assert.Error(t, err, "range %v", r)
	}
}

func TestBatchBounds(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 10}, {10, 20}, {20, 25}}, batchBounds(25, 10, 5))
	assert.Equal(t, [][2]int{{0, 10}, {10, 23}}, batchBounds(23, 10, 5))
	assert.Equal(t, [][2]int{{0, 7}}, batchBounds(7, 10, 5))
}

func TestIPCAFullComponentsReproducesInput(t *testing.T) {
	x := randomMatrix(40, 8, 4)

	out, err := IPCA(x, 8, 10)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(x, out, 1e-6))
}

func TestIPCARecoversLowRankData(t *testing.T) {
	x := lowRank(60, 12, 3, 5)

	out, err := IPCA(x, 4, 15)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(x, out, 1e-6))
}

func TestIPCAValidation(t *testing.T) {
	x := randomMatrix(20, 6, 6)

	_, err := IPCA(x, 0, 10)
	assert.Error(t, err)
	_, err = IPCA(x, 8, 4)
	assert.Error(t, err)
	_, err = IPCA(x, 7, 10)
	assert.Error(t, err)
}

func TestICAFullComponentsReproducesInput(t *testing.T) {
	x := randomMatrix(50, 6, 7)

	out, err := ICA(x, 6, rand.NewPCG(1, 1))
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(x, out, 1e-6))
}

func TestICARecoversLowRankData(t *testing.T) {
	x := lowRank(80, 10, 3, 8)

	out, err := ICA(x, 3, nil)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(x, out, 1e-6))
}

func TestICAValidation(t *testing.T) {
	_, err := ICA(randomMatrix(10, 4, 9), 5, nil)
	assert.Error(t, err)

	_, err = ICA(lowRank(30, 8, 2, 10), 5, nil)
	assert.Error(t, err)
}

func TestReconstructorOnImage(t *testing.T) {
	input := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 16, 12, gocv.MatTypeCV8UC3)
	defer input.Close()

	r := NewReconstructor(0)
	out, err := r.SVD(input, 0, 1)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 16, out.Rows())
	assert.Equal(t, 12, out.Cols())
	assert.Equal(t, gocv.MatTypeCV64F, out.Type())
	// white is L* 100; a constant plane is rank one
	assert.InDelta(t, 100, out.GetDoubleAt(8, 6), 1e-6)
}

func TestDenseMatRoundTrip(t *testing.T) {
	x := randomMatrix(4, 3, 11)
	m := MatFromDense(x)
	defer m.Close()

	back, err := DenseFromMat(m)
	require.NoError(t, err)
	assert.True(t, mat.Equal(x, back))
}
