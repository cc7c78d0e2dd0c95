package algorithms

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func grayFromBytes(t *testing.T, rows, cols int, data []uint8) gocv.Mat {
	t.Helper()
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8U, data)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func filled(t *testing.T, rows, cols int, mt gocv.MatType, v float64) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, mt)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestThumbnailSize(t *testing.T) {
	tests := []struct {
		name                string
		width, height       int
		maxWidth, maxHeight int
		wantW, wantH        int
	}{
		{"fits", 80, 60, 100, 100, 80, 60},
		{"exact", 100, 100, 100, 100, 100, 100},
		{"wide", 400, 100, 100, 100, 100, 25},
		{"tall", 100, 400, 100, 100, 25, 100},
		{"one side too big", 150, 50, 100, 100, 100, 33},
		{"never below one pixel", 1000, 1, 10, 10, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ThumbnailSize(tt.width, tt.height, tt.maxWidth, tt.maxHeight)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.LessOrEqual(t, w, tt.maxWidth)
			assert.LessOrEqual(t, h, tt.maxHeight)
		})
	}
}

func TestThumbnail(t *testing.T) {
	input := filled(t, 300, 600, gocv.MatTypeCV8UC3, 128)

	out, err := NewThumbnailer().Thumbnail(input, 100, 100)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 100, out.Cols())
	assert.Equal(t, 50, out.Rows())
	assert.Equal(t, 3, out.Channels())

	_, err = NewThumbnailer().Thumbnail(input, 0, 10)
	assert.Error(t, err)
}

func TestToUint8Saturates(t *testing.T) {
	high := filled(t, 2, 2, gocv.MatTypeCV64F, 300)
	out, err := ToUint8(high)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, gocv.MatTypeCV8U, out.Type())
	assert.Equal(t, uint8(255), out.GetUCharAt(1, 1))

	low := filled(t, 2, 2, gocv.MatTypeCV64F, -4)
	out2, err := ToUint8(low)
	require.NoError(t, err)
	defer out2.Close()
	assert.Equal(t, uint8(0), out2.GetUCharAt(0, 0))
}

func TestLightness(t *testing.T) {
	white := filled(t, 4, 4, gocv.MatTypeCV8UC3, 255)
	l, err := Lightness(white)
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, 1, l.Channels())
	assert.InDelta(t, 100, l.GetDoubleAt(2, 2), 0.5)

	black := filled(t, 4, 4, gocv.MatTypeCV8U, 0)
	l2, err := Lightness(black)
	require.NoError(t, err)
	defer l2.Close()
	assert.InDelta(t, 0, l2.GetDoubleAt(0, 0), 0.5)

	_, err = Lightness(gocv.NewMat())
	assert.Error(t, err)
}

func TestSobelMagnitude(t *testing.T) {
	f := NewEdgeFilter(rand.NewPCG(1, 1))

	flat := filled(t, 16, 16, gocv.MatTypeCV64F, 50)
	mag, err := f.SobelMagnitude(flat, 3)
	require.NoError(t, err)
	defer mag.Close()
	assert.Equal(t, gocv.MatTypeCV8U, mag.Type())
	assert.Equal(t, 0, gocv.CountNonZero(mag))

	_, err = f.SobelMagnitude(flat, 4)
	assert.Error(t, err)
}

func TestSobelMagnitudeOfRamp(t *testing.T) {
	f := NewEdgeFilter(nil)

	ramp := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV64F)
	defer ramp.Close()
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			ramp.SetDoubleAt(y, x, float64(10*x))
		}
	}

	mag, err := f.SobelMagnitude(ramp, 3)
	require.NoError(t, err)
	defer mag.Close()
	// 3x3 Sobel weights sum to 8 along the gradient
	assert.Equal(t, uint8(80), mag.GetUCharAt(8, 8))
	assert.Equal(t, uint8(0), mag.GetUCharAt(8, 0))
}

func TestRemovePixels(t *testing.T) {
	f := NewEdgeFilter(rand.NewPCG(1, 1))
	input := grayFromBytes(t, 2, 3, []uint8{0, 10, 20, 30, 40, 50})

	out, err := f.RemovePixels(input, 30)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, []uint8{0, 10, 20, 30, 0, 0}, out.ToBytes())
	// input is untouched
	assert.Equal(t, uint8(50), input.GetUCharAt(1, 2))
}

func TestDistribution(t *testing.T) {
	weights, minValue := distribution([]uint8{0, 7, 7, 9, 0, 12, 7})
	assert.Equal(t, []float64{3, 1, 1}, weights)
	assert.Equal(t, 7, minValue)

	weights, _ = distribution([]uint8{0, 0})
	assert.Empty(t, weights)
}

func TestFillFromDistribution(t *testing.T) {
	f := NewEdgeFilter(rand.NewPCG(7, 7))
	data := []uint8{0, 5, 0, 6, 0, 7, 0, 0, 5}
	input := grayFromBytes(t, 3, 3, data)

	out, err := f.FillFromDistribution(input)
	require.NoError(t, err)
	defer out.Close()

	got := out.ToBytes()
	for i, v := range data {
		if v != 0 {
			assert.Equal(t, v, got[i], "nonzero pixel %d changed", i)
			continue
		}
		// three distinct values ranked 0..2, offset by the minimum 5
		assert.GreaterOrEqual(t, got[i], uint8(5))
		assert.LessOrEqual(t, got[i], uint8(7))
	}
}

func TestFillFromDistributionEmpty(t *testing.T) {
	f := NewEdgeFilter(nil)
	input := grayFromBytes(t, 2, 2, []uint8{0, 0, 0, 0})

	_, err := f.FillFromDistribution(input)
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestNormalize(t *testing.T) {
	f := NewEdgeFilter(nil)

	input := grayFromBytes(t, 1, 3, []uint8{10, 20, 30})
	out, err := f.Normalize(input)
	require.NoError(t, err)
	defer out.Close()
	got := out.ToBytes()
	assert.Equal(t, uint8(0), got[0])
	assert.InDelta(t, 128, int(got[1]), 1)
	assert.Equal(t, uint8(255), got[2])

	constant := grayFromBytes(t, 1, 3, []uint8{9, 9, 9})
	out2, err := f.Normalize(constant)
	require.NoError(t, err)
	defer out2.Close()
	assert.Equal(t, []uint8{0, 0, 0}, out2.ToBytes())
}

func TestEstimateSigmaOfConstantImage(t *testing.T) {
	m := NewNoiseMasker()

	sigma, err := m.EstimateSigma(filled(t, 32, 32, gocv.MatTypeCV8UC3, 100))
	require.NoError(t, err)
	assert.InDelta(t, 0, sigma, 1e-9)

	_, err = m.EstimateSigma(filled(t, 2, 2, gocv.MatTypeCV8U, 1))
	assert.Error(t, err)
}

func TestEstimateSigmaGrowsWithNoise(t *testing.T) {
	m := NewNoiseMasker()
	rnd := rand.New(rand.NewPCG(3, 3))

	noisy := func(amplitude float64) gocv.Mat {
		data := make([]uint8, 64*64)
		for i := range data {
			data[i] = uint8(128 + amplitude*(rnd.Float64()-0.5))
		}
		return grayFromBytes(t, 64, 64, data)
	}

	low, err := m.EstimateSigma(noisy(10))
	require.NoError(t, err)
	high, err := m.EstimateSigma(noisy(80))
	require.NoError(t, err)
	assert.Greater(t, high, low)
}

func TestNoiseMaskOfConstantImage(t *testing.T) {
	m := NewNoiseMasker()
	input := filled(t, 24, 24, gocv.MatTypeCV8UC3, 90)

	denoised, err := m.Denoise(input, 3, 5, 6)
	require.NoError(t, err)
	defer denoised.Close()
	assert.Equal(t, input.Rows(), denoised.Rows())
	assert.Equal(t, input.Cols(), denoised.Cols())

	mask, err := m.AbsDiff(denoised, input)
	require.NoError(t, err)
	defer mask.Close()
	assert.Equal(t, gocv.MatTypeCV8UC3, mask.Type())

	gray := gocv.NewMat()
	defer gray.Close()
	require.NoError(t, gocv.CvtColor(mask, &gray, gocv.ColorBGRToGray))
	assert.Equal(t, 0, gocv.CountNonZero(gray))
}

func TestDenoiseGray(t *testing.T) {
	m := NewNoiseMasker()
	input := filled(t, 20, 20, gocv.MatTypeCV8U, 40)

	denoised, err := m.Denoise(input, 3, 4, 3)
	require.NoError(t, err)
	defer denoised.Close()
	assert.Equal(t, gocv.MatTypeCV8U, denoised.Type())
	assert.Equal(t, uint8(40), denoised.GetUCharAt(10, 10))
}

func TestAbsDiffMixedChannels(t *testing.T) {
	m := NewNoiseMasker()

	mask, err := m.AbsDiff(filled(t, 4, 4, gocv.MatTypeCV8U, 10), filled(t, 4, 4, gocv.MatTypeCV8UC3, 30))
	require.NoError(t, err)
	defer mask.Close()
	assert.Equal(t, gocv.MatTypeCV8UC3, mask.Type())
	assert.Equal(t, []uint8{20, 20, 20}, mask.ToBytes()[:3])
}

func TestAbsDiffMismatch(t *testing.T) {
	m := NewNoiseMasker()
	_, err := m.AbsDiff(filled(t, 4, 4, gocv.MatTypeCV8U, 1), filled(t, 5, 4, gocv.MatTypeCV8U, 1))
	assert.Error(t, err)
}
