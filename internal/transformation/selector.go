package transformation

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"image-transformations/internal/algorithms"
)

// noiseStrength scales the estimated noise sigma into the non-local means
// filter strength.
const noiseStrength = 0.8

// Selector applies the transformation named by kind, configured by param and
// bounded by size. The raw strings are parsed on first use and the result is
// cached; a Selector is safe for concurrent use.
type Selector struct {
	kind  string
	param string
	size  string

	backend Backend

	once sync.Once
	spec Spec
	err  error
}

// Option configures a Selector.
type Option func(*Selector)

// WithBackend replaces every collaborator at once.
func WithBackend(b Backend) Option {
	return func(s *Selector) {
		s.backend = b
	}
}

func WithReconstructor(r Reconstructor) Option {
	return func(s *Selector) {
		s.backend.Reconstructor = r
	}
}

func WithEdgeFilter(f EdgeFilter) Option {
	return func(s *Selector) {
		s.backend.EdgeFilter = f
	}
}

func WithNoiseMasker(m NoiseMasker) Option {
	return func(s *Selector) {
		s.backend.NoiseMasker = m
	}
}

func WithThumbnailer(t Thumbnailer) Option {
	return func(s *Selector) {
		s.backend.Thumbnailer = t
	}
}

// New creates a selector. Nothing is validated until Spec, Validate, Path or
// Apply is called.
func New(kind, param, size string, opts ...Option) *Selector {
	s := &Selector{
		kind:    kind,
		param:   param,
		size:    size,
		backend: DefaultBackend(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spec returns the parsed transformation.
func (s *Selector) Spec() (Spec, error) {
	s.once.Do(func() {
		s.spec, s.err = Parse(s.kind, s.param, s.size)
	})
	return s.spec, s.err
}

// Validate reports any parse error without applying anything.
func (s *Selector) Validate() error {
	_, err := s.Spec()
	return err
}

// Path returns the storage path fragment identifying the transformation.
func (s *Selector) Path() (string, error) {
	spec, err := s.Spec()
	if err != nil {
		return "", err
	}
	return spec.Path(), nil
}

func (s *Selector) Name() string {
	return s.kind
}

func (s *Selector) Param() string {
	return s.param
}

func (s *Selector) String() string {
	return s.kind + " transformation with parameter : " + s.param
}

// Apply transforms input. Static returns input itself; every other kind
// returns a new 8-bit Mat, shrunk to fit the target size, that the caller
// must close.
func (s *Selector) Apply(input gocv.Mat) (gocv.Mat, error) {
	spec, err := s.Spec()
	if err != nil {
		return gocv.NewMat(), err
	}
	if _, ok := spec.Params.(Static); ok {
		return input, nil
	}
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("%s: input image is empty", s.kind)
	}

	var raw gocv.Mat
	switch p := spec.Params.(type) {
	case SVDReconstruction:
		raw, err = s.backend.Reconstructor.SVD(input, p.Begin, p.End)
	case IPCAReconstruction:
		raw, err = s.backend.Reconstructor.IPCA(input, p.Components, p.BatchSize)
	case FastICAReconstruction:
		raw, err = s.backend.Reconstructor.FastICA(input, p.Components)
	case SobelBasedFilter:
		raw, err = s.sobelFilter(input, p)
	case NLMeanNoiseMask:
		raw, err = s.noiseMask(input, p)
	case MinDiffFilter:
		return gocv.NewMat(), fmt.Errorf("%s: %w", s.kind, ErrApplyUnsupported)
	case Unknown:
		return gocv.NewMat(), fmt.Errorf("%q: %w", s.kind, ErrUnsupportedKind)
	case Static:
	default:
		panic(fmt.Sprintf("transformation: unhandled params %T", p))
	}
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: %w", s.kind, err)
	}
	defer raw.Close()

	out, err := s.finish(raw, spec.Size)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: %w", s.kind, err)
	}
	return out, nil
}

// finish converts raw to 8-bit and shrinks it into size.
func (s *Selector) finish(raw gocv.Mat, size Size) (gocv.Mat, error) {
	pixels, err := algorithms.ToUint8(raw)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer pixels.Close()

	maxWidth, maxHeight := size.Box()
	return s.backend.Thumbnailer.Thumbnail(pixels, maxWidth, maxHeight)
}

func (s *Selector) sobelFilter(input gocv.Mat, p SobelBasedFilter) (gocv.Mat, error) {
	f := s.backend.EdgeFilter

	lightness, err := f.Lightness(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer lightness.Close()

	magnitude, err := f.SobelMagnitude(lightness, p.KernelSize)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer magnitude.Close()

	limited, err := f.RemovePixels(magnitude, p.PixelLimit)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer limited.Close()

	filled, err := f.FillFromDistribution(limited)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer filled.Close()

	return f.Normalize(filled)
}

func (s *Selector) noiseMask(input gocv.Mat, p NLMeanNoiseMask) (gocv.Mat, error) {
	m := s.backend.NoiseMasker

	sigma, err := m.EstimateSigma(input)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("noise estimation: %w", err)
	}

	denoised, err := m.Denoise(input, noiseStrength*sigma, p.PatchSize, p.PatchDistance)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer denoised.Close()

	return m.AbsDiff(denoised, input)
}
