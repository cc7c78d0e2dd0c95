// Package transformation selects an image transformation by name and derives
// the storage path fragment identifying it.
package transformation

// Kind names a transformation.
type Kind string

const (
	KindSVDReconstruction     Kind = "svd_reconstruction"
	KindIPCAReconstruction    Kind = "ipca_reconstruction"
	KindFastICAReconstruction Kind = "fast_ica_reconstruction"
	KindMinDiffFilter         Kind = "min_diff_filter"
	KindSobelBasedFilter      Kind = "sobel_based_filter"
	KindNLMeanNoiseMask       Kind = "nl_mean_noise_mask"
	KindStatic                Kind = "static"
)

// Kinds lists every recognized kind.
var Kinds = []Kind{
	KindSVDReconstruction,
	KindIPCAReconstruction,
	KindFastICAReconstruction,
	KindMinDiffFilter,
	KindSobelBasedFilter,
	KindNLMeanNoiseMask,
	KindStatic,
}

// Params holds the typed parameters of one kind. The set of implementations
// is closed; switch over them exhaustively.
type Params interface {
	Kind() Kind
	isParams()
}

// SVDReconstruction keeps singular components [Begin, End).
type SVDReconstruction struct {
	Begin int
	End   int
}

// IPCAReconstruction keeps Components principal components, fitted in
// batches of BatchSize rows.
type IPCAReconstruction struct {
	Components int
	BatchSize  int
}

type FastICAReconstruction struct {
	Components int
}

// MinDiffFilter only names a storage path; it has no pixel implementation.
type MinDiffFilter struct {
	WindowWidth  int
	WindowHeight int
	Stride       int
}

// SobelBasedFilter computes gradients with a KernelSize Sobel operator and
// resamples magnitudes above PixelLimit.
type SobelBasedFilter struct {
	KernelSize int
	PixelLimit int
}

type NLMeanNoiseMask struct {
	PatchSize     int
	PatchDistance int
}

// Static passes images through. ImageName identifies the stored image.
type Static struct {
	ImageName string
}

// Unknown carries an unrecognized kind name.
type Unknown struct {
	Name string
}

func (SVDReconstruction) Kind() Kind     { return KindSVDReconstruction }
func (IPCAReconstruction) Kind() Kind    { return KindIPCAReconstruction }
func (FastICAReconstruction) Kind() Kind { return KindFastICAReconstruction }
func (MinDiffFilter) Kind() Kind         { return KindMinDiffFilter }
func (SobelBasedFilter) Kind() Kind      { return KindSobelBasedFilter }
func (NLMeanNoiseMask) Kind() Kind       { return KindNLMeanNoiseMask }
func (Static) Kind() Kind                { return KindStatic }
func (u Unknown) Kind() Kind             { return Kind(u.Name) }

func (SVDReconstruction) isParams()     {}
func (IPCAReconstruction) isParams()    {}
func (FastICAReconstruction) isParams() {}
func (MinDiffFilter) isParams()         {}
func (SobelBasedFilter) isParams()      {}
func (NLMeanNoiseMask) isParams()       {}
func (Static) isParams()                {}
func (Unknown) isParams()               {}

// Size is the target size string read as "height,width". Paths emit it as
// width then height.
type Size struct {
	Width  int
	Height int
}

// Box returns the thumbnail bounds. The first value of the size string bounds
// the width and the second the height.
func (s Size) Box() (maxWidth, maxHeight int) {
	return s.Height, s.Width
}

// Spec is a parsed transformation. Size is zero for Static and Unknown.
type Spec struct {
	Params Params
	Size   Size
}
