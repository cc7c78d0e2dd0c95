package transformation

import (
	"fmt"
	"path/filepath"
)

// Path returns the storage path fragment of the spec: the kind name joined
// with a parameter segment and a _S_{width}_{height} suffix. Static returns
// its image name and unrecognized kinds their bare name.
func (s Spec) Path() string {
	var segment string
	switch p := s.Params.(type) {
	case SVDReconstruction:
		segment = fmt.Sprintf("%d_%d", p.Begin, p.End)
	case IPCAReconstruction:
		segment = fmt.Sprintf("N%d_%d", p.Components, p.BatchSize)
	case FastICAReconstruction:
		segment = fmt.Sprintf("N%d", p.Components)
	case MinDiffFilter:
		segment = fmt.Sprintf("W_%d_%d_Stride_%d", p.WindowWidth, p.WindowHeight, p.Stride)
	case SobelBasedFilter:
		segment = fmt.Sprintf("K_%d_L%d", p.KernelSize, p.PixelLimit)
	case NLMeanNoiseMask:
		segment = fmt.Sprintf("S%d_D%d", p.PatchSize, p.PatchDistance)
	case Static:
		return p.ImageName
	case Unknown:
		return p.Name
	default:
		panic(fmt.Sprintf("transformation: unhandled params %T", p))
	}

	return filepath.Join(string(s.Params.Kind()), segment) + fmt.Sprintf("_S_%d_%d", s.Size.Width, s.Size.Height)
}
