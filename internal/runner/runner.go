// Package runner applies configured transformations to every image of a
// scenes directory and stores the results under their transformation path.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"image-transformations/internal/config"
	imageio "image-transformations/internal/io"
	"image-transformations/internal/metrics"
	"image-transformations/internal/transformation"
)

// Result describes one transformed image.
type Result struct {
	Scene          string
	Image          string
	Transformation string
	Output         string
	Skipped        bool
	Metrics        map[string]float64
}

// Runner walks <input>/<scene>/<image> and writes
// <output>/<scene>/<transformation path>/<image>. Existing outputs are kept
// unless Overwrite is set; the transformation path acts as the cache key.
type Runner struct {
	cfg       *config.Config
	selectors []*transformation.Selector
	loader    *imageio.ImageLoader
	evaluator *metrics.Evaluator
	logger    logrus.FieldLogger
}

// New builds one selector per configured transformation.
func New(cfg *config.Config, logger logrus.FieldLogger, opts ...transformation.Option) *Runner {
	selectors := make([]*transformation.Selector, 0, len(cfg.Transformations))
	for _, t := range cfg.Transformations {
		selectors = append(selectors, t.Selector(opts...))
	}

	return &Runner{
		cfg:       cfg,
		selectors: selectors,
		loader:    imageio.NewImageLoader(logger),
		evaluator: metrics.NewEvaluator(),
		logger:    logger,
	}
}

type job struct {
	scene string
	image string
}

// Run processes every scene image. It stops at the first error or when ctx
// is cancelled, and returns the results gathered so far.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	start := time.Now()

	jobs, err := r.jobs()
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{
		"images":          len(jobs),
		"transformations": len(r.selectors),
		"workers":         r.cfg.Workers,
	}).Info("Starting transformations")

	var (
		mu      sync.Mutex
		results []Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := r.process(gctx, j)
			mu.Lock()
			results = append(results, res...)
			mu.Unlock()
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	r.logger.WithFields(logrus.Fields{
		"results":  len(results),
		"duration": time.Since(start).String(),
	}).Info("Transformations finished")
	return results, nil
}

// jobs lists every supported image of every scene directory.
func (r *Runner) jobs() ([]job, error) {
	entries, err := os.ReadDir(r.cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("reading scenes: %w", err)
	}

	var jobs []job
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		images, err := r.loader.ListImages(filepath.Join(r.cfg.Input, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, img := range images {
			jobs = append(jobs, job{scene: e.Name(), image: img})
		}
	}
	return jobs, nil
}

// process loads one image once and applies every selector to it.
func (r *Runner) process(ctx context.Context, j job) ([]Result, error) {
	logger := r.logger.WithFields(logrus.Fields{"scene": j.scene, "image": j.image})

	var (
		results []Result
		pending []*transformation.Selector
	)
	for _, s := range r.selectors {
		if name, ok := staticImage(s); ok && filepath.Base(name) != j.image {
			continue
		}
		out, err := r.outputPath(s, j)
		if err != nil {
			return results, err
		}
		if !r.cfg.Overwrite && exists(out) {
			logger.WithField("output", out).Debug("Output exists, skipping")
			results = append(results, Result{Scene: j.scene, Image: j.image, Transformation: s.Name(), Output: out, Skipped: true})
			continue
		}
		pending = append(pending, s)
	}
	if len(pending) == 0 {
		return results, nil
	}

	input, err := r.loader.LoadImage(filepath.Join(r.cfg.Input, j.scene, j.image))
	if err != nil {
		return results, err
	}
	defer input.Close()

	for _, s := range pending {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := r.apply(s, j, input)
		if err != nil {
			logger.WithError(err).WithField("transformation", s.String()).Error("Transformation failed")
			return results, fmt.Errorf("%s/%s: %w", j.scene, j.image, err)
		}
		logger.WithFields(logrus.Fields{
			"transformation": s.Name(),
			"output":         res.Output,
		}).Info("Image transformed")
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) apply(s *transformation.Selector, j job, input gocv.Mat) (Result, error) {
	out, err := r.outputPath(s, j)
	if err != nil {
		return Result{}, err
	}

	output, err := s.Apply(input)
	if err != nil {
		return Result{}, err
	}
	if output.Ptr() != input.Ptr() {
		defer output.Close()
	}

	if err := r.loader.SaveImage(output, out); err != nil {
		return Result{}, err
	}

	res := Result{Scene: j.scene, Image: j.image, Transformation: s.Name(), Output: out}
	if r.cfg.Evaluate {
		res.Metrics = r.evaluate(input, output)
	}
	return res, nil
}

func (r *Runner) evaluate(input, output gocv.Mat) map[string]float64 {
	reference, err := metrics.Reference(input, output)
	if err != nil {
		r.logger.WithError(err).Debug("Skipping evaluation")
		return nil
	}
	defer reference.Close()
	return r.evaluator.CalculateAll(reference, output)
}

// outputPath is <output>/<scene>/<transformation path>/<image>. Static
// transformations copy the image named by their param into the scene
// directory.
func (r *Runner) outputPath(s *transformation.Selector, j job) (string, error) {
	fragment, err := s.Path()
	if err != nil {
		return "", err
	}

	if _, ok := staticImage(s); ok {
		return filepath.Join(r.cfg.Output, j.scene, fragment), nil
	}
	return filepath.Join(r.cfg.Output, j.scene, fragment, j.image), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// staticImage returns the image name of a static selector.
func staticImage(s *transformation.Selector) (string, bool) {
	spec, err := s.Spec()
	if err != nil {
		return "", false
	}
	st, ok := spec.Params.(transformation.Static)
	return st.ImageName, ok
}
