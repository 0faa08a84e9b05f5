package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mcf-skeleton/internal/mcf"
	"mcf-skeleton/internal/preview"
	"mcf-skeleton/internal/shapes"
	"mcf-skeleton/internal/skeleton"
)

// Config holds the settings shared by every job of a batch run.
type Config struct {
	OutputDir   string
	Params      mcf.Params
	Workers     int
	Preview     bool
	PreviewSize int
	Supersample int
	Logger      *zap.Logger
}

// Job is one surface to skeletonize.
type Job struct {
	Name    string
	Surface shapes.Surface
}

// Result holds the outcome of processing one job.
type Result struct {
	Name       string
	Success    bool
	Error      string
	State      mcf.State
	Iterations int
	Duration   time.Duration
	Skeleton   string // file name relative to the output dir
	Preview    string
	Graph      *skeleton.Graph
}

// skeletonFile is the on-disk form of one result.
type skeletonFile struct {
	Name       string          `json:"name"`
	State      string          `json:"state"`
	Iterations int             `json:"iterations"`
	Params     mcf.Params      `json:"params"`
	Skeleton   *skeleton.Graph `json:"skeleton"`
}

// Run processes all jobs on a worker pool. Each job gets its own engine.
// Results keep the order of jobs. Cancelling ctx stops running contractions
// and skips jobs not yet started.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					cfg.Logger.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Duration("elapsed", time.Since(start)))
				}
			}
		}
	}()

	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(ctx, cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(ctx context.Context, cfg Config, job Job) Result {
	res := Result{Name: job.Name}
	start := time.Now()

	fail := func(err error) Result {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		cfg.Logger.Warn("job failed", zap.String("name", job.Name), zap.Error(err))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	log := cfg.Logger.With(zap.String("name", job.Name))
	e, err := mcf.New(job.Surface.Points, job.Surface.Tris, mcf.WithParams(cfg.Params), mcf.WithLogger(log))
	if err != nil {
		return fail(err)
	}
	g, err := e.Run(ctx)
	if err != nil {
		return fail(err)
	}
	res.State = e.State()
	res.Iterations = e.Iterations()
	res.Graph = g

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fail(errors.Wrap(err, "create output dir"))
	}
	res.Skeleton = job.Name + ".json"
	data, err := json.MarshalIndent(skeletonFile{
		Name:       job.Name,
		State:      res.State.String(),
		Iterations: res.Iterations,
		Params:     e.Params(),
		Skeleton:   g,
	}, "", "  ")
	if err != nil {
		return fail(errors.Wrap(err, "encode skeleton"))
	}
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, res.Skeleton), data, 0644); err != nil {
		return fail(errors.Wrap(err, "write skeleton"))
	}

	if cfg.Preview {
		res.Preview = job.Name + ".webp"
		img := preview.Render(e.MesoSkeleton(), g, preview.Options{
			Size:        cfg.PreviewSize,
			Supersample: cfg.Supersample,
			Yaw:         preview.DefaultOptions().Yaw,
			Pitch:       preview.DefaultOptions().Pitch,
		})
		if err := preview.WriteWebP(filepath.Join(cfg.OutputDir, res.Preview), img); err != nil {
			return fail(err)
		}
	}

	res.Success = true
	res.Duration = time.Since(start)
	log.Info("skeleton written",
		zap.Stringer("state", res.State),
		zap.Int("iterations", res.Iterations),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)))
	return res
}

// Summary counts successful and failed results.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// JobsFor builds jobs for the named built-in shapes.
func JobsFor(names []string) ([]Job, error) {
	jobs := make([]Job, 0, len(names))
	for _, name := range names {
		s, err := shapes.ByName(name)
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		jobs = append(jobs, Job{Name: name, Surface: s})
	}
	return jobs, nil
}
