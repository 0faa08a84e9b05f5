package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"mcf-skeleton/internal/batch"
	"mcf-skeleton/internal/config"
	"mcf-skeleton/internal/shapes"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	shape := flag.String("shape", "", "Skeletonize only this shape ("+strings.Join(shapes.Names(), ", ")+")")
	outputDir := flag.String("output", "", "Output directory (default: skeletons)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	withPreview := flag.Bool("preview", false, "Write a WebP preview next to each skeleton")
	maxIter := flag.Int("max-iter", 0, "Maximum contraction iterations (default: 500)")
	verbose := flag.Bool("v", false, "Log every contraction iteration")

	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		OutputDir:     *outputDir,
		Shape:         *shape,
		Workers:       *workers,
		Preview:       *withPreview,
		MaxIterations: *maxIter,
	})
	if len(cfg.Shapes) == 0 {
		cfg.Shapes = shapes.Names()
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	jobs, err := batch.JobsFor(cfg.Shapes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Mean curvature flow skeletonizer")
	fmt.Printf("Shapes: %s, Workers: %d\n", strings.Join(cfg.Shapes, ", "), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results := batch.Run(ctx, batch.Config{
		OutputDir:   cfg.OutputDir,
		Params:      cfg.Params,
		Workers:     cfg.Workers,
		Preview:     cfg.Preview,
		PreviewSize: cfg.PreviewSize,
		Supersample: cfg.Supersample,
		Logger:      log,
	}, jobs)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	for _, r := range results {
		if !r.Success {
			fmt.Printf("  %-12s FAILED: %s\n", r.Name, r.Error)
			continue
		}
		fmt.Printf("  %-12s %-14s %4d iterations  %3d nodes  %3d edges  %.1fs\n",
			r.Name, r.State, r.Iterations, len(r.Graph.Nodes), len(r.Graph.Edges), r.Duration.Seconds())
	}
	success, failed := batch.Summary(results)
	fmt.Printf("Skeletonized: %d/%d\n", success, len(results))

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
