package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcf-skeleton/internal/mcf"
	"mcf-skeleton/internal/shapes"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	p := mcf.DefaultParams()
	p.MediallyCentered = false
	p.MaxIterations = 3
	return Config{
		OutputDir:   t.TempDir(),
		Params:      p,
		Workers:     2,
		PreviewSize: 32,
		Supersample: 1,
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Preview = true
	open := shapes.Octahedron(1)
	open.Tris = open.Tris[1:]
	jobs := []Job{
		{Name: "octahedron", Surface: shapes.Octahedron(1)},
		{Name: "open", Surface: open},
		{Name: "sphere", Surface: shapes.Icosphere(1, 1)},
	}

	results := Run(context.Background(), cfg, jobs)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	if d := cmp.Diff([]string{"octahedron", "open", "sphere"}, names); d != "" {
		t.Errorf("result order: %s", d)
	}

	if ok, failed := Summary(results); ok != 2 || failed != 1 {
		t.Errorf("Summary = %d ok, %d failed", ok, failed)
	}
	if results[1].Success || !strings.Contains(results[1].Error, "border") {
		t.Errorf("open surface: %+v", results[1])
	}

	for _, r := range []Result{results[0], results[2]} {
		if !r.Success {
			t.Fatalf("%s failed: %s", r.Name, r.Error)
		}
		data, err := os.ReadFile(filepath.Join(cfg.OutputDir, r.Skeleton))
		if err != nil {
			t.Fatal(err)
		}
		var doc skeletonFile
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("%s: %v", r.Skeleton, err)
		}
		if doc.Name != r.Name || doc.Skeleton == nil || len(doc.Skeleton.Nodes) == 0 {
			t.Errorf("%s: unexpected document %+v", r.Skeleton, doc)
		}
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, r.Preview)); err != nil {
			t.Errorf("preview: %v", err)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []Job{{Name: "a", Surface: shapes.Octahedron(1)}, {Name: "b", Surface: shapes.Octahedron(2)}}
	for _, r := range Run(ctx, testConfig(t), jobs) {
		if r.Success || !strings.Contains(r.Error, context.Canceled.Error()) {
			t.Errorf("%s: %+v", r.Name, r)
		}
	}
}

func TestWriteManifest(t *testing.T) {
	cfg := testConfig(t)
	results := Run(context.Background(), cfg, []Job{{Name: "octahedron", Surface: shapes.Octahedron(1)}})
	results = append(results, Result{Name: "broken", Error: "boom"})

	path := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := WriteManifest(path, results); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("%d entries", len(entries))
	}
	got := entries[0]
	if !got.Success || got.Skeleton != "octahedron.json" || got.Preview != "" || got.Nodes == 0 || got.State == "" {
		t.Errorf("entry 0: %+v", got)
	}
	if d := cmp.Diff(ManifestEntry{Name: "broken", Error: "boom"}, entries[1]); d != "" {
		t.Errorf("entry 1: %s", d)
	}
}

func TestJobsFor(t *testing.T) {
	jobs, err := JobsFor([]string{"sphere", "torus"})
	if err != nil {
		t.Fatalf("JobsFor: %v", err)
	}
	if len(jobs) != 2 || jobs[0].Name != "sphere" || len(jobs[1].Surface.Points) == 0 {
		t.Errorf("jobs: %+v", jobs)
	}
	if _, err := JobsFor([]string{"teapot"}); err == nil {
		t.Error("unknown shape: no error")
	}
}
