package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one job in the output manifest.
type ManifestEntry struct {
	Name       string  `json:"name"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
	State      string  `json:"state,omitempty"`
	Iterations int     `json:"iterations"`
	Nodes      int     `json:"nodes"`
	Edges      int     `json:"edges"`
	Seconds    float64 `json:"seconds"`
	Skeleton   string  `json:"skeleton,omitempty"`
	Preview    string  `json:"preview,omitempty"`
}

// WriteManifest writes one entry per result to path as indented JSON.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Name:       r.Name,
			Success:    r.Success,
			Error:      r.Error,
			Iterations: r.Iterations,
			Seconds:    r.Duration.Seconds(),
			Skeleton:   r.Skeleton,
			Preview:    r.Preview,
		}
		if r.Success {
			entries[i].State = r.State.String()
		}
		if r.Graph != nil {
			entries[i].Nodes = len(r.Graph.Nodes)
			entries[i].Edges = len(r.Graph.Edges)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
