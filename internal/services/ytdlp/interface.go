package ytdlp

import (
	"context"

	"github.com/vidgrab/vidgrab/internal/models"
)

// Prober fetches metadata for a video URL without downloading anything.
type Prober interface {
	// Probe runs a metadata-only probe and returns the decoded result.
	Probe(ctx context.Context, url string) (*ProbeResult, error)
}

// Extractor runs one extraction process to its terminal event.
type Extractor interface {
	// Extract runs the process with the given argument list and blocks
	// until it terminates. A non-zero exit is returned as an error.
	Extract(ctx context.Context, args []string) error
}

// Client bundles both sides of the extraction-engine boundary.
type Client interface {
	Prober
	Extractor

	// BinaryPath reports the resolved executable, for health checks.
	BinaryPath() string
}

// ProbeResult is the raw metadata document emitted by the probe.
type ProbeResult struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Thumbnail string             `json:"thumbnail"`
	Duration  float64            `json:"duration"`
	Uploader  string             `json:"uploader"`
	Channel   string             `json:"channel"`
	Formats   []models.RawFormat `json:"formats"`
}

// Author returns the uploader, falling back to the channel name.
func (r *ProbeResult) Author() string {
	if r.Uploader != "" {
		return r.Uploader
	}
	return r.Channel
}
