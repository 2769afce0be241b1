package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vidgrab/vidgrab/internal/config"
	"github.com/vidgrab/vidgrab/internal/utils"
)

// client shells out to the yt-dlp binary. The binary is an external
// collaborator; this type only owns the argument and event contract.
type client struct {
	binary       string
	probeTimeout time.Duration
}

// NewClient resolves the extraction binary and returns a process-wide client.
// The handle is immutable after construction and safe for concurrent use.
func NewClient(cfg *config.ExtractConfig) (Client, error) {
	path, err := exec.LookPath(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp binary not found at %q: %w", cfg.BinaryPath, err)
	}

	return &client{
		binary:       path,
		probeTimeout: cfg.ProbeTimeout,
	}, nil
}

func (c *client) BinaryPath() string {
	return c.binary
}

// Probe runs a metadata-only probe (-J) and decodes the JSON document.
func (c *client) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, c.binary,
		"-J",
		"--no-warnings",
		"--no-playlist",
		"--skip-download",
		url,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("probe failed: %w: %s", err, truncate(stderr.String(), 300))
	}

	var result ProbeResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("probe output decode failed: %w", err)
	}

	return &result, nil
}

// Extract runs one extraction process and blocks until its terminal event.
func (c *client) Extract(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		utils.LogError(ctx, "Extraction process failed", err, utils.Fields{
			"output": truncate(string(output), 500),
		})
		return fmt.Errorf("extraction failed: %w: %s", err, truncate(string(output), 300))
	}

	return nil
}

// truncate shortens process output for error messages and logs.
func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
