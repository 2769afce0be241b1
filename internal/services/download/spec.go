// Package download turns a prepare request into one extraction-process run
// and reconciles the process outcome against the filesystem.
package download

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/vidgrab/vidgrab/internal/models"
)

// Spec is a concrete extraction-process invocation: the argument list handed
// to the engine and the output path the process is expected to produce.
type Spec struct {
	URL      string
	Mode     models.DownloadMode
	FormatID string
	FileName string
	Path     string
	Args     []string
}

// BuildSpec translates (url, selector, mode) into process arguments and a
// collision-resistant output path. The millisecond timestamp prefix keeps
// concurrent requests from sharing a path.
func BuildSpec(tempDir, url, formatID string, mode models.DownloadMode, title string) Spec {
	fileName := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), title, mode.Extension())
	path := filepath.Join(tempDir, fileName)

	return Spec{
		URL:      url,
		Mode:     mode,
		FormatID: formatID,
		FileName: fileName,
		Path:     path,
		Args:     buildArgs(url, formatID, mode, path),
	}
}

func buildArgs(url, formatID string, mode models.DownloadMode, path string) []string {
	if mode == models.ModeAudio {
		selector := formatID
		if selector == "" {
			selector = models.SelectorBestAudio
		}
		return []string{
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "0",
			"--format", selector,
			"--output", path,
			url,
		}
	}

	// The fallback chain is encoded in the selector expression so an
	// unavailable stream combination degrades to "best" without a second
	// round-trip.
	selector := "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best"
	if formatID != "" {
		selector = fmt.Sprintf("%s+bestaudio[ext=m4a]/best", formatID)
	}
	return []string{
		"--format", selector,
		"--merge-output-format", "mp4",
		"--output", path,
		url,
	}
}
