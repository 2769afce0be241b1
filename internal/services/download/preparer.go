package download

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/vidgrab/vidgrab/internal/config"
	"github.com/vidgrab/vidgrab/internal/models"
	"github.com/vidgrab/vidgrab/internal/services/ytdlp"
	"github.com/vidgrab/vidgrab/internal/utils"
)

// State is the lifecycle of one prepare run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Preparer drives the extraction process for one prepare request and
// reconciles its outcome against the filesystem. Identical concurrent
// requests are coalesced onto a single in-flight extraction.
type Preparer struct {
	fs         afero.Fs
	extractor  ytdlp.Extractor
	tempDir    string
	runTimeout time.Duration
	group      singleflight.Group
}

// NewPreparer creates a preparer writing into tempDir on fs.
func NewPreparer(fs afero.Fs, extractor ytdlp.Extractor, cfg *config.ExtractConfig) *Preparer {
	return &Preparer{
		fs:         fs,
		extractor:  extractor,
		tempDir:    cfg.TempDir,
		runTimeout: cfg.RunTimeout,
	}
}

// Prepare runs the extraction described by the request and returns the
// produced artifact. It blocks until the process's terminal event. The run
// is detached from the caller's context: a dropped client connection does
// not cancel an in-flight extraction, only the run timeout does.
func (p *Preparer) Prepare(ctx context.Context, url, formatID string, mode models.DownloadMode, title string) (*models.PreparedArtifact, error) {
	key := strings.Join([]string{url, formatID, string(mode)}, "|")

	v, err, shared := p.group.Do(key, func() (interface{}, error) {
		spec := BuildSpec(p.tempDir, url, formatID, mode, title)
		return p.run(ctx, spec, title)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		utils.LogInfo(ctx, "Prepare coalesced with identical in-flight request", utils.Fields{
			"url": url, "format_id": formatID,
		})
	}

	return v.(*models.PreparedArtifact), nil
}

// run owns the Idle -> Running -> {Succeeded, Failed} transitions for one
// extraction process.
func (p *Preparer) run(ctx context.Context, spec Spec, title string) (*models.PreparedArtifact, error) {
	state := StateIdle
	utils.LogDebug(ctx, "Prepare run created", utils.Fields{"state": state, "args": spec.Args})

	runCtx, cancel := context.WithTimeout(context.Background(), p.runTimeout)
	defer cancel()

	state = StateRunning
	utils.LogInfo(ctx, "Extraction started", utils.Fields{
		"state": state, "mode": spec.Mode, "file": spec.FileName,
	})

	if err := p.extractor.Extract(runCtx, spec.Args); err != nil {
		state = StateFailed
		p.removePartial(ctx, spec.Path)
		utils.LogError(ctx, "Extraction process errored", err, utils.Fields{"state": state})
		return nil, fmt.Errorf("extraction process: %w", err)
	}

	exists, err := afero.Exists(p.fs, spec.Path)
	if err != nil || !exists {
		// Normal termination without the expected output is still a
		// failure (silent extractor error, disk issue).
		state = StateFailed
		utils.LogError(ctx, "Extraction finished but output file is missing", err, utils.Fields{
			"state": state, "path": spec.Path,
		})
		return nil, fmt.Errorf("extraction produced no output file at %s", spec.Path)
	}

	state = StateSucceeded
	utils.LogInfo(ctx, "Extraction succeeded", utils.Fields{
		"state": state, "file": spec.FileName,
	})

	return &models.PreparedArtifact{
		FileName:  spec.FileName,
		Title:     title + spec.Mode.Extension(),
		Path:      spec.Path,
		CreatedAt: time.Now(),
	}, nil
}

func (p *Preparer) removePartial(ctx context.Context, path string) {
	exists, _ := afero.Exists(p.fs, path)
	if !exists {
		return
	}
	if err := p.fs.Remove(path); err != nil {
		utils.LogWarn(ctx, "Failed to remove partial output file", utils.Fields{
			"path": path, "error": err.Error(),
		})
	}
}
