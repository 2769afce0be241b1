// Package store owns prepared artifacts between extraction and the single
// download that consumes them.
package store

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/vidgrab/vidgrab/internal/config"
	"github.com/vidgrab/vidgrab/internal/models"
	"github.com/vidgrab/vidgrab/internal/utils"
)

// ErrNotFound is returned when a token has no backing file, either because
// it never existed or because it was already served and deleted.
var ErrNotFound = fmt.Errorf("artifact not found")

// Store tracks at most one file per completed preparation and guarantees
// deletion after (or on failure of) its single transfer. A background
// reaper removes artifacts that are never retrieved.
type Store struct {
	fs       afero.Fs
	dir      string
	ttl      time.Duration
	interval time.Duration

	mu        sync.Mutex
	artifacts map[string]time.Time

	stop chan struct{}
	done chan struct{}
}

// NewStore creates a store over dir on fs and ensures the directory exists.
func NewStore(fs afero.Fs, dir string, cfg *config.StoreConfig) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	return &Store{
		fs:        fs,
		dir:       dir,
		ttl:       cfg.ArtifactTTL,
		interval:  cfg.ReaperInterval,
		artifacts: make(map[string]time.Time),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Register puts an artifact under reaper supervision. Registering the same
// token twice (coalesced prepares) refreshes its deadline.
func (s *Store) Register(artifact *models.PreparedArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[artifact.FileName] = artifact.CreatedAt
}

// Open returns a reader over the artifact's bytes along with its size.
// The caller must Close the reader and then call Discard, regardless of
// whether the transfer succeeded.
func (s *Store) Open(token string) (io.ReadCloser, int64, error) {
	path, err := s.resolve(token)
	if err != nil {
		return nil, 0, err
	}

	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, 0, ErrNotFound
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, 0, ErrNotFound
	}

	return f, info.Size(), nil
}

// Discard removes the artifact unconditionally. Called once, immediately
// after the single serving attempt; also used by the reaper.
func (s *Store) Discard(ctx context.Context, token string) {
	path, err := s.resolve(token)
	if err != nil {
		return
	}

	s.mu.Lock()
	delete(s.artifacts, token)
	s.mu.Unlock()

	exists, _ := afero.Exists(s.fs, path)
	if !exists {
		return
	}
	if err := s.fs.Remove(path); err != nil {
		utils.LogWarn(ctx, "Failed to delete artifact", utils.Fields{
			"token": token, "error": err.Error(),
		})
		return
	}
	utils.LogInfo(ctx, "Artifact deleted", utils.Fields{"token": token})
}

// resolve validates the token and maps it into the artifact directory.
// Tokens carrying path separators or traversal components are rejected so a
// crafted token cannot reach outside the directory.
func (s *Store) resolve(token string) (string, error) {
	if token == "" || token != filepath.Base(token) || strings.HasPrefix(token, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, token), nil
}

// StartReaper launches the background sweep for abandoned artifacts.
func (s *Store) StartReaper() {
	go s.reap()
}

// StopReaper stops the sweep and waits for the loop to exit.
func (s *Store) StopReaper() {
	close(s.stop)
	<-s.done
}

func (s *Store) reap() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep deletes registered artifacts past their TTL. Serve-time deletion is
// the primary cleanup path; this catches artifacts the client never fetched.
func (s *Store) sweep() {
	now := time.Now()

	s.mu.Lock()
	var expired []string
	for token, createdAt := range s.artifacts {
		if now.Sub(createdAt) > s.ttl {
			expired = append(expired, token)
		}
	}
	s.mu.Unlock()

	ctx := context.Background()
	for _, token := range expired {
		utils.LogInfo(ctx, "Reaping abandoned artifact", utils.Fields{"token": token})
		s.Discard(ctx, token)
	}
}
