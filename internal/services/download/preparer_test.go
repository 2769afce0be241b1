package download

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidgrab/vidgrab/internal/config"
	"github.com/vidgrab/vidgrab/internal/models"
)

// fakeExtractor stands in for the extraction process. Its behavior receives
// the output path parsed from the argument list.
type fakeExtractor struct {
	mu       sync.Mutex
	calls    int
	behavior func(fs afero.Fs, outputPath string) error
	fs       afero.Fs
}

func (f *fakeExtractor) Extract(ctx context.Context, args []string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.behavior(f.fs, outputPathFromArgs(args))
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func outputPathFromArgs(args []string) string {
	for i, a := range args {
		if a == "--output" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func newTestPreparer(behavior func(fs afero.Fs, outputPath string) error) (*Preparer, *fakeExtractor, afero.Fs) {
	fs := afero.NewMemMapFs()
	extractor := &fakeExtractor{behavior: behavior, fs: fs}
	cfg := &config.ExtractConfig{
		TempDir:    "temp",
		RunTimeout: 5 * time.Second,
	}
	return NewPreparer(fs, extractor, cfg), extractor, fs
}

func TestPrepareSucceedsWhenProcessWritesOutput(t *testing.T) {
	preparer, _, fs := newTestPreparer(func(fs afero.Fs, outputPath string) error {
		return afero.WriteFile(fs, outputPath, []byte("media bytes"), 0o644)
	})

	artifact, err := preparer.Prepare(context.Background(), "https://example.com/v", "137", models.ModeVideo, "My Video")

	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.Equal(t, "My Video.mp4", artifact.Title)

	exists, _ := afero.Exists(fs, artifact.Path)
	assert.True(t, exists)
}

func TestPrepareFailsOnProcessError(t *testing.T) {
	preparer, _, fs := newTestPreparer(func(fs afero.Fs, outputPath string) error {
		// Simulate a process that wrote a partial file before dying.
		_ = afero.WriteFile(fs, outputPath, []byte("partial"), 0o644)
		return errors.New("exit status 1")
	})

	artifact, err := preparer.Prepare(context.Background(), "https://example.com/v", "", models.ModeVideo, "broken")

	require.Error(t, err)
	assert.Nil(t, artifact)

	// Partial output must be cleaned up before the error is returned.
	entries, readErr := afero.ReadDir(fs, "temp")
	if readErr == nil {
		assert.Empty(t, entries)
	}
}

func TestPrepareFailsWhenOutputMissing(t *testing.T) {
	preparer, _, _ := newTestPreparer(func(fs afero.Fs, outputPath string) error {
		// Clean exit, nothing written.
		return nil
	})

	artifact, err := preparer.Prepare(context.Background(), "https://example.com/v", "", models.ModeVideo, "silent")

	require.Error(t, err)
	assert.Nil(t, artifact)
	assert.Contains(t, err.Error(), "no output file")
}

func TestPrepareCoalescesIdenticalRequests(t *testing.T) {
	release := make(chan struct{})
	preparer, extractor, _ := newTestPreparer(func(fs afero.Fs, outputPath string) error {
		<-release
		return afero.WriteFile(fs, outputPath, []byte("x"), 0o644)
	})

	var wg sync.WaitGroup
	results := make([]*models.PreparedArtifact, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = preparer.Prepare(context.Background(), "https://example.com/v", "137", models.ModeVideo, "same")
		}(i)
	}

	// Let both goroutines reach the in-flight call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, extractor.callCount())
	assert.Equal(t, results[0].FileName, results[1].FileName)
}

func TestPrepareDistinctRequestsRunIndependently(t *testing.T) {
	preparer, extractor, _ := newTestPreparer(func(fs afero.Fs, outputPath string) error {
		return afero.WriteFile(fs, outputPath, []byte("x"), 0o644)
	})

	_, err := preparer.Prepare(context.Background(), "https://example.com/v", "137", models.ModeVideo, "a")
	require.NoError(t, err)
	_, err = preparer.Prepare(context.Background(), "https://example.com/v", "136", models.ModeVideo, "a")
	require.NoError(t, err)

	assert.Equal(t, 2, extractor.callCount())
}
