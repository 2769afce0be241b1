package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidgrab/vidgrab/internal/config"
	"github.com/vidgrab/vidgrab/internal/models"
	"github.com/vidgrab/vidgrab/internal/services/download"
	"github.com/vidgrab/vidgrab/internal/services/store"
	"github.com/vidgrab/vidgrab/internal/services/ytdlp"
)

type fakeProber struct {
	result *ytdlp.ProbeResult
	err    error
}

func (f *fakeProber) Probe(ctx context.Context, url string) (*ytdlp.ProbeResult, error) {
	return f.result, f.err
}

type fakeExtractor struct {
	fs  afero.Fs
	err error
	// writeOutput controls whether the fake process produces its file.
	writeOutput bool
}

func (f *fakeExtractor) Extract(ctx context.Context, args []string) error {
	if f.writeOutput {
		for i, a := range args {
			if a == "--output" && i+1 < len(args) {
				_ = afero.WriteFile(f.fs, args[i+1], []byte("media bytes"), 0o644)
			}
		}
	}
	return f.err
}

type testEnv struct {
	router *gin.Engine
	fs     afero.Fs
	store  *store.Store
}

func newTestEnv(t *testing.T, prober *fakeProber, extractor *fakeExtractor) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs := afero.NewMemMapFs()
	if extractor != nil {
		extractor.fs = fs
	}

	st, err := store.NewStore(fs, "temp", &config.StoreConfig{
		ArtifactTTL:    time.Hour,
		ReaperInterval: time.Hour,
	})
	require.NoError(t, err)

	preparer := download.NewPreparer(fs, extractor, &config.ExtractConfig{
		TempDir:    "temp",
		RunTimeout: 5 * time.Second,
	})

	handler := NewVideoHandler(prober, preparer, st)

	router := gin.New()
	router.POST("/api/info", handler.Info)
	router.POST("/api/prepare", handler.Prepare)
	router.GET("/api/get-file", handler.GetFile)

	return &testEnv{router: router, fs: fs, store: st}
}

func (e *testEnv) postJSON(path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func probeResultWithFormats() *ytdlp.ProbeResult {
	return &ytdlp.ProbeResult{
		Title:     "Test Video",
		Thumbnail: "https://example.com/t.jpg",
		Duration:  321,
		Uploader:  "Test Channel",
		Formats: []models.RawFormat{
			{FormatID: "137", Height: 1080, Width: 1920, TBR: 4000, Ext: "mp4", VCodec: "avc1", ACodec: "none"},
			{FormatID: "248", Height: 1080, Width: 1920, TBR: 2500, Ext: "webm", VCodec: "vp9", ACodec: "none"},
			{FormatID: "136", Height: 720, Width: 1280, TBR: 1500, Ext: "mp4", VCodec: "avc1", ACodec: "none"},
		},
	}
}

func TestInfoReturnsReducedFormats(t *testing.T) {
	env := newTestEnv(t, &fakeProber{result: probeResultWithFormats()}, &fakeExtractor{})

	w := env.postJSON("/api/info", gin.H{"url": "https://example.com/watch?v=abc"})

	require.Equal(t, http.StatusOK, w.Code)

	var info models.VideoInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "Test Video", info.Title)
	assert.Equal(t, "Test Channel", info.Author)
	require.Len(t, info.Formats, 2)
	assert.Equal(t, "1080p", info.Formats[0].Quality)
	assert.Equal(t, "137", info.Formats[0].FormatID)
	assert.Equal(t, "720p", info.Formats[1].Quality)
}

func TestInfoSubstitutesSyntheticTier(t *testing.T) {
	env := newTestEnv(t, &fakeProber{result: &ytdlp.ProbeResult{Title: "Live"}}, &fakeExtractor{})

	w := env.postJSON("/api/info", gin.H{"url": "https://example.com/live"})

	require.Equal(t, http.StatusOK, w.Code)

	var info models.VideoInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	require.Len(t, info.Formats, 1)
	assert.Equal(t, "Best available", info.Formats[0].Quality)
	assert.Empty(t, info.Formats[0].FormatID)
}

func TestInfoMissingURL(t *testing.T) {
	env := newTestEnv(t, &fakeProber{result: probeResultWithFormats()}, &fakeExtractor{})

	w := env.postJSON("/api/info", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestInfoProbeFailure(t *testing.T) {
	env := newTestEnv(t, &fakeProber{err: errors.New("extractor exploded: secret detail")}, &fakeExtractor{})

	w := env.postJSON("/api/info", gin.H{"url": "https://example.com/bad"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	// Internal detail stays server-side.
	assert.NotContains(t, w.Body.String(), "secret detail")
}

func TestPrepareThenGetFileServesOnce(t *testing.T) {
	env := newTestEnv(t,
		&fakeProber{result: probeResultWithFormats()},
		&fakeExtractor{writeOutput: true},
	)

	w := env.postJSON("/api/prepare", gin.H{"url": "https://example.com/watch?v=abc", "format_id": "137"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PrepareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.File)
	assert.Equal(t, "Test Video.mp4", resp.Title)

	// First retrieval streams the bytes.
	dl := env.get("/api/get-file?file=" + url.QueryEscape(resp.File))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "media bytes", dl.Body.String())
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "attachment")

	// The artifact is gone immediately after the single serve.
	exists, _ := afero.Exists(env.fs, "temp/"+resp.File)
	assert.False(t, exists)

	again := env.get("/api/get-file?file=" + url.QueryEscape(resp.File))
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestPrepareProcessFailureLeavesNoFile(t *testing.T) {
	env := newTestEnv(t,
		&fakeProber{result: probeResultWithFormats()},
		&fakeExtractor{writeOutput: true, err: errors.New("exit status 1")},
	)

	w := env.postJSON("/api/prepare", gin.H{"url": "https://example.com/watch?v=abc"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")

	entries, err := afero.ReadDir(env.fs, "temp")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrepareMissingURL(t *testing.T) {
	env := newTestEnv(t, &fakeProber{result: probeResultWithFormats()}, &fakeExtractor{})

	w := env.postJSON("/api/prepare", gin.H{"format_id": "137"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrepareRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t, &fakeProber{result: probeResultWithFormats()}, &fakeExtractor{})

	w := env.postJSON("/api/prepare", gin.H{"url": "https://example.com/v", "mode": "podcast"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrepareAudioMode(t *testing.T) {
	env := newTestEnv(t,
		&fakeProber{result: probeResultWithFormats()},
		&fakeExtractor{writeOutput: true},
	)

	w := env.postJSON("/api/prepare", gin.H{"url": "https://example.com/watch?v=abc", "format_id": "bestaudio"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PrepareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Test Video.mp3", resp.Title)

	dl := env.get("/api/get-file?file=" + url.QueryEscape(resp.File))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "audio/mpeg", dl.Header().Get("Content-Type"))
}

func TestGetFileMissingParam(t *testing.T) {
	env := newTestEnv(t, &fakeProber{}, &fakeExtractor{})

	w := env.get("/api/get-file")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetFileUnknownToken(t *testing.T) {
	env := newTestEnv(t, &fakeProber{}, &fakeExtractor{})

	w := env.get("/api/get-file?file=1234-missing.mp4")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
