package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vidgrab/vidgrab/internal/models"
	"github.com/vidgrab/vidgrab/internal/services/download"
	"github.com/vidgrab/vidgrab/internal/services/format"
	"github.com/vidgrab/vidgrab/internal/services/store"
	"github.com/vidgrab/vidgrab/internal/services/ytdlp"
	"github.com/vidgrab/vidgrab/internal/utils"
)

type VideoHandler struct {
	prober   ytdlp.Prober
	preparer *download.Preparer
	store    *store.Store
}

func NewVideoHandler(prober ytdlp.Prober, preparer *download.Preparer, st *store.Store) *VideoHandler {
	return &VideoHandler{
		prober:   prober,
		preparer: preparer,
		store:    st,
	}
}

// Info godoc
// @Summary Get video metadata and quality options
// @Description Probe a video URL and return its metadata with a deduplicated quality ladder
// @Tags video
// @Accept json
// @Produce json
// @Param request body models.InfoRequest true "Video URL"
// @Success 200 {object} models.VideoInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/info [post]
func (h *VideoHandler) Info(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Video URL is required", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	probe, err := h.prober.Probe(ctx, req.URL)
	if err != nil {
		utils.LogError(ctx, "Metadata probe failed", err, utils.Fields{"url": req.URL})
		h.errorResponse(c, utils.NewProbeError(err))
		return
	}

	tiers := format.Reduce(probe.Formats)
	if len(tiers) == 0 {
		// Nothing reducible (live streams, exotic extractors): offer a
		// single unconstrained tier instead of an empty menu.
		tiers = []models.QualityTier{format.SyntheticBestTier()}
	}

	c.JSON(http.StatusOK, models.VideoInfo{
		Title:     probe.Title,
		Thumbnail: probe.Thumbnail,
		Duration:  probe.Duration,
		Author:    probe.Author(),
		Formats:   tiers,
	})
}

// Prepare godoc
// @Summary Prepare a downloadable file
// @Description Run the extraction process for the selected format and stage the result for a one-shot download
// @Tags video
// @Accept json
// @Produce json
// @Param request body models.PrepareRequest true "Video URL with optional format selector and mode"
// @Success 200 {object} models.PrepareResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/prepare [post]
func (h *VideoHandler) Prepare(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.PrepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewValidationError("Video URL is required", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	mode := req.Mode
	switch mode {
	case models.ModeVideo, models.ModeAudio:
	case "":
		mode = models.ResolveMode(req.FormatID)
	default:
		h.errorResponse(c, utils.NewValidationError("Mode must be \"video\" or \"audio\"", map[string]interface{}{
			"mode": string(req.Mode),
		}))
		return
	}

	probe, err := h.prober.Probe(ctx, req.URL)
	if err != nil {
		utils.LogError(ctx, "Metadata probe failed before prepare", err, utils.Fields{"url": req.URL})
		h.errorResponse(c, utils.NewProbeError(err))
		return
	}
	title := utils.SanitizeFilename(probe.Title)

	utils.LogInfo(ctx, "Prepare request", utils.Fields{
		"url": req.URL, "format_id": req.FormatID, "mode": mode,
	})

	artifact, err := h.preparer.Prepare(ctx, req.URL, req.FormatID, mode, title)
	if err != nil {
		utils.LogError(ctx, "Prepare failed", err, utils.Fields{"url": req.URL})
		h.errorResponse(c, utils.NewProcessError(err))
		return
	}

	h.store.Register(artifact)

	c.JSON(http.StatusOK, models.PrepareResponse{
		Success: true,
		File:    artifact.FileName,
		Title:   artifact.Title,
	})
}

// GetFile godoc
// @Summary Download a prepared file
// @Description Stream a prepared artifact as an attachment. The file is deleted after the single serving attempt.
// @Tags video
// @Produce application/octet-stream
// @Param file query string true "Artifact token returned by prepare"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/get-file [get]
func (h *VideoHandler) GetFile(c *gin.Context) {
	ctx := c.Request.Context()

	token := c.Query("file")
	if token == "" {
		h.errorResponse(c, utils.NewValidationError("File parameter is required", nil))
		return
	}

	reader, size, err := h.store.Open(token)
	if err != nil {
		h.errorResponse(c, utils.NewArtifactNotFoundError(token))
		return
	}
	defer func() {
		reader.Close()
		// Deletion is unconditional: success and transport error alike
		// consume the artifact's single serve.
		h.store.Discard(ctx, token)
	}()

	c.Header("Content-Type", contentTypeFor(token))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", token))
	c.Header("Content-Length", strconv.FormatInt(size, 10))

	written, err := io.Copy(c.Writer, reader)
	if err != nil {
		utils.LogError(ctx, "Failed to stream artifact", err, utils.Fields{
			"token": token, "bytes_written": written,
		})
		return
	}

	utils.LogInfo(ctx, "Artifact served", utils.Fields{
		"token": token, "bytes_written": written,
	})
}

func contentTypeFor(token string) string {
	if strings.HasSuffix(token, ".mp3") {
		return "audio/mpeg"
	}
	return "video/mp4"
}

func (h *VideoHandler) errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
