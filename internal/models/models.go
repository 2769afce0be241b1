package models

import (
	"strings"
	"time"
)

// DownloadMode is the extraction intent, resolved once per request and
// threaded through spec building and orchestration.
type DownloadMode string

const (
	ModeVideo DownloadMode = "video"
	ModeAudio DownloadMode = "audio"
)

// Fixed audio-menu selector tokens exposed by the UI next to the probed
// video tiers.
const (
	SelectorBestAudio  = "bestaudio"
	SelectorWorstAudio = "worstaudio"
)

// ResolveMode classifies a format selector token. This is the single place
// mode is inferred from a selector; everything downstream receives the
// resolved mode explicitly.
func ResolveMode(formatID string) DownloadMode {
	if formatID == "" {
		return ModeVideo
	}
	if strings.Contains(formatID, "audio") || formatID == SelectorBestAudio || formatID == SelectorWorstAudio {
		return ModeAudio
	}
	return ModeVideo
}

// Extension returns the output container extension for the mode.
func (m DownloadMode) Extension() string {
	if m == ModeAudio {
		return ".mp3"
	}
	return ".mp4"
}

// RawFormat is one stream descriptor from a metadata probe, as reported by
// the extraction tool. Transient; never persisted.
type RawFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	TBR            float64 `json:"tbr"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

// QualityTier is one user-facing quality option after deduplication. At most
// one tier exists per distinct vertical resolution.
type QualityTier struct {
	Quality    string  `json:"quality"`
	Resolution string  `json:"resolution"`
	FPS        float64 `json:"fps"`
	Container  string  `json:"container"`
	VideoCodec string  `json:"videoCodec"`
	AudioCodec string  `json:"audioCodec"`
	Bitrate    float64 `json:"bitrate"`
	Filesize   string  `json:"filesize"`
	FormatID   string  `json:"format_id"`
	Height     int     `json:"height"`
}

// VideoInfo is the probe result exposed to the client.
type VideoInfo struct {
	Title     string        `json:"title"`
	Thumbnail string        `json:"thumbnail"`
	Duration  float64       `json:"duration"`
	Author    string        `json:"author"`
	Formats   []QualityTier `json:"formats"`
}

// PreparedArtifact is the single output file of one prepare request. Owned
// by the ephemeral store until served; removed after the first serve attempt.
type PreparedArtifact struct {
	FileName  string    `json:"file_name"`
	Title     string    `json:"title"`
	Path      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type InfoRequest struct {
	URL string `json:"url" binding:"required"`
}

type PrepareRequest struct {
	URL      string       `json:"url" binding:"required"`
	FormatID string       `json:"format_id,omitempty"`
	Mode     DownloadMode `json:"mode,omitempty"`
}

type PrepareResponse struct {
	Success bool   `json:"success"`
	File    string `json:"file"`
	Title   string `json:"title"`
}
