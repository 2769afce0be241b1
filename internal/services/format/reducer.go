// Package format collapses the heterogeneous stream descriptors reported by
// a metadata probe into one canonical quality tier per vertical resolution.
package format

import (
	"fmt"
	"sort"

	"github.com/vidgrab/vidgrab/internal/models"
)

// Reduce builds the user-facing quality ladder from raw probe descriptors.
//
// Descriptors without a usable height, or whose video channel is explicitly
// absent, are skipped. Survivors are grouped by height and the descriptor
// with the highest bitrate hint wins its group; at equal bitrate the
// lexicographically greater format_id wins, keeping the outcome independent
// of input order. The result is sorted strictly descending by height.
//
// Reduce is a pure, total function: malformed descriptors are skipped,
// never fatal. An empty result is legal; the caller decides whether to
// substitute a synthetic best-available tier.
func Reduce(formats []models.RawFormat) []models.QualityTier {
	byHeight := make(map[int]models.RawFormat)

	for _, f := range formats {
		if f.Height <= 0 || f.VCodec == "none" {
			continue
		}

		current, seen := byHeight[f.Height]
		if !seen || betterVariant(f, current) {
			byHeight[f.Height] = f
		}
	}

	tiers := make([]models.QualityTier, 0, len(byHeight))
	for _, f := range byHeight {
		tiers = append(tiers, toTier(f))
	}

	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].Height > tiers[j].Height
	})

	return tiers
}

// betterVariant reports whether candidate should replace current within the
// same resolution group.
func betterVariant(candidate, current models.RawFormat) bool {
	if candidate.TBR != current.TBR {
		return candidate.TBR > current.TBR
	}
	return candidate.FormatID > current.FormatID
}

func toTier(f models.RawFormat) models.QualityTier {
	fps := f.FPS
	if fps == 0 {
		fps = 30
	}

	audioCodec := f.ACodec
	if audioCodec == "" || audioCodec == "none" {
		audioCodec = "separate"
	}

	return models.QualityTier{
		Quality:    fmt.Sprintf("%dp", f.Height),
		Resolution: fmt.Sprintf("%dx%d", f.Width, f.Height),
		FPS:        fps,
		Container:  f.Ext,
		VideoCodec: f.VCodec,
		AudioCodec: audioCodec,
		Bitrate:    f.TBR,
		Filesize:   displaySize(f),
		FormatID:   f.FormatID,
		Height:     f.Height,
	}
}

// displaySize renders the known or approximate byte size as megabytes, or
// the literal "Unknown" when no positive estimate exists.
func displaySize(f models.RawFormat) string {
	size := f.Filesize
	if size <= 0 {
		size = f.FilesizeApprox
	}
	if size <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
}

// SyntheticBestTier is the fallback tier substituted by callers when a probe
// yields no reducible video formats; its empty selector lets the extraction
// engine pick the best available stream.
func SyntheticBestTier() models.QualityTier {
	return models.QualityTier{
		Quality:  "Best available",
		Filesize: "Unknown",
	}
}
