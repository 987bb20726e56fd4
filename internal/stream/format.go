package stream

import (
	"fmt"
	"strings"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/state"
)

// Quality is the user's audio quality preference.
type Quality int

const (
	QualityAuto Quality = iota
	QualityHigh
	QualityLow
)

func (q Quality) String() string {
	switch q {
	case QualityHigh:
		return "high"
	case QualityLow:
		return "low"
	default:
		return "auto"
	}
}

// ParseQuality parses "auto", "high" or "low".
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return QualityAuto, nil
	case "high":
		return QualityHigh, nil
	case "low":
		return QualityLow, nil
	}
	return QualityAuto, fmt.Errorf("unknown audio quality %q", s)
}

// preferredContainerBonus favors opus-in-webm over other containers.
const preferredContainerBonus = 10240

func qualityBias(q Quality, metered bool) int {
	switch q {
	case QualityHigh:
		return 1
	case QualityLow:
		return -1
	default:
		if metered {
			return -1
		}
		return 1
	}
}

// SelectFormat picks the transport format to play.
//
// A prior record pins the format by itag. Otherwise the audio format with
// the highest bitrate*bias score wins, opus-in-webm gets a fixed bonus and
// the first candidate wins ties. It returns nil when nothing is playable.
func SelectFormat(formats []catalog.Format, prior *state.FormatRecord, q Quality, metered bool) *catalog.Format {
	if prior != nil {
		for i := range formats {
			if formats[i].Itag == prior.Itag {
				return &formats[i]
			}
		}
	}

	bias := qualityBias(q, metered)
	var best *catalog.Format
	bestScore := 0
	for i := range formats {
		f := &formats[i]
		if !f.IsAudio() {
			continue
		}
		score := f.Bitrate * bias
		if strings.HasPrefix(f.MimeType, "audio/webm") {
			score += preferredContainerBonus
		}
		if best == nil || score > bestScore {
			best, bestScore = f, score
		}
	}
	return best
}

// formatRecord builds the persisted record of a chosen format.
func formatRecord(id string, f *catalog.Format, loudness *float64) state.FormatRecord {
	return state.FormatRecord{
		ID:            id,
		Itag:          f.Itag,
		MimeType:      f.Container(),
		Codecs:        f.Codecs(),
		Bitrate:       f.Bitrate,
		SampleRate:    f.AudioSampleRate,
		ContentLength: f.ContentLength,
		LoudnessDb:    loudness,
	}
}
