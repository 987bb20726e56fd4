package server

import (
	"time"

	"github.com/llehouerou/streamwave/internal/errmsg"
	"github.com/llehouerou/streamwave/internal/playback"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/state"
)

type songDTO struct {
	playlist.Track
	Liked     bool `json:"liked"`
	InLibrary bool `json:"in_library"`
}

type formatDTO struct {
	Itag          int      `json:"itag"`
	MimeType      string   `json:"mime_type"`
	Codecs        string   `json:"codecs,omitempty"`
	Bitrate       int      `json:"bitrate"`
	SampleRate    int      `json:"sample_rate,omitempty"`
	ContentLength int64    `json:"content_length,omitempty"`
	LoudnessDb    *float64 `json:"loudness_db,omitempty"`
}

func newFormatDTO(f *state.FormatRecord) *formatDTO {
	if f == nil {
		return nil
	}
	return &formatDTO{
		Itag:          f.Itag,
		MimeType:      f.MimeType,
		Codecs:        f.Codecs,
		Bitrate:       f.Bitrate,
		SampleRate:    f.SampleRate,
		ContentLength: f.ContentLength,
		LoudnessDb:    f.LoudnessDb,
	}
}

type snapshotDTO struct {
	State           string           `json:"state"`
	Playing         bool             `json:"playing"`
	Title           string           `json:"title"`
	Tracks          []playlist.Track `json:"tracks"`
	Index           int              `json:"index"`
	Current         *songDTO         `json:"current,omitempty"`
	Format          *formatDTO       `json:"format,omitempty"`
	PositionMs      int64            `json:"position_ms"`
	Shuffle         bool             `json:"shuffle"`
	Repeat          string           `json:"repeat"`
	CanSkipPrevious bool             `json:"can_skip_previous"`
	CanSkipNext     bool             `json:"can_skip_next"`
	Volume          float64          `json:"volume"`
	Normalization   float64          `json:"normalization"`
	Translating     bool             `json:"translating"`
	SleepAt         *time.Time       `json:"sleep_at,omitempty"`
	HasMore         bool             `json:"has_more"`
	Error           string           `json:"error,omitempty"`
}

func newSnapshotDTO(s playback.Snapshot) snapshotDTO {
	dto := snapshotDTO{
		State:           s.State.String(),
		Playing:         s.State.IsPlaying(),
		Title:           s.Title,
		Tracks:          s.Tracks,
		Index:           s.Index,
		PositionMs:      s.Position.Milliseconds(),
		Shuffle:         s.Shuffle,
		Repeat:          playback.RepeatModeString(s.Repeat),
		CanSkipPrevious: s.CanSkipPrevious,
		CanSkipNext:     s.CanSkipNext,
		Volume:          s.Volume,
		Normalization:   s.Normalization,
		Translating:     s.Translating,
		HasMore:         s.HasMore,
		Format:          newFormatDTO(s.Format),
	}
	if dto.Tracks == nil {
		dto.Tracks = []playlist.Track{}
	}
	if s.Current != nil {
		dto.Current = &songDTO{Track: s.Current.Track, Liked: s.Current.Liked, InLibrary: s.Current.InLibrary}
	}
	if !s.SleepAt.IsZero() {
		at := s.SleepAt
		dto.SleepAt = &at
	}
	if s.Err != nil {
		dto.Error = errmsg.Describe(s.Err)
	}
	return dto
}

// Frame types sent over /ws.
const (
	frameSnapshot = "snapshot"
	frameTrack    = "track"
	frameError    = "error"
)

type frameDTO struct {
	Type     string         `json:"type"`
	Snapshot *snapshotDTO   `json:"snapshot,omitempty"`
	Track    *trackEventDTO `json:"track,omitempty"`
	Error    *errorEventDTO `json:"error,omitempty"`
}

type trackEventDTO struct {
	Current *playlist.Track `json:"current"`
	Index   int             `json:"index"`
	Reason  string          `json:"reason"`
}

type errorEventDTO struct {
	Operation string `json:"operation"`
	TrackID   string `json:"track_id,omitempty"`
	Message   string `json:"message"`
	Skipped   bool   `json:"skipped"`
}

func snapshotFrame(s playback.Snapshot) frameDTO {
	dto := newSnapshotDTO(s)
	return frameDTO{Type: frameSnapshot, Snapshot: &dto}
}

func trackFrame(e playback.TrackChange) frameDTO {
	return frameDTO{Type: frameTrack, Track: &trackEventDTO{
		Current: e.Current,
		Index:   e.Index,
		Reason:  e.Reason.String(),
	}}
}

func errorFrame(e playback.ErrorEvent) frameDTO {
	return frameDTO{Type: frameError, Error: &errorEventDTO{
		Operation: e.Operation,
		TrackID:   e.TrackID,
		Message:   errmsg.Describe(e.Err),
		Skipped:   e.Skipped,
	}}
}

type lyricsDTO struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
}

func newLyricsDTO(l state.Lyrics, withTranslation bool) lyricsDTO {
	dto := lyricsDTO{ID: l.ID, Text: l.Text}
	if withTranslation {
		dto.Translation = l.Translation
	}
	return dto
}

type lyricsRequest struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

type queueRequest struct {
	Title      string           `json:"title"`
	Tracks     []playlist.Track `json:"tracks"`
	Index      int              `json:"index"`
	PositionMs int64            `json:"position_ms"`
	Paused     bool             `json:"paused"`
}

type radioRequest struct {
	PlaylistID string          `json:"playlist_id"`
	Params     string          `json:"params"`
	Preload    *playlist.Track `json:"preload"`
	Paused     bool            `json:"paused"`
}

type tracksRequest struct {
	Tracks []playlist.Track `json:"tracks"`
}

type volumeRequest struct {
	Level float64 `json:"level"`
}

type seekRequest struct {
	PositionMs int64 `json:"position_ms"`
}

type sleepRequest struct {
	Minutes float64 `json:"minutes"`
}

type errorResponse struct {
	Error string `json:"error"`
}
