// Package catalog defines the remote catalog service contract and an HTTP
// client for a JSON catalog proxy.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// PlayabilityOK is the playability status of a track that can be streamed.
const PlayabilityOK = "OK"

// ErrNotFound is returned when the catalog does not know the requested item.
var ErrNotFound = errors.New("not found")

// StatusError is returned when the catalog answers with a non-2xx status.
// A 404 also matches ErrNotFound.
type StatusError struct {
	Code   int
	Detail string
	Err    error
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("catalog status %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("catalog status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Endpoint identifies a watch/radio sequence.
type Endpoint struct {
	VideoID    string `json:"videoId,omitempty"`
	PlaylistID string `json:"playlistId,omitempty"`
	Params     string `json:"params,omitempty"`
	Index      int    `json:"index,omitempty"`
}

// Playability reports whether a track can be streamed.
type Playability struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Format is one transport format offered for a track.
type Format struct {
	Itag            int    `json:"itag"`
	URL             string `json:"url"`
	MimeType        string `json:"mimeType"`
	Bitrate         int    `json:"bitrate"`
	AudioSampleRate int    `json:"audioSampleRate,omitempty"`
	ContentLength   int64  `json:"contentLength,omitempty"`
}

// IsAudio returns true for audio-only formats.
func (f Format) IsAudio() bool {
	return strings.HasPrefix(f.MimeType, "audio/")
}

// Container returns the mime type without parameters, e.g. "audio/webm".
func (f Format) Container() string {
	mime, _, _ := strings.Cut(f.MimeType, ";")
	return strings.TrimSpace(mime)
}

// Codecs returns the codecs parameter of the mime type, e.g. "opus".
func (f Format) Codecs() string {
	_, after, ok := strings.Cut(f.MimeType, "codecs=")
	if !ok {
		return ""
	}
	return strings.Trim(strings.TrimSpace(after), `"`)
}

// PlayerResponse is the playable-stream descriptor of a track.
type PlayerResponse struct {
	Playability      Playability `json:"playabilityStatus"`
	Formats          []Format    `json:"formats"`
	ExpiresInSeconds int         `json:"expiresInSeconds"`
	LoudnessDb       *float64    `json:"loudnessDb,omitempty"`
	LengthSeconds    int         `json:"lengthSeconds,omitempty"`
}

// Playable returns true if the playability status is OK.
func (r *PlayerResponse) Playable() bool {
	return r.Playability.Status == PlayabilityOK
}

// WatchPage is one page of a watch/radio sequence.
type WatchPage struct {
	Title        string           `json:"title,omitempty"`
	Tracks       []playlist.Track `json:"tracks"`
	Index        int              `json:"index"`
	Continuation string           `json:"continuation,omitempty"`
}

// Catalog is the remote catalog service.
type Catalog interface {
	// Player fetches the playable-stream descriptor of a track.
	Player(ctx context.Context, videoID string) (*PlayerResponse, error)
	// Next fetches a watch sequence: the first page when continuation is
	// empty, the following page otherwise.
	Next(ctx context.Context, endpoint Endpoint, continuation string) (*WatchPage, error)
	// Related fetches tracks related to a track.
	Related(ctx context.Context, videoID string) ([]playlist.Track, error)
}
