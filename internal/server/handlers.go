package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/playback"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/queue"
	"github.com/llehouerou/streamwave/internal/state"
)

const maxBodyBytes = 4 << 20

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newSnapshotDTO(s.ctrl.Snapshot()))
}

func (s *Server) handlePlayQueue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Tracks) == 0 {
		s.writeError(w, fmt.Errorf("%w: no tracks", errBadRequest))
		return
	}
	if req.Index < 0 || req.Index >= len(req.Tracks) {
		s.writeError(w, fmt.Errorf("%w: index %d out of range", errBadRequest, req.Index))
		return
	}
	q := queue.NewList(req.Title, req.Tracks, req.Index, time.Duration(req.PositionMs)*time.Millisecond)
	s.reply(w, s.ctrl.PlayQueue(q, !req.Paused))
}

func (s *Server) handleRadio(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req radioRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Preload != nil && req.Preload.ID != id {
		s.writeError(w, fmt.Errorf("%w: preload id %q does not match %q", errBadRequest, req.Preload.ID, id))
		return
	}
	endpoint := catalog.Endpoint{VideoID: id, PlaylistID: req.PlaylistID, Params: req.Params}
	q := queue.NewRadio(s.catalog, endpoint, req.Preload, s.logger)
	s.reply(w, s.ctrl.PlayQueue(q, !req.Paused))
}

func (s *Server) handleTracks(fn func(...playlist.Track) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tracksRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		if len(req.Tracks) == 0 {
			s.writeError(w, fmt.Errorf("%w: no tracks", errBadRequest))
			return
		}
		s.reply(w, fn(req.Tracks...))
	}
}

func (s *Server) command(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.reply(w, fn())
	}
}

func (s *Server) handleShuffle(w http.ResponseWriter, _ *http.Request) {
	enabled, err := s.ctrl.ToggleShuffle()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"shuffle": enabled})
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["mode"]
	mode, ok := playback.ParseRepeatMode(name)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: unknown repeat mode %q", errBadRequest, name))
		return
	}
	s.reply(w, s.ctrl.SetRepeatMode(mode))
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Level < 0 || req.Level > 1 {
		s.writeError(w, fmt.Errorf("%w: volume must be within [0, 1]", errBadRequest))
		return
	}
	s.reply(w, s.ctrl.SetVolume(req.Level))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.PositionMs < 0 {
		s.writeError(w, fmt.Errorf("%w: negative position", errBadRequest))
		return
	}
	s.reply(w, s.ctrl.Seek(time.Duration(req.PositionMs)*time.Millisecond))
}

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	var req sleepRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.reply(w, s.ctrl.SetSleepTimer(time.Duration(req.Minutes*float64(time.Minute))))
}

// handleGetLyrics returns the stored lyrics of a track. The translation is
// included only while translation is switched on.
func (s *Server) handleGetLyrics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	l, err := s.lyrics.GetLyrics(id)
	if err != nil {
		s.writeError(w, fmt.Errorf("lyrics %s: %w", id, err))
		return
	}
	if l == nil {
		s.writeError(w, fmt.Errorf("%w: no lyrics for %s", errNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, newLyricsDTO(*l, s.ctrl.Snapshot().Translating))
}

func (s *Server) handlePutLyrics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req lyricsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Text == "" {
		s.writeError(w, fmt.Errorf("%w: empty lyrics", errBadRequest))
		return
	}
	l := state.Lyrics{ID: id, Text: req.Text, Translation: req.Translation}
	if err := s.lyrics.UpsertLyrics(l); err != nil {
		s.writeError(w, fmt.Errorf("save lyrics %s: %w", id, err))
		return
	}
	writeJSON(w, http.StatusOK, newLyricsDTO(l, true))
}

// reply answers a command with the resulting snapshot.
func (s *Server) reply(w http.ResponseWriter, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotDTO(s.ctrl.Snapshot()))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.Is(err, playback.ErrClosed):
		status = http.StatusServiceUnavailable
	default:
		s.logger.Warn("command failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
