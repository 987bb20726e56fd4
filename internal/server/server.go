// Package server exposes the playback hub over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/playback"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/queue"
	"github.com/llehouerou/streamwave/internal/state"
)

const shutdownTimeout = 5 * time.Second

// Controller is the playback surface driven by the server.
type Controller interface {
	PlayQueue(q queue.Queue, playWhenReady bool) error
	PlayNext(tracks ...playlist.Track) error
	AddToQueue(tracks ...playlist.Track) error
	ToggleLike() error
	ToggleLibrary() error
	SkipNext() error
	SkipPrevious() error
	TogglePlay() error
	Seek(position time.Duration) error
	ToggleShuffle() (bool, error)
	SetRepeatMode(m playlist.RepeatMode) error
	ToggleTranslation() error
	StartRadioSeamlessly() error
	SetVolume(level float64) error
	SetSleepTimer(d time.Duration) error
	Snapshot() playback.Snapshot
	Subscribe() *playback.Subscription
	Unsubscribe(sub *playback.Subscription)
}

// LyricsStore reads and writes stored lyrics.
type LyricsStore interface {
	GetLyrics(id string) (*state.Lyrics, error)
	UpsertLyrics(l state.Lyrics) error
}

// Options configures a Server.
type Options struct {
	Controller Controller
	Catalog    catalog.Catalog // used to build radio queues
	Lyrics     LyricsStore     // nil disables the lyrics routes
	Logger     *log.Logger
}

// Server routes control requests to the hub.
type Server struct {
	ctrl     Controller
	catalog  catalog.Catalog
	lyrics   LyricsStore
	logger   *log.Logger
	router   *mux.Router
	upgrader websocket.Upgrader
}

// New creates a server and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		ctrl:    opts.Controller,
		catalog: opts.Catalog,
		lyrics:  opts.Lyrics,
		logger:  logger.WithPrefix("server"),
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local control surface; browsers on any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/queue", s.handlePlayQueue).Methods(http.MethodPost)
	api.HandleFunc("/radio/{id}", s.handleRadio).Methods(http.MethodPost)
	api.HandleFunc("/radio-seamless", s.command(s.ctrl.StartRadioSeamlessly)).Methods(http.MethodPost)
	api.HandleFunc("/play-next", s.handleTracks(s.ctrl.PlayNext)).Methods(http.MethodPost)
	api.HandleFunc("/add-to-queue", s.handleTracks(s.ctrl.AddToQueue)).Methods(http.MethodPost)
	api.HandleFunc("/next", s.command(s.ctrl.SkipNext)).Methods(http.MethodPost)
	api.HandleFunc("/previous", s.command(s.ctrl.SkipPrevious)).Methods(http.MethodPost)
	api.HandleFunc("/toggle-play", s.command(s.ctrl.TogglePlay)).Methods(http.MethodPost)
	api.HandleFunc("/like", s.command(s.ctrl.ToggleLike)).Methods(http.MethodPost)
	api.HandleFunc("/library", s.command(s.ctrl.ToggleLibrary)).Methods(http.MethodPost)
	api.HandleFunc("/translation", s.command(s.ctrl.ToggleTranslation)).Methods(http.MethodPost)
	api.HandleFunc("/shuffle", s.handleShuffle).Methods(http.MethodPost)
	api.HandleFunc("/repeat/{mode}", s.handleRepeat).Methods(http.MethodPut)
	api.HandleFunc("/volume", s.handleVolume).Methods(http.MethodPut)
	api.HandleFunc("/seek", s.handleSeek).Methods(http.MethodPut)
	api.HandleFunc("/sleep", s.handleSleep).Methods(http.MethodPut)
	if s.lyrics != nil {
		api.HandleFunc("/lyrics/{id}", s.handleGetLyrics).Methods(http.MethodGet)
		api.HandleFunc("/lyrics/{id}", s.handlePutLyrics).Methods(http.MethodPut)
	}

	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
