package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/llehouerou/streamwave/internal/config"
	"github.com/llehouerou/streamwave/internal/lastfm"
	"github.com/llehouerou/streamwave/internal/mpris"
	"github.com/llehouerou/streamwave/internal/notify"
	"github.com/llehouerou/streamwave/internal/persist"
	"github.com/llehouerou/streamwave/internal/playback"
	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the player and its control API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	sink, err := startSink(ctx, a.cfg.Player.SinkCommand, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	engine := player.NewEngine(player.EngineOptions{
		Resolver: a.resolver,
		Formats:  a.state,
		Cache:    a.playerCache,
		Sink:     sink,
		Logger:   logger,
	})
	defer engine.Close()

	queueStore, err := persist.NewStore("")
	if err != nil {
		return fmt.Errorf("queue store: %w", err)
	}

	notifier, err := notify.New("Streamwave")
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	nowPlaying := notify.NewNowPlaying(notifier, logger)
	defer nowPlaying.Dismiss()

	opts := playback.Options{
		Player:     engine,
		Store:      a.state,
		Catalog:    a.catalog,
		Resolver:   a.resolver,
		Reconciler: a.reconciler,
		Persist:    queueStore,
		Notifier:   nowPlaying,
		Effects:    playback.LogEffects{Logger: logger.WithPrefix("effects")},
		Settings:   a.cfg.GetPlaybackConfig(),
		Logger:     logger,
	}
	if a.cfg.HasPresenceConfig() {
		presence := lastfm.NewPresence(lastfm.New(a.cfg.Presence.APIKey, a.cfg.Presence.APISecret), a.state, logger)
		go presence.Run(ctx)
		opts.Presence = presence
	}

	hub := playback.New(opts)
	hub.ConfigurePresence(a.cfg.Presence.SessionKey, a.cfg.PresenceEnabled())

	hubDone := make(chan error, 1)
	go func() { hubDone <- hub.Run(ctx) }()
	defer func() {
		_ = hub.Close()
		<-hubDone
	}()

	if adapter, err := mpris.New(hub, logger); err != nil {
		logger.Warn("mpris unavailable", "err", err)
	} else {
		defer adapter.Close()
	}

	if unwatch, err := watchConfig(hub, logger); err != nil {
		logger.Warn("config reload disabled", "err", err)
	} else {
		defer unwatch()
	}

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.GetServerConfig().Addr
	}
	srv := server.New(server.Options{Controller: hub, Catalog: a.catalog, Lyrics: a.state, Logger: logger})
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("control server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

// watchConfig applies playback and presence settings when the config file
// changes.
func watchConfig(hub *playback.Hub, logger *log.Logger) (func(), error) {
	path := config.Path()
	if configPath != "" {
		path = configPath
	}
	return config.Watch(path, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", "err", err)
			return
		}
		if err := hub.ApplySettings(cfg.GetPlaybackConfig()); err != nil {
			logger.Warn("apply settings", "err", err)
			return
		}
		hub.ConfigurePresence(cfg.Presence.SessionKey, cfg.PresenceEnabled())
		logger.Info("config reloaded", "path", path)
	})
}
