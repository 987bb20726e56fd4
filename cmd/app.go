package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/llehouerou/streamwave/internal/cache"
	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/config"
	"github.com/llehouerou/streamwave/internal/logging"
	"github.com/llehouerou/streamwave/internal/state"
	"github.com/llehouerou/streamwave/internal/stream"
	"github.com/llehouerou/streamwave/internal/urlcache"
)

// app holds the components shared by every command.
type app struct {
	cfg    *config.Config
	logger *log.Logger

	state       *state.Manager
	catalog     *catalog.Client
	playerCache *cache.Memory
	downloads   cache.Store
	urls        urlcache.Cache
	network     *stream.Probe
	reconciler  *stream.Reconciler
	resolver    *stream.Resolver

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(extraConfig()...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, logCloser, err := logging.New(cfg.GetLogConfig())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	a.onClose(logCloser.Close)

	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	var err error
	a.state, err = state.Open("")
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	a.onClose(a.state.Close)

	catCfg := a.cfg.GetCatalogConfig()
	a.catalog = catalog.NewClient(catalog.Options{
		BaseURL:   catCfg.URL,
		Timeout:   catCfg.Timeout,
		RateLimit: catCfg.RateLimit,
		Burst:     catCfg.Burst,
	})
	probeAddr := catCfg.ProbeAddr
	if probeAddr == "" {
		probeAddr = a.catalog.Host()
	}
	a.network = stream.NewProbe(probeAddr, catCfg.Metered)

	cacheCfg := a.cfg.GetCacheConfig()
	a.playerCache = cache.NewMemory(int64(cacheCfg.PlayerCacheMB) << 20)
	if a.downloads, err = a.downloadStore(ctx, cacheCfg); err != nil {
		return err
	}
	a.urls = a.urlCache(ctx, cacheCfg)

	a.reconciler = stream.NewReconciler(a.catalog, a.state, a.logger)
	a.onClose(func() error {
		a.reconciler.Close()
		return nil
	})

	quality, err := stream.ParseQuality(a.cfg.GetPlaybackConfig().AudioQuality)
	if err != nil {
		a.logger.Warn("invalid audio quality, using auto", "err", err)
	}
	a.resolver = stream.NewResolver(stream.Options{
		Catalog:       a.catalog,
		Store:         a.state,
		PlayerCache:   a.playerCache,
		DownloadCache: a.downloads,
		URLCache:      a.urls,
		Network:       a.network,
		Reconciler:    a.reconciler,
		Quality:       quality,
		Logger:        a.logger,
	})
	return nil
}

func (a *app) downloadStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.DownloadBackend {
	case "minio":
		store, err := cache.NewMinio(ctx, cache.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio download cache: %w", err)
		}
		return store, nil
	case "disk", "":
		store, err := cache.NewDisk(cfg.DownloadDir)
		if err != nil {
			return nil, fmt.Errorf("disk download cache: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown download backend %q", cfg.DownloadBackend)
	}
}

// urlCache uses Redis when configured and reachable, else memory.
func (a *app) urlCache(ctx context.Context, cfg config.CacheConfig) urlcache.Cache {
	if cfg.URLBackend != "redis" {
		return urlcache.NewMemory(time.Now)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn("redis unavailable, using in-memory url cache", "addr", cfg.Redis.Addr, "err", err)
		_ = client.Close()
		return urlcache.NewMemory(time.Now)
	}
	a.onClose(client.Close)
	return urlcache.NewRedis(client, time.Now)
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases components in reverse creation order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
