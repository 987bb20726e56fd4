package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Playback behavior (quality, filtering, queue and error policy)
	Playback PlaybackConfig `koanf:"playback"`

	// Catalog service connection
	Catalog CatalogConfig `koanf:"catalog"`

	// Byte and URL caches
	Cache CacheConfig `koanf:"cache"`

	// Last.fm presence (now playing + scrobbling when configured)
	Presence PresenceConfig `koanf:"presence"`

	// Control server
	Server ServerConfig `koanf:"server"`

	// Audio output of the headless player
	Player PlayerConfig `koanf:"player"`

	Log LogConfig `koanf:"log"`
}

// PlaybackConfig holds the playback settings as written in the file.
// Use GetPlaybackConfig for the values with defaults applied.
type PlaybackConfig struct {
	AudioQuality    string   `koanf:"audio_quality"`      // "auto", "high" or "low" (default: "auto")
	HideExplicit    bool     `koanf:"hide_explicit"`      // drop explicit tracks from queues
	AutoLoadMore    *bool    `koanf:"auto_load_more"`     // fetch more radio tracks near the end (default: true)
	AutoSkipOnError bool     `koanf:"auto_skip_on_error"` // skip to next track on playback errors
	PersistentQueue *bool    `koanf:"persistent_queue"`   // restore the queue at startup (default: true)
	NormalizeAudio  *bool    `koanf:"normalize_audio"`    // loudness normalization (default: true)
	RepeatMode      string   `koanf:"repeat_mode"`        // "off", "one" or "all"; initial mode if none saved
	Volume          *float64 `koanf:"volume"`             // initial volume if none saved (0.0-1.0, default: 1.0)
	SkipSilence     bool     `koanf:"skip_silence"`
	PauseHistory    bool     `koanf:"pause_history"` // do not record play events
}

// Playback is PlaybackConfig with defaults applied.
type Playback struct {
	AudioQuality    string
	HideExplicit    bool
	AutoLoadMore    bool
	AutoSkipOnError bool
	PersistentQueue bool
	NormalizeAudio  bool
	RepeatMode      string
	Volume          float64
	SkipSilence     bool
	PauseHistory    bool
}

// CatalogConfig holds the catalog service connection settings.
type CatalogConfig struct {
	URL       string        `koanf:"url"`
	Timeout   time.Duration `koanf:"timeout"`    // e.g. "10s" (default: 10s)
	RateLimit float64       `koanf:"rate_limit"` // requests per second (default: 5)
	Burst     int           `koanf:"burst"`      // (default: 5)
	Metered   bool          `koanf:"metered"`    // treat the network as metered for "auto" quality
	ProbeAddr string        `koanf:"probe_addr"` // host:port dialed to detect connectivity (default: catalog host)
}

// CacheConfig holds the cache tier settings.
type CacheConfig struct {
	PlayerCacheMB   int         `koanf:"player_cache_mb"`  // in-memory player cache budget (default: 256)
	DownloadDir     string      `koanf:"download_dir"`     // disk download cache (default: $XDG_CACHE_HOME/streamwave/downloads)
	DownloadBackend string      `koanf:"download_backend"` // "disk" or "minio" (default: "disk")
	URLBackend      string      `koanf:"url_backend"`      // "memory" or "redis" (default: "memory")
	Redis           RedisConfig `koanf:"redis"`
	Minio           MinioConfig `koanf:"minio"`
}

// RedisConfig holds the Redis URL cache connection.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// MinioConfig holds the MinIO download cache connection.
type MinioConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	UseSSL    bool   `koanf:"use_ssl"`
}

// PresenceConfig holds Last.fm credentials.
type PresenceConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"` // optional, otherwise read from the state database
	Enabled    *bool  `koanf:"enabled"`     // (default: true when api_key and api_secret are set)
}

// ServerConfig holds the control server settings.
type ServerConfig struct {
	Addr string `koanf:"addr"` // (default: "127.0.0.1:8765")
}

// PlayerConfig holds headless player settings.
type PlayerConfig struct {
	SinkCommand []string `koanf:"sink_command"` // command receiving the audio stream on stdin, e.g. ["ffplay", "-nodisp", "-"]
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `koanf:"level"` // "debug", "info", "warn", "error" (default: "info")
	File       string `koanf:"file"`  // empty logs to stderr
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// Load reads the default config files followed by extra. Missing files
// are skipped.
func Load(extra ...string) (*Config, error) {
	return LoadFrom(getConfigPaths(extra...)...)
}

// LoadFrom reads the given config files in order (last wins).
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize catalog URL (remove trailing slash)
	cfg.Catalog.URL = strings.TrimSuffix(cfg.Catalog.URL, "/")

	if cfg.Cache.DownloadDir != "" {
		cfg.Cache.DownloadDir = expandPath(cfg.Cache.DownloadDir)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}

	return cfg, nil
}

// Watch reloads path whenever it changes and hands the result to fn.
// Reload errors are passed to fn with a nil config. The returned function
// stops watching.
func Watch(path string, fn func(*Config, error)) (func(), error) {
	fp := file.Provider(path)
	err := fp.Watch(func(_ any, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(LoadFrom(getConfigPaths(path)...))
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return func() { _ = fp.Unwatch() }, nil
}

// Path returns the config file that Watch should follow: the local
// config.toml when present, otherwise the user config file.
func Path() string {
	paths := getConfigPaths()
	for i := len(paths) - 1; i >= 0; i-- {
		if _, err := os.Stat(paths[i]); err == nil {
			return paths[i]
		}
	}
	return paths[0]
}

func getConfigPaths(extra ...string) []string {
	paths := []string{}

	// 1. ~/.config/streamwave/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, "streamwave", "config.toml"))

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	for _, p := range extra {
		if p != paths[0] && p != paths[1] {
			paths = append(paths, p)
		}
	}

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasPresenceConfig returns true if Last.fm credentials are configured.
func (c *Config) HasPresenceConfig() bool {
	return c.Presence.APIKey != "" && c.Presence.APISecret != ""
}

// PresenceEnabled returns true if presence updates should be sent.
func (c *Config) PresenceEnabled() bool {
	if !c.HasPresenceConfig() {
		return false
	}
	return boolOr(c.Presence.Enabled, true)
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() Playback {
	p := c.Playback
	cfg := Playback{
		AudioQuality:    strings.ToLower(p.AudioQuality),
		HideExplicit:    p.HideExplicit,
		AutoLoadMore:    boolOr(p.AutoLoadMore, true),
		AutoSkipOnError: p.AutoSkipOnError,
		PersistentQueue: boolOr(p.PersistentQueue, true),
		NormalizeAudio:  boolOr(p.NormalizeAudio, true),
		RepeatMode:      strings.ToLower(p.RepeatMode),
		Volume:          1.0,
		SkipSilence:     p.SkipSilence,
		PauseHistory:    p.PauseHistory,
	}

	switch cfg.AudioQuality {
	case "auto", "high", "low":
	default:
		cfg.AudioQuality = "auto"
	}
	switch cfg.RepeatMode {
	case "off", "one", "all":
	default:
		cfg.RepeatMode = "off"
	}
	if p.Volume != nil && *p.Volume >= 0 && *p.Volume <= 1 {
		cfg.Volume = *p.Volume
	}

	return cfg
}

// GetCatalogConfig returns the catalog configuration with defaults applied.
func (c *Config) GetCatalogConfig() CatalogConfig {
	cfg := c.Catalog
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return cfg
}

// GetCacheConfig returns the cache configuration with defaults applied.
func (c *Config) GetCacheConfig() CacheConfig {
	cfg := c.Cache
	if cfg.PlayerCacheMB <= 0 {
		cfg.PlayerCacheMB = 256
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = filepath.Join(xdg.CacheHome, "streamwave", "downloads")
	}
	if cfg.DownloadBackend != "minio" {
		cfg.DownloadBackend = "disk"
	}
	if cfg.URLBackend != "redis" {
		cfg.URLBackend = "memory"
	}
	if cfg.Minio.Bucket == "" {
		cfg.Minio.Bucket = "streamwave"
	}
	return cfg
}

// GetServerConfig returns the server configuration with defaults applied.
func (c *Config) GetServerConfig() ServerConfig {
	cfg := c.Server
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8765"
	}
	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 28
	}
	return cfg
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
