//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
	return path
}

func ptr[T any](v T) *T { return &v }

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/var/cache/streamwave",
			expected: "/var/cache/streamwave",
		},
		{
			name:     "relative path unchanged",
			input:    "cache/audio",
			expected: "cache/audio",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) != 2 {
		t.Fatalf("getConfigPaths() returned %d paths, want 2", len(paths))
	}

	// Last path should be local config.toml
	if paths[1] != "config.toml" {
		t.Errorf("last config path = %q, want %q", paths[1], "config.toml")
	}

	extra := getConfigPaths("/tmp/other.toml", "config.toml")
	if len(extra) != 3 || extra[2] != "/tmp/other.toml" {
		t.Errorf("getConfigPaths(extra) = %v, want the extra path appended once", extra)
	}
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	got := cfg.GetPlaybackConfig()

	want := Playback{
		AudioQuality:    "auto",
		AutoLoadMore:    true,
		PersistentQueue: true,
		NormalizeAudio:  true,
		RepeatMode:      "off",
		Volume:          1.0,
	}
	if got != want {
		t.Errorf("GetPlaybackConfig() = %+v, want %+v", got, want)
	}
}

func TestGetPlaybackConfig_CustomValues(t *testing.T) {
	cfg := &Config{Playback: PlaybackConfig{
		AudioQuality:    "LOW",
		HideExplicit:    true,
		AutoLoadMore:    ptr(false),
		AutoSkipOnError: true,
		PersistentQueue: ptr(false),
		NormalizeAudio:  ptr(false),
		RepeatMode:      "all",
		Volume:          ptr(0.4),
		PauseHistory:    true,
	}}
	got := cfg.GetPlaybackConfig()

	if got.AudioQuality != "low" {
		t.Errorf("AudioQuality = %q, want %q", got.AudioQuality, "low")
	}
	if !got.HideExplicit || got.AutoLoadMore || !got.AutoSkipOnError || got.PersistentQueue || got.NormalizeAudio {
		t.Errorf("boolean flags not honored: %+v", got)
	}
	if got.RepeatMode != "all" {
		t.Errorf("RepeatMode = %q, want %q", got.RepeatMode, "all")
	}
	if got.Volume != 0.4 {
		t.Errorf("Volume = %v, want 0.4", got.Volume)
	}
	if !got.PauseHistory {
		t.Error("PauseHistory = false, want true")
	}
}

func TestGetPlaybackConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		config PlaybackConfig
		check  func(Playback) bool
	}{
		{"unknown quality", PlaybackConfig{AudioQuality: "ultra"}, func(p Playback) bool { return p.AudioQuality == "auto" }},
		{"unknown repeat", PlaybackConfig{RepeatMode: "shuffle"}, func(p Playback) bool { return p.RepeatMode == "off" }},
		{"volume above range", PlaybackConfig{Volume: ptr(1.5)}, func(p Playback) bool { return p.Volume == 1.0 }},
		{"negative volume", PlaybackConfig{Volume: ptr(-0.1)}, func(p Playback) bool { return p.Volume == 1.0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Playback: tt.config}
			if got := cfg.GetPlaybackConfig(); !tt.check(got) {
				t.Errorf("GetPlaybackConfig() = %+v", got)
			}
		})
	}
}

func TestGetCatalogConfig_Defaults(t *testing.T) {
	got := (&Config{}).GetCatalogConfig()
	if got.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", got.Timeout)
	}
	if got.RateLimit != 5 || got.Burst != 5 {
		t.Errorf("RateLimit/Burst = %v/%d, want 5/5", got.RateLimit, got.Burst)
	}
}

func TestGetCacheConfig_Defaults(t *testing.T) {
	got := (&Config{}).GetCacheConfig()
	if got.PlayerCacheMB != 256 {
		t.Errorf("PlayerCacheMB = %d, want 256", got.PlayerCacheMB)
	}
	if got.DownloadDir == "" {
		t.Error("DownloadDir is empty")
	}
	if got.DownloadBackend != "disk" || got.URLBackend != "memory" {
		t.Errorf("backends = %q/%q, want disk/memory", got.DownloadBackend, got.URLBackend)
	}
}

func TestPresenceEnabled(t *testing.T) {
	tests := []struct {
		name     string
		presence PresenceConfig
		want     bool
	}{
		{"not configured", PresenceConfig{}, false},
		{"only key", PresenceConfig{APIKey: "k"}, false},
		{"configured", PresenceConfig{APIKey: "k", APISecret: "s"}, true},
		{"configured but disabled", PresenceConfig{APIKey: "k", APISecret: "s", Enabled: ptr(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Presence: tt.presence}
			if got := cfg.PresenceEnabled(); got != tt.want {
				t.Errorf("PresenceEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadFrom_BasicConfig(t *testing.T) {
	path := writeConfig(t, `
[playback]
audio_quality = "high"
auto_load_more = false
volume = 0.5

[catalog]
url = "https://catalog.example.com/"
timeout = "3s"

[cache]
url_backend = "redis"
download_dir = "~/audio"

[cache.redis]
addr = "localhost:6379"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	pb := cfg.GetPlaybackConfig()
	if pb.AudioQuality != "high" || pb.AutoLoadMore || pb.Volume != 0.5 {
		t.Errorf("playback = %+v", pb)
	}

	// Check that URL trailing slash is removed
	if cfg.Catalog.URL != "https://catalog.example.com" {
		t.Errorf("Catalog.URL = %q, want %q", cfg.Catalog.URL, "https://catalog.example.com")
	}
	if cfg.Catalog.Timeout != 3*time.Second {
		t.Errorf("Catalog.Timeout = %v, want 3s", cfg.Catalog.Timeout)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" {
		t.Errorf("Cache.Redis.Addr = %q", cfg.Cache.Redis.Addr)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "audio"); cfg.Cache.DownloadDir != want {
		t.Errorf("Cache.DownloadDir = %q, want %q", cfg.Cache.DownloadDir, want)
	}
}

func TestLoadFrom_LastWins(t *testing.T) {
	first := writeConfig(t, "[server]\naddr = \"a:1\"\n")
	second := writeConfig(t, "[server]\naddr = \"b:2\"\n")

	cfg, err := LoadFrom(first, second)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Addr != "b:2" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, "b:2")
	}
}

func TestLoadFrom_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got := cfg.GetServerConfig().Addr; got != "127.0.0.1:8765" {
		t.Errorf("default server addr = %q", got)
	}
}

func TestLoadFrom_InvalidToml(t *testing.T) {
	path := writeConfig(t, "invalid = [[[")

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() expected error for invalid TOML, got nil")
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "[playback]\nhide_explicit = false\n")

	got := make(chan *Config, 4)
	stop, err := Watch(path, func(cfg *Config, err error) {
		if err == nil && cfg != nil {
			got <- cfg
		}
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte("[playback]\nhide_explicit = true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-got:
			if cfg.Playback.HideExplicit {
				return
			}
		case <-timeout:
			t.Fatal("no reload observed")
		}
	}
}
