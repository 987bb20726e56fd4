package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient(t *testing.T) {
	t.Run("NewClient", func(t *testing.T) {
		t.Run("uses default URL", func(t *testing.T) {
			if c := NewClient(Options{}); c.baseURL != defaultBaseURL {
				t.Errorf("expected baseURL %s, got %s", defaultBaseURL, c.baseURL)
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			if c := NewClient(Options{BaseURL: "http://proxy:9000/"}); c.baseURL != "http://proxy:9000" {
				t.Errorf("expected trimmed baseURL, got %s", c.baseURL)
			}
		})

		t.Run("host adds default port", func(t *testing.T) {
			if h := NewClient(Options{BaseURL: "https://catalog.example"}).Host(); h != "catalog.example:443" {
				t.Errorf("expected catalog.example:443, got %s", h)
			}
		})
	})

	t.Run("Player", func(t *testing.T) {
		loudness := -7.5
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/player" {
				t.Errorf("expected path /player, got %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("videoId"); got != "abc" {
				t.Errorf("expected videoId abc, got %s", got)
			}
			_ = json.NewEncoder(w).Encode(PlayerResponse{
				Playability:      Playability{Status: PlayabilityOK},
				ExpiresInSeconds: 21540,
				LoudnessDb:       &loudness,
				Formats: []Format{
					{Itag: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 128000, URL: "https://cdn/251"},
				},
			})
		}))
		defer server.Close()

		resp, err := NewClient(Options{BaseURL: server.URL}).Player(context.Background(), "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !resp.Playable() {
			t.Error("expected playable response")
		}
		if len(resp.Formats) != 1 || resp.Formats[0].Itag != 251 {
			t.Fatalf("unexpected formats: %+v", resp.Formats)
		}
		if resp.LoudnessDb == nil || *resp.LoudnessDb != loudness {
			t.Errorf("expected loudness %v, got %v", loudness, resp.LoudnessDb)
		}
	})

	t.Run("status errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/related" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"detail":"upstream down"}`))
		}))
		defer server.Close()

		c := NewClient(Options{BaseURL: server.URL})

		_, err := c.Player(context.Background(), "abc")
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if statusErr.Code != http.StatusBadGateway || statusErr.Detail != "upstream down" {
			t.Errorf("unexpected status error: %+v", statusErr)
		}

		_, err = c.Related(context.Background(), "abc")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
			t.Errorf("expected 404 StatusError, got %v", err)
		}
	})

	t.Run("rate limit deadline is a timeout", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte(`{"tracks":[]}`))
		}))
		defer server.Close()

		c := NewClient(Options{BaseURL: server.URL, RateLimit: 0.1, Burst: 1})
		if _, err := c.Related(context.Background(), "a"); err != nil {
			t.Fatalf("first call should use the burst, got %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := c.Related(ctx, "b")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
		if n := hits.Load(); n != 1 {
			t.Errorf("expected the limited call to skip the server, got %d hits", n)
		}
	})

	t.Run("Next passes continuation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("videoId") != "seed" || q.Get("continuation") != "tok" {
				t.Errorf("unexpected query: %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"title":"Radio","tracks":[{"id":"t1","title":"One","duration":200}],"continuation":"tok2"}`))
		}))
		defer server.Close()

		page, err := NewClient(Options{BaseURL: server.URL}).Next(context.Background(), Endpoint{VideoID: "seed"}, "tok")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Continuation != "tok2" || len(page.Tracks) != 1 || page.Tracks[0].ID != "t1" {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("timeout surfaces as net timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		_, err := NewClient(Options{BaseURL: server.URL, Timeout: 20 * time.Millisecond}).Player(context.Background(), "abc")
		var timeout interface{ Timeout() bool }
		if !errors.As(err, &timeout) || !timeout.Timeout() {
			t.Errorf("expected timeout error, got %v", err)
		}
	})
}

func TestFormat_MimeParts(t *testing.T) {
	f := Format{MimeType: `audio/webm; codecs="opus"`}

	if f.Container() != "audio/webm" {
		t.Errorf("Container() = %q", f.Container())
	}
	if f.Codecs() != "opus" {
		t.Errorf("Codecs() = %q", f.Codecs())
	}
	if !f.IsAudio() {
		t.Error("IsAudio() should be true")
	}
	if (Format{MimeType: "video/mp4"}).IsAudio() {
		t.Error("IsAudio() should be false for video")
	}
}
