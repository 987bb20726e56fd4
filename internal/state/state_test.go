package state

import (
	"testing"
	"time"

	"github.com/llehouerou/streamwave/internal/playlist"
)

func setupTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func testTrack(id string, duration int) playlist.Track {
	return playlist.Track{
		ID:       id,
		Title:    "Title " + id,
		Artists:  []string{"Artist"},
		Duration: duration,
		Album:    &playlist.Album{ID: "alb", Title: "Album"},
	}
}

func TestGetSong_Unknown(t *testing.T) {
	m := setupTestManager(t)

	song, err := m.GetSong("missing")
	if err != nil {
		t.Fatalf("GetSong failed: %v", err)
	}
	if song != nil {
		t.Errorf("expected nil song, got %+v", song)
	}
}

func TestInsertSong_KeepsExisting(t *testing.T) {
	m := setupTestManager(t)

	if err := m.InsertSong(testTrack("a", 180)); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}
	changed := testTrack("a", playlist.UnknownDuration)
	changed.Title = "Other"
	if err := m.InsertSong(changed); err != nil {
		t.Fatalf("InsertSong failed: %v", err)
	}

	song, err := m.GetSong("a")
	if err != nil {
		t.Fatalf("GetSong failed: %v", err)
	}
	if song.Duration != 180 || song.Title != "Title a" {
		t.Errorf("existing song was overwritten: %+v", song)
	}
	if song.Album == nil || song.Album.Title != "Album" {
		t.Errorf("album = %+v, want Album", song.Album)
	}
	if len(song.Artists) != 1 || song.Artists[0] != "Artist" {
		t.Errorf("artists = %v", song.Artists)
	}
}

func TestBackfillDuration(t *testing.T) {
	m := setupTestManager(t)
	_ = m.InsertSong(testTrack("known", 180))
	_ = m.InsertSong(testTrack("unknown", playlist.UnknownDuration))

	tests := []struct {
		id      string
		seconds int
		updated bool
		want    int
	}{
		{"known", 200, false, 180},
		{"unknown", -1, false, -1},
		{"unknown", 240, true, 240},
		{"unknown", 300, false, 240},
	}

	for _, tt := range tests {
		updated, err := m.BackfillDuration(tt.id, tt.seconds)
		if err != nil {
			t.Fatalf("BackfillDuration failed: %v", err)
		}
		if updated != tt.updated {
			t.Errorf("BackfillDuration(%s, %d) = %v, want %v", tt.id, tt.seconds, updated, tt.updated)
		}
		song, _ := m.GetSong(tt.id)
		if song.Duration != tt.want {
			t.Errorf("duration of %s = %d, want %d", tt.id, song.Duration, tt.want)
		}
	}
}

func TestToggleLikeAndLibrary(t *testing.T) {
	m := setupTestManager(t)
	track := testTrack("a", 100)

	liked, err := m.ToggleLike(track)
	if err != nil || !liked {
		t.Fatalf("ToggleLike() = %v, %v; want true", liked, err)
	}
	liked, _ = m.ToggleLike(track)
	if liked {
		t.Error("second ToggleLike() should unlike")
	}

	inLib, err := m.ToggleLibrary(track)
	if err != nil || !inLib {
		t.Fatalf("ToggleLibrary() = %v, %v; want true", inLib, err)
	}
	song, _ := m.GetSong("a")
	if !song.InLibrary || song.Liked {
		t.Errorf("song flags = liked %v, inLibrary %v", song.Liked, song.InLibrary)
	}
}

func TestFormatRecord_RoundTrip(t *testing.T) {
	m := setupTestManager(t)

	if f, err := m.GetFormat("a"); err != nil || f != nil {
		t.Fatalf("GetFormat() = %v, %v; want nil", f, err)
	}

	loudness := -6.5
	rec := FormatRecord{
		ID: "a", Itag: 251, MimeType: "audio/webm", Codecs: "opus",
		Bitrate: 128000, SampleRate: 48000, ContentLength: 4000000, LoudnessDb: &loudness,
	}
	if err := m.UpsertFormat(rec); err != nil {
		t.Fatalf("UpsertFormat failed: %v", err)
	}

	rec.Itag = 140
	rec.LoudnessDb = nil
	if err := m.UpsertFormat(rec); err != nil {
		t.Fatalf("UpsertFormat failed: %v", err)
	}

	got, err := m.GetFormat("a")
	if err != nil {
		t.Fatalf("GetFormat failed: %v", err)
	}
	if got.Itag != 140 || got.LoudnessDb != nil || got.SampleRate != 48000 {
		t.Errorf("GetFormat() = %+v", got)
	}
}

func TestRelated(t *testing.T) {
	m := setupTestManager(t)
	_ = m.InsertSong(testTrack("seed", 100))

	if has, _ := m.HasRelated("seed"); has {
		t.Fatal("HasRelated() should be false before saving")
	}

	if err := m.SaveRelated("seed", []playlist.Track{testTrack("r1", 10), testTrack("r2", 20)}); err != nil {
		t.Fatalf("SaveRelated failed: %v", err)
	}

	if has, _ := m.HasRelated("seed"); !has {
		t.Error("HasRelated() should be true after saving")
	}
	songs, err := m.GetRelated("seed")
	if err != nil {
		t.Fatalf("GetRelated failed: %v", err)
	}
	if len(songs) != 2 || songs[0].ID != "r1" || songs[1].ID != "r2" {
		t.Errorf("GetRelated() = %+v", songs)
	}
}

func TestRecordPlay(t *testing.T) {
	m := setupTestManager(t)
	track := testTrack("a", 200)
	at := time.UnixMilli(1_700_000_000_000)

	ev, err := m.RecordPlay(track, at, 45*time.Second)
	if err != nil {
		t.Fatalf("RecordPlay failed: %v", err)
	}
	if ev.ID == "" {
		t.Error("event should have an id")
	}
	_, _ = m.RecordPlay(track, at.Add(time.Minute), 30*time.Second)

	song, _ := m.GetSong("a")
	if song.TotalPlayTime != 75_000 {
		t.Errorf("TotalPlayTime = %d, want 75000", song.TotalPlayTime)
	}

	events, err := m.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents failed: %v", err)
	}
	if len(events) != 2 || events[0].PlayTime != 30*time.Second {
		t.Errorf("RecentEvents() = %+v", events)
	}
}

func TestSettings(t *testing.T) {
	m := setupTestManager(t)

	s, err := m.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if s.Volume != 1.0 || s.RepeatMode != 0 || s.Saved {
		t.Errorf("default settings = %+v", s)
	}

	_ = m.SaveVolume(0.4)
	_ = m.SaveRepeatMode(2)

	s, _ = m.GetSettings()
	if s.Volume != 0.4 || s.RepeatMode != 2 || !s.Saved {
		t.Errorf("GetSettings() = %+v, want volume 0.4 repeat 2", s)
	}
}

func TestLyrics(t *testing.T) {
	m := setupTestManager(t)

	if err := m.UpsertLyrics(Lyrics{ID: "a", Text: "la la"}); err != nil {
		t.Fatalf("UpsertLyrics failed: %v", err)
	}
	_ = m.UpsertLyrics(Lyrics{ID: "a", Text: "la la", Translation: "tra la"})

	l, err := m.GetLyrics("a")
	if err != nil {
		t.Fatalf("GetLyrics failed: %v", err)
	}
	if l.Translation != "tra la" {
		t.Errorf("Translation = %q", l.Translation)
	}
}

func TestPendingScrobbles(t *testing.T) {
	m := setupTestManager(t)

	_ = m.AddPendingScrobble(PendingScrobble{SongID: "a", Artist: "X", Track: "One", Timestamp: time.Unix(100, 0)})
	_ = m.AddPendingScrobble(PendingScrobble{SongID: "b", Artist: "Y", Track: "Two", Timestamp: time.Unix(200, 0)})

	pending, err := m.GetPendingScrobbles()
	if err != nil {
		t.Fatalf("GetPendingScrobbles failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len = %d, want 2", len(pending))
	}

	_ = m.UpdatePendingScrobbleAttempt(pending[0].ID, "offline")
	_ = m.DeletePendingScrobble(pending[1].ID)

	pending, _ = m.GetPendingScrobbles()
	if len(pending) != 1 || pending[0].Attempts != 1 || pending[0].LastError != "offline" {
		t.Errorf("pending = %+v", pending)
	}
}
