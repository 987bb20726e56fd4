//nolint:goconst // test file with repeated string literals
package playlist

import "testing"

func ids(tracks []Track) []string {
	result := make([]string, len(tracks))
	for i, t := range tracks {
		result[i] = t.ID
	}
	return result
}

func equalIDs(got []Track, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewPlaylist(t *testing.T) {
	p := NewPlaylist()

	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
	if p.Tracks() == nil {
		t.Error("Tracks() should return empty slice, not nil")
	}
}

func TestPlaylist_Add(t *testing.T) {
	p := NewPlaylist()

	p.Add(Track{ID: "a"}, Track{ID: "b"})

	if !equalIDs(p.Tracks(), "a", "b") {
		t.Errorf("Tracks() = %v, want [a b]", ids(p.Tracks()))
	}
}

func TestPlaylist_Insert(t *testing.T) {
	tests := []struct {
		name  string
		index int
		ok    bool
		want  []string
	}{
		{"front", 0, true, []string{"x", "y", "a", "b", "c"}},
		{"middle", 1, true, []string{"a", "x", "y", "b", "c"}},
		{"end appends", 3, true, []string{"a", "b", "c", "x", "y"}},
		{"negative", -1, false, []string{"a", "b", "c"}},
		{"past end", 4, false, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlaylist()
			p.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"})

			ok := p.Insert(tt.index, Track{ID: "x"}, Track{ID: "y"})

			if ok != tt.ok {
				t.Errorf("Insert() = %v, want %v", ok, tt.ok)
			}
			if !equalIDs(p.Tracks(), tt.want...) {
				t.Errorf("Tracks() = %v, want %v", ids(p.Tracks()), tt.want)
			}
		})
	}
}

func TestPlaylist_RemoveRange(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"}, Track{ID: "d"})

	if !p.RemoveRange(1, 3) {
		t.Fatal("RemoveRange should return true")
	}
	if !equalIDs(p.Tracks(), "a", "d") {
		t.Errorf("Tracks() = %v, want [a d]", ids(p.Tracks()))
	}
	if p.RemoveRange(1, 5) {
		t.Error("RemoveRange past end should return false")
	}
	if p.RemoveRange(2, 1) {
		t.Error("RemoveRange with from > to should return false")
	}
}

func TestPlaylist_Remove_InvalidIndex(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"})

	for _, idx := range []int{-1, 1, 5} {
		if p.Remove(idx) {
			t.Errorf("Remove(%d) should return false", idx)
		}
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

func TestPlaylist_Tracks_ReturnsCopy(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"})

	tracks := p.Tracks()
	tracks[0].ID = "modified"

	if p.Track(0).ID != "a" {
		t.Error("Tracks() should return a copy")
	}
}

func TestPlaylist_Move(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"})

	if !p.Move(0, 2) {
		t.Fatal("Move should return true")
	}
	if !equalIDs(p.Tracks(), "b", "c", "a") {
		t.Errorf("Tracks() = %v, want [b c a]", ids(p.Tracks()))
	}
	if p.Move(0, 5) {
		t.Error("Move out of bounds should return false")
	}
}

func TestTrack_Duration(t *testing.T) {
	tr := Track{ID: "a", Duration: UnknownDuration}

	if tr.HasDuration() {
		t.Error("HasDuration() should be false for unknown duration")
	}

	withDur := tr.WithDuration(180)
	if !withDur.HasDuration() || withDur.Duration != 180 {
		t.Errorf("WithDuration(180) = %d", withDur.Duration)
	}
	if tr.Duration != UnknownDuration {
		t.Error("WithDuration should not modify the original")
	}
}

func TestTrack_ArtistNames(t *testing.T) {
	tr := Track{Artists: []string{"A", "B"}}
	if got := tr.ArtistNames(); got != "A, B" {
		t.Errorf("ArtistNames() = %q, want %q", got, "A, B")
	}
}
