package stream

import (
	"testing"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/state"
)

var (
	opus128 = catalog.Format{Itag: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 128000, URL: "u251"}
	opus50  = catalog.Format{Itag: 249, MimeType: `audio/webm; codecs="opus"`, Bitrate: 50000, URL: "u249"}
	aac128  = catalog.Format{Itag: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130000, URL: "u140"}
	video   = catalog.Format{Itag: 22, MimeType: `video/mp4; codecs="avc1"`, Bitrate: 900000, URL: "u22"}
)

func TestSelectFormat(t *testing.T) {
	tests := []struct {
		name     string
		formats  []catalog.Format
		prior    *state.FormatRecord
		quality  Quality
		metered  bool
		wantItag int
	}{
		{"high picks highest bitrate", []catalog.Format{opus50, opus128}, nil, QualityHigh, false, 251},
		{"low picks lowest bitrate", []catalog.Format{opus128, opus50}, nil, QualityLow, false, 249},
		{"auto unmetered is high", []catalog.Format{opus50, opus128}, nil, QualityAuto, false, 251},
		{"auto metered is low", []catalog.Format{opus128, opus50}, nil, QualityAuto, true, 249},
		{"low ignores metered", []catalog.Format{opus128, opus50}, nil, QualityLow, false, 249},
		{"webm bonus beats slightly higher bitrate", []catalog.Format{aac128, opus128}, nil, QualityHigh, false, 251},
		{"video is never chosen", []catalog.Format{video, opus50}, nil, QualityHigh, false, 249},
		{"prior itag wins", []catalog.Format{opus128, opus50}, &state.FormatRecord{Itag: 249}, QualityHigh, false, 249},
		{"missing prior falls back", []catalog.Format{opus128, opus50}, &state.FormatRecord{Itag: 18}, QualityHigh, false, 251},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectFormat(tt.formats, tt.prior, tt.quality, tt.metered)
			if got == nil {
				t.Fatal("SelectFormat() = nil")
			}
			if got.Itag != tt.wantItag {
				t.Errorf("SelectFormat() itag = %d, want %d", got.Itag, tt.wantItag)
			}
		})
	}
}

func TestSelectFormat_NoAudio(t *testing.T) {
	if got := SelectFormat([]catalog.Format{video}, nil, QualityHigh, false); got != nil {
		t.Errorf("SelectFormat() = %+v, want nil", got)
	}
	if got := SelectFormat(nil, nil, QualityAuto, false); got != nil {
		t.Errorf("SelectFormat(nil) = %+v, want nil", got)
	}
}

func TestSelectFormat_TieKeepsFirst(t *testing.T) {
	a := catalog.Format{Itag: 1, MimeType: "audio/mp4", Bitrate: 100}
	b := catalog.Format{Itag: 2, MimeType: "audio/mp4", Bitrate: 100}

	for range 10 {
		if got := SelectFormat([]catalog.Format{a, b}, nil, QualityHigh, false); got.Itag != 1 {
			t.Fatalf("SelectFormat() itag = %d, want 1", got.Itag)
		}
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		in      string
		want    Quality
		wantErr bool
	}{
		{"", QualityAuto, false},
		{"AUTO", QualityAuto, false},
		{"high", QualityHigh, false},
		{" low ", QualityLow, false},
		{"best", QualityAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseQuality(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuality(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseQuality(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
