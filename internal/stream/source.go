package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/llehouerou/streamwave/internal/cache"
)

// ChunkLength bounds the range served by a freshly resolved URL so a seek
// never requests the whole remote object.
const ChunkLength = 512 * 1024

// ByteRange is a requested span of a track. Length < 0 means "to the end".
type ByteRange struct {
	Position int64
	Length   int64
}

// End returns the exclusive end offset, or -1 when unbounded.
func (r ByteRange) End() int64 {
	if r.Length < 0 {
		return -1
	}
	return r.Position + r.Length
}

// Origin tells where a Source reads from.
type Origin int

const (
	OriginPlayerCache Origin = iota
	OriginDownloadCache
	OriginURL
)

func (o Origin) String() string {
	switch o {
	case OriginPlayerCache:
		return "player cache"
	case OriginDownloadCache:
		return "download cache"
	default:
		return "network"
	}
}

// Source is a resolved byte source for one range of a track.
type Source struct {
	MediaID string
	Origin  Origin
	Range   ByteRange
	URL     string

	tier   cache.Tier
	client *http.Client
}

// Open starts reading the source.
func (s Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.Origin != OriginURL {
		return s.tier.Open(ctx, s.MediaID, s.Range.Position, s.Range.Length)
	}
	return s.openURL(ctx)
}

func (s Source) openURL(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.Range.Length < 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", s.Range.Position))
	} else {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", s.Range.Position, s.Range.End()-1))
	}

	client := s.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(err)
	}

	switch {
	case resp.StatusCode == http.StatusPartialContent:
		return resp.Body, nil
	case resp.StatusCode == http.StatusOK && s.Range.Position == 0:
		// server ignored the range header
		if s.Range.Length >= 0 {
			return &limitedBody{Reader: io.LimitReader(resp.Body, s.Range.Length), body: resp.Body}, nil
		}
		return resp.Body, nil
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return io.NopCloser(eofReader{}), nil
	default:
		resp.Body.Close()
		return nil, &ResolutionError{
			Kind: KindRemote,
			Code: resp.StatusCode,
			Err:  fmt.Errorf("stream %s: status %d", s.MediaID, resp.StatusCode),
		}
	}
}

type limitedBody struct {
	io.Reader
	body io.Closer
}

func (l *limitedBody) Close() error { return l.body.Close() }

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
