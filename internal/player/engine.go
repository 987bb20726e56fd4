package player

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/streamwave/internal/cache"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/state"
	"github.com/llehouerou/streamwave/internal/stream"
)

// pollInterval is how often a playing item checks whether it reached its
// end.
const pollInterval = 250 * time.Millisecond

// SourceResolver turns a media id and byte range into a readable source.
// *stream.Resolver implements it.
type SourceResolver interface {
	Resolve(ctx context.Context, id string, br stream.ByteRange) (stream.Source, error)
}

// FormatStore reads the format records written during resolution.
type FormatStore interface {
	GetFormat(id string) (*state.FormatRecord, error)
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Resolver SourceResolver
	// Formats maps a start position to a byte offset. Without it every item
	// starts from its first byte.
	Formats FormatStore
	// Cache receives every fetched chunk so later reads of the same range
	// resolve locally. Optional.
	Cache *cache.Memory
	// Sink receives the raw audio bytes in order. Defaults to io.Discard.
	Sink   io.Writer
	Logger *log.Logger
	Now    func() time.Time
}

// Engine is a headless player. It streams each item through the resolver
// chunk by chunk into the cache and sink, and paces item completion on the
// position clock against the track duration. Items with an unknown
// duration complete once their stream is exhausted.
//
// Bytes only reach the sink while playWhenReady is set. An item started at
// a position begins at the matching byte offset; when no offset can be
// derived the item starts over and the clock is reset.
type Engine struct {
	*timeline

	resolver SourceResolver
	formats  FormatStore
	cache    *cache.Memory
	sink     io.Writer
	logger   *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sinkMu sync.Mutex

	// gate is closed and replaced whenever play intent changes.
	gateMu sync.Mutex
	gate   chan struct{}
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Sink == nil {
		opts.Sink = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	e := &Engine{
		resolver: opts.Resolver,
		formats:  opts.Formats,
		cache:    opts.Cache,
		sink:     opts.Sink,
		logger:   opts.Logger.WithPrefix("player"),
		gate:     make(chan struct{}),
	}
	e.timeline = newTimeline(opts.Now, e.start, e.stop)
	e.timeline.intent = e.wake
	return e
}

// wake releases loaders waiting for play intent. It runs under the
// timeline lock.
func (e *Engine) wake() {
	e.gateMu.Lock()
	defer e.gateMu.Unlock()
	close(e.gate)
	e.gate = make(chan struct{})
}

// awaitPlay blocks until play intent is set for generation gen. It reports
// false when the item was replaced or ctx ended first.
func (e *Engine) awaitPlay(ctx context.Context, gen uint64) bool {
	for {
		e.gateMu.Lock()
		gate := e.gate
		e.gateMu.Unlock()
		if e.generation() != gen {
			return false
		}
		if e.PlayWhenReady() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-gate:
		}
	}
}

func (e *Engine) start(gen uint64, track playlist.Track, position time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.play(ctx, gen, track, position)
	}()
}

func (e *Engine) stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) play(ctx context.Context, gen uint64, track playlist.Track, position time.Duration) {
	e.logger.Debug("loading", "id", track.ID, "position", position)

	offset, ok := e.startOffset(ctx, track, position)
	if !ok {
		e.logger.Debug("no byte offset for position, starting over", "id", track.ID, "position", position)
		e.rebase(gen, 0)
		offset = 0
	}
	exhausted, err := e.fetch(ctx, gen, track.ID, offset)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.logger.Warn("load failed", "id", track.ID, "err", err)
		e.fail(gen, err)
		return
	}
	if !exhausted {
		return
	}
	// An empty stream never became ready.
	e.ready(gen)

	if !track.HasDuration() {
		e.complete(gen)
		return
	}
	end := time.Duration(track.Duration) * time.Second
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if e.generation() != gen {
			return
		}
		if e.Position() >= end {
			e.complete(gen)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// startOffset maps position to a byte offset in the stream of track.
func (e *Engine) startOffset(ctx context.Context, track playlist.Track, position time.Duration) (int64, bool) {
	if position <= 0 {
		return 0, true
	}
	if e.formats == nil {
		return 0, false
	}
	rec, err := e.formats.GetFormat(track.ID)
	if err == nil && rec == nil {
		// The record is written by the first resolution of a track.
		if _, rerr := e.resolver.Resolve(ctx, track.ID, stream.ByteRange{Length: stream.ChunkLength}); rerr == nil {
			rec, err = e.formats.GetFormat(track.ID)
		}
	}
	if err != nil {
		return 0, false
	}
	return byteOffset(rec, track, position)
}

// byteOffset assumes a constant bitrate: the content length is spread over
// the duration, or the average bitrate is used when either is unknown.
func byteOffset(rec *state.FormatRecord, track playlist.Track, position time.Duration) (int64, bool) {
	if position <= 0 {
		return 0, true
	}
	if rec == nil {
		return 0, false
	}
	if rec.ContentLength > 0 && track.HasDuration() {
		total := time.Duration(track.Duration) * time.Second
		if position >= total {
			return 0, false
		}
		return int64(float64(rec.ContentLength) * (float64(position) / float64(total))), true
	}
	if rec.Bitrate > 0 {
		off := int64(position.Seconds() * float64(rec.Bitrate) / 8)
		if rec.ContentLength > 0 && off >= rec.ContentLength {
			return 0, false
		}
		return off, true
	}
	return 0, false
}

// fetch streams id chunk by chunk from start until a short chunk marks its
// end. It reports false when ctx was cancelled or the item replaced before
// that.
func (e *Engine) fetch(ctx context.Context, gen uint64, id string, start int64) (bool, error) {
	buf := make([]byte, stream.ChunkLength)
	offset := start
	for {
		if ctx.Err() != nil {
			return false, nil
		}
		src, err := e.resolver.Resolve(ctx, id, stream.ByteRange{Position: offset, Length: stream.ChunkLength})
		if err != nil {
			return false, err
		}
		n, err := e.readChunk(ctx, src, buf)
		if err != nil {
			return false, err
		}
		if n > 0 {
			if e.cache != nil && src.Origin != stream.OriginPlayerCache {
				e.cache.Write(id, offset, buf[:n])
			}
			if offset == start {
				e.ready(gen)
			}
			if !e.awaitPlay(ctx, gen) {
				return false, nil
			}
			e.sinkMu.Lock()
			_, werr := e.sink.Write(buf[:n])
			e.sinkMu.Unlock()
			if werr != nil {
				return false, werr
			}
			offset += int64(n)
		}
		if n < stream.ChunkLength {
			return true, nil
		}
	}
}

func (e *Engine) readChunk(ctx context.Context, src stream.Source, buf []byte) (int, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	return n, err
}

// Close stops playback and waits for the loaders to exit.
func (e *Engine) Close() error {
	e.Stop()
	e.wg.Wait()
	e.close()
	return nil
}
