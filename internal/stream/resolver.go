// Package stream resolves track ids into playable byte sources, preferring
// cached bytes, then a cached URL, then a fresh catalog lookup.
package stream

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/streamwave/internal/cache"
	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/state"
	"github.com/llehouerou/streamwave/internal/urlcache"
)

// Options configures a Resolver. Catalog, Store and URLCache are required.
type Options struct {
	Catalog       catalog.Catalog
	Store         state.Interface
	PlayerCache   cache.Tier
	DownloadCache cache.Tier
	URLCache      urlcache.Cache
	Network       Network
	Reconciler    *Reconciler
	Quality       Quality
	HTTPClient    *http.Client
	Logger        *log.Logger
	Now           func() time.Time
}

// Resolver turns (track id, byte range) requests into Sources.
// It is safe for concurrent use.
type Resolver struct {
	catalog    catalog.Catalog
	store      state.Interface
	player     cache.Tier
	download   cache.Tier
	urls       urlcache.Cache
	network    Network
	reconciler *Reconciler
	client     *http.Client
	logger     *log.Logger
	now        func() time.Time

	quality atomic.Int32
}

// NewResolver creates a resolver.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		catalog:    opts.Catalog,
		store:      opts.Store,
		player:     opts.PlayerCache,
		download:   opts.DownloadCache,
		urls:       opts.URLCache,
		network:    opts.Network,
		reconciler: opts.Reconciler,
		client:     opts.HTTPClient,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if r.network == nil {
		r.network = StaticNetwork{}
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	r.logger = r.logger.WithPrefix("stream")
	if r.now == nil {
		r.now = time.Now
	}
	r.quality.Store(int32(opts.Quality))
	return r
}

// SetQuality changes the preference used for tracks without a format record.
func (r *Resolver) SetQuality(q Quality) {
	r.quality.Store(int32(q))
}

// Quality returns the current preference.
func (r *Resolver) Quality() Quality {
	return Quality(r.quality.Load())
}

// Network returns the network monitor used for format selection.
func (r *Resolver) Network() Network {
	return r.network
}

// Resolve returns a source for br of track id. Failures are *ResolutionError
// values, except ErrNoMediaID.
func (r *Resolver) Resolve(ctx context.Context, id string, br ByteRange) (Source, error) {
	if id == "" {
		return Source{}, ErrNoMediaID
	}

	if src, ok := r.fromCache(ctx, id, br); ok {
		r.schedule(id, nil)
		return src, nil
	}

	if e, ok := r.urls.Get(ctx, id); ok {
		r.schedule(id, nil)
		return Source{MediaID: id, Origin: OriginURL, Range: br, URL: e.URL, client: r.client}, nil
	}

	return r.fromNetwork(ctx, id, br)
}

func (r *Resolver) fromCache(ctx context.Context, id string, br ByteRange) (Source, bool) {
	if r.download != nil {
		length := br.Length
		if length < 0 {
			length = 1
		}
		if r.download.Has(ctx, id, br.Position, length) {
			return Source{MediaID: id, Origin: OriginDownloadCache, Range: br, tier: r.download}, true
		}
	}
	if r.player != nil && r.player.Has(ctx, id, br.Position, ChunkLength) {
		served := br
		if served.Length < 0 || served.Length > ChunkLength {
			served.Length = ChunkLength
		}
		return Source{MediaID: id, Origin: OriginPlayerCache, Range: served, tier: r.player}, true
	}
	return Source{}, false
}

func (r *Resolver) fromNetwork(ctx context.Context, id string, br ByteRange) (Source, error) {
	prior, err := r.store.GetFormat(id)
	if err != nil {
		r.logger.Warn("read format record", "id", id, "err", err)
		prior = nil
	}

	resp, err := r.catalog.Player(ctx, id)
	if err != nil {
		rerr := classify(err)
		r.logger.Warn("resolve failed", "id", id, "kind", rerr.Kind, "err", err)
		return Source{}, rerr
	}
	if !resp.Playable() {
		r.logger.Warn("track not playable", "id", id, "reason", resp.Playability.Reason)
		return Source{}, notPlayable(resp.Playability.Reason)
	}

	format := SelectFormat(resp.Formats, prior, r.Quality(), r.network.Metered())
	if format != nil && prior != nil && format.Itag != prior.Itag {
		r.logger.Info("pinned format unavailable, reselected", "id", id, "was", prior.Itag, "now", format.Itag)
	}
	if format == nil || format.URL == "" {
		return Source{}, noPlayableStream(id)
	}

	if err := r.store.UpsertFormat(formatRecord(id, format, resp.LoudnessDb)); err != nil {
		r.logger.Warn("save format record", "id", id, "err", err)
	}
	r.logger.Debug("resolved",
		"id", id,
		"itag", format.Itag,
		"bitrate", humanize.SIWithDigits(float64(format.Bitrate), 0, "bps"),
		"size", humanize.IBytes(uint64(max(format.ContentLength, 0))),
	)

	r.schedule(id, resp)

	expiry := r.now().Add(time.Duration(resp.ExpiresInSeconds) * time.Second)
	if err := r.urls.Set(ctx, id, urlcache.Entry{URL: format.URL, Expiry: expiry}); err != nil {
		r.logger.Warn("cache url", "id", id, "err", err)
	}

	served := br
	if served.Length < 0 || served.Length > ChunkLength {
		served.Length = ChunkLength
	}
	return Source{MediaID: id, Origin: OriginURL, Range: served, URL: format.URL, client: r.client}, nil
}

func (r *Resolver) schedule(id string, resp *catalog.PlayerResponse) {
	if r.reconciler != nil {
		r.reconciler.Schedule(id, resp)
	}
}
