package stream

import (
	"context"
	"fmt"

	"github.com/llehouerou/streamwave/internal/cache"
)

// Download fetches the whole track into dst unless it is already there.
func (r *Resolver) Download(ctx context.Context, id string, dst cache.Store) error {
	if id == "" {
		return ErrNoMediaID
	}
	if dst.Has(ctx, id, 0, 1) {
		return nil
	}

	e, ok := r.urls.Get(ctx, id)
	url := e.URL
	if !ok {
		src, err := r.fromNetwork(ctx, id, ByteRange{Length: -1})
		if err != nil {
			return err
		}
		url = src.URL
	}

	size := int64(-1)
	if rec, err := r.store.GetFormat(id); err == nil && rec != nil && rec.ContentLength > 0 {
		size = rec.ContentLength
	}

	src := Source{MediaID: id, Origin: OriginURL, Range: ByteRange{Length: -1}, URL: url, client: r.client}
	body, err := src.Open(ctx)
	if err != nil {
		return fmt.Errorf("download %s: %w", id, err)
	}
	defer body.Close()

	if err := dst.Put(ctx, id, body, size); err != nil {
		return fmt.Errorf("download %s: %w", id, err)
	}
	r.logger.Info("downloaded", "id", id)
	return nil
}
