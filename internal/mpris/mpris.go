//go:build linux

package mpris

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/streamwave/internal/player"
)

// Adapter exposes a Controller over MPRIS on the session bus.
type Adapter struct {
	server *server.Server
	logger *log.Logger
}

// New creates and starts a new MPRIS adapter.
func New(c Controller, logger *log.Logger) (*Adapter, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &Adapter{logger: logger.WithPrefix("mpris")}
	a.server = server.NewServer("streamwave", &rootAdapter{}, &playerAdapter{c: c})

	go func() {
		if err := a.server.Listen(); err != nil {
			a.logger.Warn("mpris server stopped", "err", err)
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error           { return nil }
func (r *rootAdapter) Quit() error            { return nil }
func (r *rootAdapter) CanQuit() (bool, error) { return false, nil }

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Streamwave", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return nil, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return nil, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the
// loop status and shuffle extensions.
type playerAdapter struct {
	c Controller
}

func (p *playerAdapter) Next() error     { return p.c.SkipNext() }
func (p *playerAdapter) Previous() error { return p.c.SkipPrevious() }
func (p *playerAdapter) Stop() error     { return p.c.Stop() }

func (p *playerAdapter) PlayPause() error {
	return p.c.TogglePlay()
}

func (p *playerAdapter) Pause() error {
	if p.c.Snapshot().State.PlayWhenReady {
		return p.c.TogglePlay()
	}
	return nil
}

func (p *playerAdapter) Play() error {
	s := p.c.Snapshot().State
	if !s.PlayWhenReady || s.Player == player.Idle || s.Player == player.Ended {
		return p.c.TogglePlay()
	}
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	snap := p.c.Snapshot()
	if snap.Current == nil || snap.Current.Live {
		return nil
	}
	return p.c.Seek(seekTarget(snap, time.Duration(offset)*time.Microsecond))
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	snap := p.c.Snapshot()
	if snap.Current == nil || formatTrackID(snap.Current.ID) != trackID {
		return nil
	}
	return p.c.Seek(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.c.Snapshot().State), nil
}

func (p *playerAdapter) Rate() (float64, error)        { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error        { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	return metadata(p.c.Snapshot()), nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.c.Snapshot().Volume, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	return p.c.SetVolume(v)
}

func (p *playerAdapter) Position() (int64, error) {
	return p.c.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.c.Snapshot().CanSkipNext, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.c.Snapshot().CanSkipPrevious, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return len(p.c.Snapshot().Tracks) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	snap := p.c.Snapshot()
	return snap.Current != nil && !snap.Current.Live, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	return loopStatus(p.c.Snapshot().Repeat), nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	m, ok := repeatMode(status)
	if !ok {
		return nil
	}
	return p.c.SetRepeatMode(m)
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.c.Snapshot().Shuffle, nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	return p.c.SetShuffle(shuffle)
}
