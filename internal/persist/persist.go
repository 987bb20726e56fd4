// Package persist stores the playback queue on disk so it survives restarts.
//
// File layout: magic "SWQ1", uint16 version, uint32 payload length, JSON
// payload, CRC-32 (IEEE) of the payload. All integers are big endian.
package persist

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"

	"github.com/llehouerou/streamwave/internal/playlist"
)

const (
	magic       = "SWQ1"
	version     = 1
	headerSize  = len(magic) + 2 + 4
	maxPayload  = 64 << 20
	appName     = "streamwave"
	defaultFile = "queue.bin"
)

// ErrCorrupt is returned by Decode for anything that is not a valid file.
var ErrCorrupt = errors.New("corrupt queue file")

// Snapshot is the persisted queue.
type Snapshot struct {
	Title    string           `json:"title,omitempty"`
	Tracks   []playlist.Track `json:"tracks"`
	Index    int              `json:"index"`
	Position time.Duration    `json:"position"`
}

// Encode serializes a snapshot into the file format.
func Encode(s Snapshot) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(headerSize + len(payload) + 4)
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.BigEndian, uint16(version))
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(payload))
	return buf.Bytes(), nil
}

// Decode parses the file format.
func Decode(data []byte) (Snapshot, error) {
	if len(data) < headerSize+4 || string(data[:len(magic)]) != magic {
		return Snapshot{}, ErrCorrupt
	}
	v := binary.BigEndian.Uint16(data[len(magic):])
	if v != version {
		return Snapshot{}, fmt.Errorf("%w: version %d", ErrCorrupt, v)
	}
	n := int(binary.BigEndian.Uint32(data[len(magic)+2:]))
	if n > maxPayload || len(data) != headerSize+n+4 {
		return Snapshot{}, fmt.Errorf("%w: length mismatch", ErrCorrupt)
	}
	payload := data[headerSize : headerSize+n]
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(data[headerSize+n:]) {
		return Snapshot{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(s.Tracks) == 0 || s.Index < 0 || s.Index >= len(s.Tracks) {
		return Snapshot{}, fmt.Errorf("%w: invalid index", ErrCorrupt)
	}
	return s, nil
}

// Store reads and writes the queue file. Calls are serialized.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store for path. An empty path selects the default
// location under the XDG data dir.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := xdg.DataFile(filepath.Join(appName, defaultFile))
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

// Save writes the snapshot atomically. When idle is true the file is
// removed instead, since an idle player has nothing to resume.
func (s *Store) Save(snap Snapshot, idle bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idle || len(snap.Tracks) == 0 {
		err := os.Remove(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	return writeAtomic(s.path, data)
}

// Load returns the saved snapshot. Any failure, including a missing or
// corrupt file, yields false.
func (s *Store) Load() (Snapshot, bool) {
	snap, err := s.load()
	return snap, err == nil
}

func (s *Store) load() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(headerSize+maxPayload+4+1)))
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".queue-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	// make the rename itself durable
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
