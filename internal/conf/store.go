package conf

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/doorctl/internal/hal"
	"github.com/muurk/doorctl/internal/logging"
)

// Store owns the persisted record and serializes all mutation. Web
// sessions and the CLI apply partial updates through it; the daemon
// reads the current record at connect time for the MQTT session.
type Store struct {
	mu      sync.Mutex
	flash   hal.Flash
	current *Record
}

// NewStore wraps flash without touching it; call Load before use.
func NewStore(flash hal.Flash) *Store {
	return &Store{flash: flash}
}

// Load reads and validates the record from flash. ErrAbsent and
// ErrCorrupt pass through so the caller can choose setup mode.
func (s *Store) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, RecordSize)
	if err := s.flash.ReadAt(buf, RecordOffset); err != nil {
		return nil, fmt.Errorf("conf: read flash: %w", err)
	}
	rec, err := Decode(buf)
	if err != nil {
		return nil, err
	}
	s.current = rec
	return s.snapshotLocked(), nil
}

// Current returns a copy of the loaded record, or nil before Load or in
// setup mode.
func (s *Store) Current() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Apply merges u into the current record and persists the result. The
// merged record must be complete; in setup mode the first update has to
// carry every mandatory field. On any failure the stored record and the
// flash content are left as they were.
func (s *Store) Apply(u *Update) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := Record{}
	if s.current != nil {
		merged = *s.current
	}
	merged.Merge(u)

	buf, err := merged.Encode()
	if err != nil {
		return nil, err
	}

	if err := s.flash.EraseSector(RecordOffset); err != nil {
		return nil, fmt.Errorf("conf: erase sector: %w", err)
	}
	if err := s.flash.WriteAt(buf, RecordOffset); err != nil {
		return nil, fmt.Errorf("conf: write record: %w", err)
	}

	s.current = &merged
	logging.Info("Configuration saved",
		zap.String("device_name", merged.DeviceName),
		zap.String("mqtt_host", merged.MQTTHost),
	)
	return s.snapshotLocked(), nil
}

func (s *Store) snapshotLocked() *Record {
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}
