package hal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
)

// SectorSize is the erase granularity of the backing flash.
const SectorSize = 4096

// ErrOutOfRange is returned for accesses past the end of the flash.
var ErrOutOfRange = errors.New("flash: access out of range")

// ErrUnaligned is returned for an erase at a non-sector boundary.
var ErrUnaligned = errors.New("flash: erase offset not sector aligned")

// Flash models NOR-style storage: reads and writes are byte addressed,
// but cells only return to the erased state (0xFF) through a whole-sector
// erase. Writes therefore follow an erase of the containing sector.
type Flash interface {
	ReadAt(p []byte, off int64) error
	EraseSector(off int64) error
	WriteAt(p []byte, off int64) error
}

// FileFlash is a file-backed flash image. It stands in for the device's
// NVS partition during development and tests.
type FileFlash struct {
	mu   sync.Mutex
	f    *os.File
	size int64
}

// OpenFileFlash opens (or creates, erased) a flash image of size bytes.
// size must be a whole number of sectors.
func OpenFileFlash(path string, size int64) (*FileFlash, error) {
	if size <= 0 || size%SectorSize != 0 {
		return nil, fmt.Errorf("flash: image size %d is not a multiple of %d", size, SectorSize)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("flash: open image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("flash: stat image: %w", err)
	}
	if info.Size() < size {
		// Fresh or truncated image: fill the remainder with the
		// erased pattern.
		blank := bytes.Repeat([]byte{0xFF}, SectorSize)
		for off := info.Size(); off < size; off += SectorSize {
			if _, err := f.WriteAt(blank, off); err != nil {
				f.Close()
				return nil, fmt.Errorf("flash: initialize image: %w", err)
			}
		}
	}

	return &FileFlash{f: f, size: size}, nil
}

func (ff *FileFlash) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > ff.size {
		return ErrOutOfRange
	}
	ff.mu.Lock()
	defer ff.mu.Unlock()
	_, err := ff.f.ReadAt(p, off)
	return err
}

func (ff *FileFlash) EraseSector(off int64) error {
	if off%SectorSize != 0 {
		return ErrUnaligned
	}
	if off < 0 || off+SectorSize > ff.size {
		return ErrOutOfRange
	}
	ff.mu.Lock()
	defer ff.mu.Unlock()
	_, err := ff.f.WriteAt(bytes.Repeat([]byte{0xFF}, SectorSize), off)
	return err
}

func (ff *FileFlash) WriteAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > ff.size {
		return ErrOutOfRange
	}
	ff.mu.Lock()
	defer ff.mu.Unlock()
	_, err := ff.f.WriteAt(p, off)
	return err
}

// Close releases the backing file.
func (ff *FileFlash) Close() error {
	return ff.f.Close()
}

// MemFlash is an in-memory flash image for tests.
type MemFlash struct {
	mu   sync.Mutex
	data []byte
}

// NewMemFlash creates an erased in-memory image of sectors sectors.
func NewMemFlash(sectors int) *MemFlash {
	return &MemFlash{data: bytes.Repeat([]byte{0xFF}, sectors*SectorSize)}
}

func (mf *MemFlash) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > int64(len(mf.data)) {
		return ErrOutOfRange
	}
	mf.mu.Lock()
	defer mf.mu.Unlock()
	copy(p, mf.data[off:])
	return nil
}

func (mf *MemFlash) EraseSector(off int64) error {
	if off%SectorSize != 0 {
		return ErrUnaligned
	}
	if off < 0 || off+SectorSize > int64(len(mf.data)) {
		return ErrOutOfRange
	}
	mf.mu.Lock()
	defer mf.mu.Unlock()
	for i := off; i < off+SectorSize; i++ {
		mf.data[i] = 0xFF
	}
	return nil
}

func (mf *MemFlash) WriteAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > int64(len(mf.data)) {
		return ErrOutOfRange
	}
	mf.mu.Lock()
	defer mf.mu.Unlock()
	copy(mf.data[off:], p)
	return nil
}

// Corrupt flips one byte, for exercising the config magic checks.
func (mf *MemFlash) Corrupt(off int64) {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	mf.data[off] ^= 0xFF
}
