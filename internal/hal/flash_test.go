package hal

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func TestMemFlashStartsErased(t *testing.T) {
	mf := NewMemFlash(1)
	buf := make([]byte, 16)
	if err := mf.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for i, b := range buf {
		if b != 0xFF {
			t.Fatalf("byte %d = %#x, want erased", i, b)
		}
	}
}

func TestMemFlashWriteEraseCycle(t *testing.T) {
	mf := NewMemFlash(2)
	payload := []byte("persisted")

	if err := mf.WriteAt(payload, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got := make([]byte, len(payload))
	if err := mf.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("read back %q", got)
	}

	if err := mf.EraseSector(0); err != nil {
		t.Fatalf("EraseSector: %v", err)
	}
	if err := mf.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for _, b := range got {
		if b != 0xFF {
			t.Fatal("erase did not reset the sector")
		}
	}
}

func TestMemFlashBounds(t *testing.T) {
	mf := NewMemFlash(1)

	if err := mf.WriteAt([]byte{1}, SectorSize); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("WriteAt past end = %v, want ErrOutOfRange", err)
	}
	if err := mf.ReadAt(make([]byte, 2), SectorSize-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ReadAt across end = %v, want ErrOutOfRange", err)
	}
	if err := mf.EraseSector(100); !errors.Is(err, ErrUnaligned) {
		t.Errorf("unaligned erase = %v, want ErrUnaligned", err)
	}
	if err := mf.EraseSector(SectorSize); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("erase past end = %v, want ErrOutOfRange", err)
	}
}

func TestFileFlashCreatesErasedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.bin")
	ff, err := OpenFileFlash(path, 2*SectorSize)
	if err != nil {
		t.Fatalf("OpenFileFlash: %v", err)
	}
	defer ff.Close()

	buf := make([]byte, 32)
	if err := ff.ReadAt(buf, SectorSize); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for _, b := range buf {
		if b != 0xFF {
			t.Fatal("fresh image is not erased")
		}
	}
}

func TestFileFlashPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.bin")
	payload := []byte("survives reopen")

	ff, err := OpenFileFlash(path, SectorSize)
	if err != nil {
		t.Fatalf("OpenFileFlash: %v", err)
	}
	if err := ff.WriteAt(payload, 100); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	ff.Close()

	ff, err = OpenFileFlash(path, SectorSize)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ff.Close()

	got := make([]byte, len(payload))
	if err := ff.ReadAt(got, 100); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("read back %q, want %q", got, payload)
	}
}

func TestFileFlashRejectsPartialSectorSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.bin")
	if _, err := OpenFileFlash(path, SectorSize+1); err == nil {
		t.Fatal("OpenFileFlash accepted a non-sector-multiple size")
	}
}
