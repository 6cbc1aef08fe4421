package conf

import (
	"errors"
	"testing"

	"github.com/muurk/doorctl/internal/hal"
)

func TestStoreLoadFromBlankFlash(t *testing.T) {
	s := NewStore(hal.NewMemFlash(1))
	if _, err := s.Load(); !errors.Is(err, ErrAbsent) {
		t.Fatalf("Load on blank flash: err = %v, want ErrAbsent", err)
	}
	if s.Current() != nil {
		t.Error("Current should be nil before a record exists")
	}
}

func TestStoreApplyPersists(t *testing.T) {
	flash := hal.NewMemFlash(1)
	s := NewStore(flash)

	rec := fullRecord()
	_, err := s.Apply(&Update{
		DeviceName: &rec.DeviceName,
		WifiSSID:   &rec.WifiSSID,
		WifiPass:   &rec.WifiPass,
		MQTTHost:   &rec.MQTTHost,
		MQTTUser:   &rec.MQTTUser,
		MQTTPass:   &rec.MQTTPass,
		MQTTPort:   &rec.MQTTPort,
		TLSEnabled: &rec.TLSEnabled,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// A fresh store over the same flash must see the saved record.
	reloaded, err := NewStore(flash).Load()
	if err != nil {
		t.Fatalf("Load after Apply: %v", err)
	}
	if *reloaded != rec {
		t.Errorf("persisted record mismatch:\n got %+v\nwant %+v", *reloaded, rec)
	}
}

func TestStoreApplyRejectsIncompleteFirstUpdate(t *testing.T) {
	s := NewStore(hal.NewMemFlash(1))

	name := "front-door"
	if _, err := s.Apply(&Update{DeviceName: &name}); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("partial first update: err = %v, want ErrNotComplete", err)
	}
	if s.Current() != nil {
		t.Error("failed Apply must not install a record")
	}
}

func TestStoreApplyMergesPartial(t *testing.T) {
	flash := hal.NewMemFlash(1)
	s := NewStore(flash)
	rec := fullRecord()
	buf, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := flash.WriteAt(buf, RecordOffset); err != nil {
		t.Fatalf("seed flash: %v", err)
	}
	if _, err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	host := "other-broker.local"
	got, err := s.Apply(&Update{MQTTHost: &host})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := rec
	want.MQTTHost = host
	if *got != want {
		t.Errorf("merged record mismatch:\n got %+v\nwant %+v", *got, want)
	}
}

func TestStoreCurrentIsACopy(t *testing.T) {
	flash := hal.NewMemFlash(1)
	s := NewStore(flash)
	rec := fullRecord()
	buf, _ := rec.Encode()
	if err := flash.WriteAt(buf, RecordOffset); err != nil {
		t.Fatalf("seed flash: %v", err)
	}
	if _, err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	s.Current().DeviceName = "mutated"
	if s.Current().DeviceName != rec.DeviceName {
		t.Error("mutating the returned record leaked into the store")
	}
}
