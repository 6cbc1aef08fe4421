package conf

import (
	"errors"
	"testing"
)

func fullRecord() Record {
	return Record{
		DeviceName: "front-door",
		WifiSSID:   "HomeNet",
		WifiPass:   "hunter22",
		MQTTHost:   "broker.local",
		MQTTUser:   "door",
		MQTTPass:   "secret",
		MQTTPort:   1883,
		TLSEnabled: true,
		TLSVerify:  false,
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	rec := fullRecord()

	buf, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != RecordSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), RecordSize)
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *got != rec {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", *got, rec)
	}
}

func TestDecodeErasedFlashIsAbsent(t *testing.T) {
	buf := make([]byte, RecordSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	if _, err := Decode(buf); !errors.Is(err, ErrAbsent) {
		t.Errorf("Decode(erased) = %v, want ErrAbsent", err)
	}
}

func TestDecodeDistinguishesAbsentFromCorrupt(t *testing.T) {
	rec := fullRecord()
	buf, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	front := append([]byte(nil), buf...)
	front[0] ^= 0xFF
	if _, err := Decode(front); !errors.Is(err, ErrAbsent) {
		t.Errorf("flipped leading magic: err = %v, want ErrAbsent", err)
	}

	back := append([]byte(nil), buf...)
	back[RecordSize-1] ^= 0xFF
	if _, err := Decode(back); !errors.Is(err, ErrCorrupt) {
		t.Errorf("flipped trailing magic: err = %v, want ErrCorrupt", err)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	if _, err := Decode(make([]byte, RecordSize-1)); !errors.Is(err, ErrAbsent) {
		t.Errorf("short buffer: err = %v, want ErrAbsent", err)
	}
}

func TestEncodeRefusesIncomplete(t *testing.T) {
	rec := fullRecord()
	rec.WifiPass = ""
	if _, err := rec.Encode(); !errors.Is(err, ErrNotComplete) {
		t.Errorf("missing wifi pass: err = %v, want ErrNotComplete", err)
	}

	rec = fullRecord()
	rec.MQTTPort = 0
	if _, err := rec.Encode(); !errors.Is(err, ErrNotComplete) {
		t.Errorf("zero port: err = %v, want ErrNotComplete", err)
	}
}

func TestEncodeRefusesOversizeValue(t *testing.T) {
	rec := fullRecord()
	long := make([]byte, slotLen+1)
	for i := range long {
		long[i] = 'a'
	}
	rec.DeviceName = string(long)
	if _, err := rec.Encode(); !errors.Is(err, ErrValueTooLong) {
		t.Errorf("oversize field: err = %v, want ErrValueTooLong", err)
	}
}

func TestCompleteOptionalFields(t *testing.T) {
	rec := fullRecord()
	rec.MQTTUser = ""
	rec.TLSEnabled = false
	if !rec.Complete() {
		t.Error("record without MQTT user should still be complete")
	}
}

func strPtr(s string) *string  { return &s }
func portPtr(p uint16) *uint16 { return &p }
func boolPtr(b bool) *bool     { return &b }

func TestMergeSingleField(t *testing.T) {
	rec := fullRecord()
	want := rec
	want.DeviceName = "back-door"

	rec.Merge(&Update{DeviceName: strPtr("back-door")})
	if rec != want {
		t.Errorf("merge changed more than the target field:\n got %+v\nwant %+v", rec, want)
	}
}

func TestMergeEmptyStringKeepsStored(t *testing.T) {
	rec := fullRecord()
	want := rec

	rec.Merge(&Update{WifiPass: strPtr(""), MQTTPort: portPtr(0)})
	if rec != want {
		t.Errorf("empty update values overwrote stored fields:\n got %+v\nwant %+v", rec, want)
	}
}

func TestMergeBoolsApplyOnPresence(t *testing.T) {
	rec := fullRecord()
	rec.Merge(&Update{TLSEnabled: boolPtr(false), TLSVerify: boolPtr(true)})
	if rec.TLSEnabled {
		t.Error("TLSEnabled should merge to false when present")
	}
	if !rec.TLSVerify {
		t.Error("TLSVerify should merge to true when present")
	}
}
