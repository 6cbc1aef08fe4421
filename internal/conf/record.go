package conf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// magic brackets the record on both sides. A record is only trusted when
// both bookends match exactly; uninitialized or damaged flash fails one
// or both checks.
var magic = []byte("doorcontrolv1")

const (
	slotLen  = 64
	magicLen = 13
	numSlots = 6

	// RecordSize is the full on-flash footprint: magic, six 64-byte
	// string slots, the port, two flag bytes, trailing magic.
	RecordSize = magicLen + numSlots*slotLen + 2 + 1 + 1 + magicLen

	// RecordOffset is the fixed flash offset of the record.
	RecordOffset = 0
)

// ErrAbsent means the leading magic did not match. That is ambiguous
// between never-configured and damaged flash, and is treated as
// "unconfigured, enter setup mode".
var ErrAbsent = errors.New("conf: no config present or corrupt")

// ErrCorrupt means the leading magic matched but the trailing one did
// not: the device was configured and the record is damaged.
var ErrCorrupt = errors.New("conf: config corrupt")

// ErrNotComplete is returned by Encode when a mandatory field is empty.
var ErrNotComplete = errors.New("conf: record not complete")

// ErrValueTooLong is returned when a string field exceeds its 64-byte
// slot.
var ErrValueTooLong = errors.New("conf: value exceeds 64 bytes")

// Record is the persisted device configuration.
type Record struct {
	DeviceName string
	WifiSSID   string
	WifiPass   string
	MQTTHost   string
	MQTTUser   string
	MQTTPass   string
	MQTTPort   uint16
	TLSEnabled bool
	TLSVerify  bool
}

// Complete reports whether every mandatory field is set. MQTTUser and
// the TLS flags are optional; everything else, including a nonzero port,
// is required before the record may be saved or used for operation.
func (r *Record) Complete() bool {
	return r.DeviceName != "" &&
		r.WifiSSID != "" &&
		r.WifiPass != "" &&
		r.MQTTHost != "" &&
		r.MQTTPass != "" &&
		r.MQTTPort != 0
}

// Decode parses a record from buf, validating both magic bookends before
// trusting any field.
func Decode(buf []byte) (*Record, error) {
	if len(buf) < RecordSize {
		return nil, ErrAbsent
	}
	if !bytes.Equal(buf[:magicLen], magic) {
		return nil, ErrAbsent
	}
	if !bytes.Equal(buf[RecordSize-magicLen:RecordSize], magic) {
		return nil, ErrCorrupt
	}

	r := &Record{}
	off := magicLen
	for _, field := range []*string{
		&r.DeviceName, &r.WifiSSID, &r.WifiPass,
		&r.MQTTHost, &r.MQTTUser, &r.MQTTPass,
	} {
		*field = decodeSlot(buf[off : off+slotLen])
		off += slotLen
	}
	r.MQTTPort = binary.BigEndian.Uint16(buf[off : off+2])
	off += 2
	r.TLSEnabled = buf[off] != 0
	r.TLSVerify = buf[off+1] != 0

	return r, nil
}

// Encode serializes the record. It refuses incomplete records; this is
// the single save-time validation gate.
func (r *Record) Encode() ([]byte, error) {
	if !r.Complete() {
		return nil, ErrNotComplete
	}

	buf := make([]byte, RecordSize)
	copy(buf, magic)
	off := magicLen
	for i, v := range []string{
		r.DeviceName, r.WifiSSID, r.WifiPass,
		r.MQTTHost, r.MQTTUser, r.MQTTPass,
	} {
		if err := encodeSlot(buf[off:off+slotLen], v); err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		off += slotLen
	}
	binary.BigEndian.PutUint16(buf[off:off+2], r.MQTTPort)
	off += 2
	buf[off] = boolByte(r.TLSEnabled)
	buf[off+1] = boolByte(r.TLSVerify)
	copy(buf[RecordSize-magicLen:], magic)

	return buf, nil
}

// Merge applies a partial update. Only fields that are present and
// non-empty (strings) or non-zero (port) overwrite; a merge never clears
// a field. The TLS flags merge on presence since false is a meaningful
// setting.
func (r *Record) Merge(u *Update) {
	mergeString(&r.DeviceName, u.DeviceName)
	mergeString(&r.WifiSSID, u.WifiSSID)
	mergeString(&r.WifiPass, u.WifiPass)
	mergeString(&r.MQTTHost, u.MQTTHost)
	mergeString(&r.MQTTUser, u.MQTTUser)
	mergeString(&r.MQTTPass, u.MQTTPass)
	if u.MQTTPort != nil && *u.MQTTPort != 0 {
		r.MQTTPort = *u.MQTTPort
	}
	if u.TLSEnabled != nil {
		r.TLSEnabled = *u.TLSEnabled
	}
	if u.TLSVerify != nil {
		r.TLSVerify = *u.TLSVerify
	}
}

func mergeString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func decodeSlot(slot []byte) string {
	if i := bytes.IndexByte(slot, 0); i >= 0 {
		return string(slot[:i])
	}
	return string(slot)
}

func encodeSlot(slot []byte, v string) error {
	if len(v) > slotLen {
		return ErrValueTooLong
	}
	copy(slot, v)
	for i := len(v); i < slotLen; i++ {
		slot[i] = 0
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
