package web

import (
	"github.com/muurk/doorctl/internal/state"
)

// Message types on the browser channel. Every frame starts with one of
// these bytes; the rest of the payload depends on the type.
const (
	msgState  = 1 // one code byte follows
	msgConfig = 2 // JSON follows (snapshot out, partial update in)
	msgNotice = 3 // UTF-8 text follows, display-only
)

// State codes carried in msgState frames, shared by both directions:
// the device reports all four, the browser may command the first two.
const (
	codeLocked   = 1
	codeUnlocked = 2
	codeOpen     = 3
	codeClosed   = 4
)

func lockCode(l state.Lock) byte {
	if l == state.Unlocked {
		return codeUnlocked
	}
	return codeLocked
}

func doorCode(d state.Door) byte {
	if d == state.Open {
		return codeOpen
	}
	return codeClosed
}

// encodeState turns a bus event into a two-byte state frame.
func encodeState(ev state.Any) ([]byte, bool) {
	switch ev.Kind {
	case state.KindLock:
		return []byte{msgState, lockCode(ev.Lock)}, true
	case state.KindDoor:
		return []byte{msgState, doorCode(ev.Door)}, true
	}
	return nil, false
}

func encodeNotice(text string) []byte {
	return append([]byte{msgNotice}, text...)
}
