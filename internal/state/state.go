// Package state defines the device state dimensions broadcast between
// sessions: the lock actuator state and the reed (door) sensor state.
package state

// Lock is the state of the lock actuator.
type Lock int

const (
	Locked Lock = iota + 1
	Unlocked
)

func (l Lock) String() string {
	switch l {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Door is the state of the door as reported by the reed switch.
type Door int

const (
	Open Door = iota + 1
	Closed
)

func (d Door) String() string {
	switch d {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Kind tags the variant held by Any.
type Kind int

const (
	KindLock Kind = iota + 1
	KindDoor
)

// Any is a tagged union of a Lock or a Door state change. Exactly one of
// Lock/Door is meaningful, selected by Kind.
type Any struct {
	Kind Kind
	Lock Lock
	Door Door
}

// LockChange wraps a lock transition for publication.
func LockChange(l Lock) Any {
	return Any{Kind: KindLock, Lock: l}
}

// DoorChange wraps a door transition for publication.
func DoorChange(d Door) Any {
	return Any{Kind: KindDoor, Door: d}
}

func (a Any) String() string {
	switch a.Kind {
	case KindLock:
		return "lock:" + a.Lock.String()
	case KindDoor:
		return "door:" + a.Door.String()
	default:
		return "state:unknown"
	}
}
