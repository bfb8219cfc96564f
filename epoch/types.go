package epoch

// Epoch is a generation tag. Zero is never issued.
type Epoch uint64

// EventType identifies a table mutation.
type EventType uint8

const (
	EventIssued     EventType = iota // a fresh epoch was registered
	EventSuperseded                  // a reused handle replaced a live entry
	EventReleased                    // compare-and-remove succeeded
	EventCleared                     // every entry was dropped
)

func (t EventType) String() string {
	switch t {
	case EventIssued:
		return "issued"
	case EventSuperseded:
		return "superseded"
	case EventReleased:
		return "released"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event describes a table mutation. For EventCleared, Handle and Epoch are
// zero and Count holds the number of dropped entries.
type Event struct {
	Handle uint64
	Epoch  Epoch
	Prev   Epoch // previous epoch for EventSuperseded
	Count  int
	Type   EventType
}

// Observer receives notifications about table mutations. Observers run
// with the table unlocked and must not assume any ordering across tables.
type Observer interface {
	OnEpochEvent(Event)
}
