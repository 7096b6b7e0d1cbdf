// Package motionparams provides the data model and parsers for motion
// definitions. A motion definition maps state names to transition rules and
// frame sequences, and carries the physics constants used by the motion
// state machine.
//
// Two encodings are accepted: the XML form used by existing skins
// (<motion-params>, <motion>, <item>, <repeat-item>) and an equivalent YAML
// form. Both produce the same *Params value.
package motionparams

// Default attribute values applied when an attribute is omitted.
const (
	DefaultAcceleration           = 160 // dp per sec^2
	DefaultMaxVelocity            = 100 // dp per sec
	DefaultDeaccelerationDistance = 100 // dp
	DefaultProximityDistance      = 10  // dp

	DefaultInitialState    = "stop"
	DefaultAwakeState      = "awake"
	DefaultMoveStatePrefix = "move"
	DefaultWallStatePrefix = "wall"

	// Unbounded marks a duration or repeat count that has no limit.
	Unbounded = -1
)

// Item is a single entry of a frame sequence. Exactly one of Drawable or
// Repeat is set.
type Item struct {
	// Drawable is the image reference of a terminal frame, e.g. "mati1".
	Drawable string

	// Duration is the frame duration in milliseconds, or -1 to run until the
	// enclosing sequence's duration cap. Repeat groups are always -1.
	Duration int

	// Repeat is the nested group for a <repeat-item>.
	Repeat *Sequence
}

// IsRepeat reports whether the item is a nested repeat group.
func (it Item) IsRepeat() bool {
	return it.Repeat != nil
}

// Sequence is an ordered list of frames, bounded by a total duration and a
// repeat count. Whichever bound triggers first ends the sequence.
type Sequence struct {
	// Duration is the total duration in milliseconds, -1 = unbounded.
	Duration int

	// RepeatCount is the number of full passes, -1 = infinite.
	RepeatCount int

	Items []Item
}

// Motion is one named state of a definition.
type Motion struct {
	Name      string
	NextState string
	HasNext   bool
	CheckMove bool
	CheckWall bool

	// Items is the state's top-level sequence. Its RepeatCount is always 1.
	Items Sequence
}

// TakesTime reports whether playing the sequence can ever move the clock.
// A sequence capped at 0 ms, or one whose every frame lasts 0 ms, would
// loop or hand over to the next state at the instant it started.
func (s Sequence) TakesTime() bool {
	if s.Duration == 0 {
		return false
	}
	for _, it := range s.Items {
		if it.IsRepeat() {
			if it.Repeat.TakesTime() {
				return true
			}
			continue
		}
		if it.Duration != 0 {
			return true
		}
	}
	return false
}
