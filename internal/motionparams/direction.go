package motionparams

// MoveDirection is one of the eight movement directions. The numeric order
// matches the velocity-angle buckets: 0 is +x, increasing clockwise in
// screen space (y pointing down).
type MoveDirection int

const (
	MoveRight MoveDirection = iota
	MoveDownRight
	MoveDown
	MoveDownLeft
	MoveLeft
	MoveUpLeft
	MoveUp
	MoveUpRight
)

var moveSuffixes = [...]string{
	MoveRight:     "Right",
	MoveDownRight: "DownRight",
	MoveDown:      "Down",
	MoveDownLeft:  "DownLeft",
	MoveLeft:      "Left",
	MoveUpLeft:    "UpLeft",
	MoveUp:        "Up",
	MoveUpRight:   "UpRight",
}

// String returns the state-name suffix for the direction.
func (d MoveDirection) String() string {
	if d < 0 || int(d) >= len(moveSuffixes) {
		return ""
	}
	return moveSuffixes[d]
}

// WallDirection is the display edge a character ran into.
type WallDirection int

const (
	WallLeft WallDirection = iota
	WallRight
	WallUp
	WallDown
)

var wallSuffixes = [...]string{
	WallLeft:  "Left",
	WallRight: "Right",
	WallUp:    "Up",
	WallDown:  "Down",
}

// String returns the state-name suffix for the wall.
func (d WallDirection) String() string {
	if d < 0 || int(d) >= len(wallSuffixes) {
		return ""
	}
	return wallSuffixes[d]
}
