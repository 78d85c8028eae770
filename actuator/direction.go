package actuator

// Direction is the direction the actuator arm is currently driven in.
type Direction int

const (
	None Direction = iota
	Forward
	Backward
)

// Reverse returns the opposite direction. None stays None.
func (d Direction) Reverse() Direction {
	switch d {
	case Forward:
		return Backward
	case Backward:
		return Forward
	default:
		return None
	}
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "nowhere"
	}
}
