package motionparams

import "sort"

// Params is a parsed motion definition. It is immutable once returned by a
// parser; all accessors are safe to call on any state name and report
// absence instead of failing.
type Params struct {
	acceleration           float64
	maxVelocity            float64
	deaccelerationDistance float64
	proximityDistance      float64

	initialState    string
	awakeState      string
	moveStatePrefix string
	wallStatePrefix string

	motions map[string]*Motion
}

func newParams() *Params {
	return &Params{
		initialState:    DefaultInitialState,
		awakeState:      DefaultAwakeState,
		moveStatePrefix: DefaultMoveStatePrefix,
		wallStatePrefix: DefaultWallStatePrefix,
		motions:         make(map[string]*Motion),
	}
}

// Acceleration returns the density-scaled acceleration in px/s^2.
func (p *Params) Acceleration() float64 { return p.acceleration }

// MaxVelocity returns the density-scaled speed cap in px/s.
func (p *Params) MaxVelocity() float64 { return p.maxVelocity }

// DeaccelerationDistance returns the density-scaled slow-down band in px.
func (p *Params) DeaccelerationDistance() float64 { return p.deaccelerationDistance }

// ProximityDistance returns the density-scaled arrival threshold in px.
func (p *Params) ProximityDistance() float64 { return p.proximityDistance }

func (p *Params) InitialState() string { return p.initialState }

func (p *Params) AwakeState() string { return p.awakeState }

// MoveState returns the state name used while moving in dir.
func (p *Params) MoveState(dir MoveDirection) string {
	return p.moveStatePrefix + dir.String()
}

// WallState returns the state name used after touching the wall in dir.
func (p *Params) WallState(dir WallDirection) string {
	return p.wallStatePrefix + dir.String()
}

// HasState reports whether a state with the given name is defined.
func (p *Params) HasState(state string) bool {
	_, ok := p.motions[state]
	return ok
}

// Motion returns the definition of state.
func (p *Params) Motion(state string) (*Motion, bool) {
	m, ok := p.motions[state]
	return m, ok
}

// NextState returns the declared follow-up state of state, if any.
func (p *Params) NextState(state string) (string, bool) {
	m, ok := p.motions[state]
	if !ok || !m.HasNext {
		return "", false
	}
	return m.NextState, true
}

// NeedCheckMove reports whether state re-evaluates movement on completion.
// Undefined states report false.
func (p *Params) NeedCheckMove(state string) bool {
	m, ok := p.motions[state]
	return ok && m.CheckMove
}

// NeedCheckWall reports whether state checks the display edges on
// completion. Undefined states report false.
func (p *Params) NeedCheckWall(state string) bool {
	m, ok := p.motions[state]
	return ok && m.CheckWall
}

// States returns all defined state names in lexical order.
func (p *Params) States() []string {
	names := make([]string, 0, len(p.motions))
	for name := range p.motions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
