package core

// Action is a bit set of discrete actions a player requested in one input.
type Action uint8

// ActionNone is the empty action set.
const ActionNone Action = 0

const (
	ActionAttack Action = 1 << iota // melee swing along aim
	ActionShoot                     // fire a projectile along aim
)

// String returns a human-readable name for the action set.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionAttack:
		return "Attack"
	case ActionShoot:
		return "Shoot"
	case ActionAttack | ActionShoot:
		return "Attack+Shoot"
	default:
		return "Unknown"
	}
}

// InputFrame is one client input as received by the server.
// The server keeps only the latest frame per player per tick.
type InputFrame struct {
	// Seq is the client-assigned sequence number, strictly increasing per player.
	Seq     uint64
	Move    Vec2
	Aim     Vec2
	Actions Action
}

// Has returns true if the given action was requested.
func (f InputFrame) Has(a Action) bool {
	return f.Actions&a != 0
}

// Set marks an action as requested.
func (f *InputFrame) Set(a Action) {
	f.Actions |= a
}

// Valid reports whether the frame is usable. Sequences start at 1, and
// move and aim vectors must be finite; move magnitude is normalised later.
func (f InputFrame) Valid() bool {
	return f.Seq > 0 && f.Move.IsFinite() && f.Aim.IsFinite()
}

// NewInputFrame builds a frame from raw transport fields.
func NewInputFrame(seq uint64, moveX, moveY, aimX, aimY float64, attack, shoot bool) InputFrame {
	f := InputFrame{
		Seq:  seq,
		Move: V(moveX, moveY),
		Aim:  V(aimX, aimY),
	}
	if attack {
		f.Set(ActionAttack)
	}
	if shoot {
		f.Set(ActionShoot)
	}
	return f
}
