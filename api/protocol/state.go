package protocol

// State is the lifecycle stage of an Engine.
type State int

const (
	// StateUninitialized means no parties are bound yet.
	StateUninitialized State = iota
	// StatePartiesBound means every role has a party.
	StatePartiesBound
	// StateInputsSet means inputs were provided and validated.
	StateInputsSet
	// StateRunning means Run is executing.
	StateRunning
	// StateCompleted means Run finished without error.
	StateCompleted
	// StateFailed means Run or one of its operations failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePartiesBound:
		return "parties-bound"
	case StateInputsSet:
		return "inputs-set"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Finished reports whether the engine has run, successfully or not.
func (s State) Finished() bool {
	return s == StateCompleted || s == StateFailed
}
