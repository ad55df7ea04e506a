package protocol

import (
	"github.com/LuukJonker/smpc/api/party"
)

// Protocol is the definition of a multi-party protocol.
type Protocol interface {
	// Name identifies the protocol. It doubles as the namespace tag when
	// the protocol runs as a subroutine.
	Name() string

	// PartyNames lists the roles of the protocol.
	PartyNames() []string

	// ExpectedInput lists, per role, the variables that must be provided
	// before the protocol runs. Roles without inputs may be left out.
	ExpectedInput() map[string][]string

	// OutputVariables lists, per role, the variables the protocol produces.
	OutputVariables() map[string][]string

	// Run describes the protocol using the engine's declarative calls.
	Run(e *Engine) error
}

// Func is a local computation, see party.Func.
type Func = party.Func

// UndefinedVariableError is re-exported from package party.
type UndefinedVariableError = party.UndefinedVariableError

// ArityError is re-exported from package party.
type ArityError = party.ArityError
