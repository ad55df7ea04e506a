package protocol

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNoActiveStep is returned for operations issued before the first
	// AddProtocolStep.
	ErrNoActiveStep = errors.New("no active protocol step, call AddProtocolStep first")

	// ErrInvalidState is returned when an engine method is called in a
	// lifecycle stage that does not allow it.
	ErrInvalidState = errors.New("invalid engine state")

	// ErrBorrowedParties is returned by Terminate on a subroutine engine,
	// whose parties and transports belong to the caller.
	ErrBorrowedParties = errors.New("parties are borrowed from a calling protocol")
)

// NonExistentPartyError is returned when a role or party does not belong to
// the protocol.
type NonExistentPartyError struct {
	Protocol string
	Name     string
}

func (e *NonExistentPartyError) Error() string {
	return fmt.Sprintf("protocol %q has no party %q", e.Protocol, e.Name)
}

// InvalidInputError is returned when the inputs given for a role do not
// match the inputs the protocol expects.
type InvalidInputError struct {
	Role       string
	Missing    []string
	Unexpected []string
}

func (e *InvalidInputError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Unexpected, ", "))
	}
	return fmt.Sprintf("invalid input for role %q: %s", e.Role, strings.Join(parts, "; "))
}

// DuplicatePartyNameError is returned when the same party name is bound to
// more than one role.
type DuplicatePartyNameError struct {
	Name  string
	Roles []string
}

func (e *DuplicatePartyNameError) Error() string {
	return fmt.Sprintf("party name %q is used by roles %s", e.Name, strings.Join(e.Roles, ", "))
}

// diff returns the sorted elements of want missing from got and those of got
// missing from want.
func diff(want, got []string) (missing, unexpected []string) {
	wantSet := make(map[string]bool, len(want))
	for _, w := range want {
		wantSet[w] = true
	}
	gotSet := make(map[string]bool, len(got))
	for _, g := range got {
		gotSet[g] = true
		if !wantSet[g] {
			unexpected = append(unexpected, g)
		}
	}
	for _, w := range want {
		if !gotSet[w] {
			missing = append(missing, w)
		}
	}
	sort.Strings(missing)
	sort.Strings(unexpected)
	return missing, unexpected
}
