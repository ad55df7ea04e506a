package party

import (
	"fmt"
	"strings"
)

// UndefinedVariableError is returned when a party reads a variable that is
// not defined in its current namespace.
type UndefinedVariableError struct {
	Party     string
	Name      string
	Namespace []string
}

func (e *UndefinedVariableError) Error() string {
	if len(e.Namespace) == 0 {
		return fmt.Sprintf("variable %q is not defined for party %q", e.Name, e.Party)
	}
	return fmt.Sprintf("variable %q is not defined for party %q in namespace %q",
		e.Name, e.Party, strings.Join(e.Namespace, NamespaceSeparator))
}

// ArityError is returned when a computation yields a different number of
// values than the number of variables it is supposed to assign.
type ArityError struct {
	Description string
	Expected    int
	Got         int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("computation %q returned %d values, expected %d", e.Description, e.Got, e.Expected)
}
