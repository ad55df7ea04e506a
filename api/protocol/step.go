package protocol

import (
	"fmt"
	"strings"
)

// Step is a named group of operations, the unit in which protocols are
// presented.
type Step struct {
	Name       string      `json:"name"`
	Operations []Operation `json:"operations"`
}

// FormatTrace renders steps as indented text, expanding subroutines.
func FormatTrace(steps []*Step) string {
	var b strings.Builder
	formatSteps(&b, steps, 0)
	return b.String()
}

func formatSteps(b *strings.Builder, steps []*Step, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, step := range steps {
		fmt.Fprintf(b, "%s%d. %s\n", indent, i+1, step.Name)
		for _, op := range step.Operations {
			fmt.Fprintf(b, "%s   %s\n", indent, op)
			if sub, ok := op.(*Subroutine); ok && len(sub.Steps) > 0 {
				formatSteps(b, sub.Steps, depth+2)
			}
		}
	}
}

// CountOperations counts the operations of the given kind in steps,
// including those inside subroutines.
func CountOperations(steps []*Step, kind OpKind) int {
	n := 0
	for _, step := range steps {
		for _, op := range step.Operations {
			if op.Kind() == kind {
				n++
			}
			if sub, ok := op.(*Subroutine); ok {
				n += CountOperations(sub.Steps, kind)
			}
		}
	}
	return n
}
