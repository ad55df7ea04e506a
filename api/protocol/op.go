package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// OpKind names the kind of an Operation.
type OpKind string

const (
	KindComputation OpKind = "computation"
	KindSend        OpKind = "send"
	KindBroadcast   OpKind = "broadcast"
	KindSubroutine  OpKind = "subroutine"
	KindComment     OpKind = "comment"
)

// Operation is one recorded action of a protocol step. Parties are referred
// to by name so a recorded operation can be replayed on another engine with
// the same party names.
type Operation interface {
	Kind() OpKind
	String() string
}

// Computation assigns the result of a local function to variables of one
// party.
type Computation struct {
	Party       string   `json:"party"`
	Computed    []string `json:"computed"`
	Inputs      []string `json:"inputs"`
	Func        Func     `json:"-"`
	Description string   `json:"description"`
}

// Send moves variables from one party to another under the same names.
type Send struct {
	Sender   string   `json:"sender"`
	Receiver string   `json:"receiver"`
	Vars     []string `json:"vars"`
}

// Broadcast sends variables from one party to every other party.
type Broadcast struct {
	Sender    string   `json:"sender"`
	Receivers []string `json:"receivers"`
	Vars      []string `json:"vars"`
}

// Subroutine runs another protocol on some of the caller's parties.
type Subroutine struct {
	Name     string   `json:"name"`
	Protocol Protocol `json:"-"`
	// Roles maps subroutine roles to the caller's party names.
	Roles map[string]string `json:"roles"`
	// Inputs maps, per subroutine role, subroutine input names to caller
	// variable names.
	Inputs map[string]map[string]string `json:"inputs"`
	// Outputs maps, per subroutine role, subroutine output names to caller
	// destination names. Unmapped outputs are dropped.
	Outputs map[string]map[string]string `json:"outputs"`
	// Steps is the subroutine's own trace, filled in once it ran.
	Steps []*Step `json:"steps,omitempty"`
}

// Comment is free-form text attached to a step.
type Comment struct {
	Text string `json:"text"`
}

func (*Computation) Kind() OpKind { return KindComputation }
func (*Send) Kind() OpKind        { return KindSend }
func (*Broadcast) Kind() OpKind   { return KindBroadcast }
func (*Subroutine) Kind() OpKind  { return KindSubroutine }
func (*Comment) Kind() OpKind     { return KindComment }

func (o *Computation) String() string {
	if o.Description != "" {
		return fmt.Sprintf("%s: %s", o.Party, o.Description)
	}
	return fmt.Sprintf("%s: %s = f(%s)", o.Party, strings.Join(o.Computed, ", "), strings.Join(o.Inputs, ", "))
}

func (o *Send) String() string {
	return fmt.Sprintf("%s -> %s: %s", o.Sender, o.Receiver, strings.Join(o.Vars, ", "))
}

func (o *Broadcast) String() string {
	return fmt.Sprintf("%s -> *: %s", o.Sender, strings.Join(o.Vars, ", "))
}

func (o *Subroutine) String() string {
	roles := make([]string, 0, len(o.Roles))
	for role, name := range o.Roles {
		roles = append(roles, role+"="+name)
	}
	sort.Strings(roles)
	return fmt.Sprintf("%s(%s)", o.Name, strings.Join(roles, ", "))
}

func (o *Comment) String() string {
	return "# " + o.Text
}

// clone copies an operation for replay, leaving results of a previous run
// behind.
func clone(op Operation) Operation {
	switch o := op.(type) {
	case *Computation:
		c := *o
		return &c
	case *Send:
		c := *o
		return &c
	case *Broadcast:
		c := *o
		return &c
	case *Subroutine:
		c := *o
		c.Steps = nil
		return &c
	case *Comment:
		c := *o
		return &c
	}
	return op
}
