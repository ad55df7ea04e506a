package protocol

import (
	"github.com/cockroachdb/errors"

	"github.com/LuukJonker/smpc/api/party"
)

// AddProtocolStep starts a new step. Every following operation belongs to
// it until the next call.
func (e *Engine) AddProtocolStep(name string) error {
	if e.err != nil {
		return e.err
	}
	if !e.active() {
		return errors.Wrapf(ErrInvalidState, "step %q outside of a run", name)
	}
	e.steps = append(e.steps, &Step{Name: name})
	if !e.recording {
		e.observer.Step(name)
	}
	return nil
}

// AddComment attaches a comment to the current step.
func (e *Engine) AddComment(text string) error {
	return e.dispatch(&Comment{Text: text})
}

// Compute runs fn on p over the inputs and assigns the result to the
// computed variables. With several computed variables fn must return a
// []any of the same length.
func (e *Engine) Compute(p *party.Party, computed, inputs []string, fn Func, description string) error {
	if e.err != nil {
		return e.err
	}
	name, err := e.member(p)
	if err != nil {
		return e.fail(err)
	}
	if fn == nil {
		return e.fail(errors.Newf("computation %q has no function", description))
	}
	return e.dispatch(&Computation{
		Party:       name,
		Computed:    append([]string(nil), computed...),
		Inputs:      append([]string(nil), inputs...),
		Func:        fn,
		Description: description,
	})
}

// SendVariables sends variables of sender to receiver, where they are
// stored under the same names.
func (e *Engine) SendVariables(sender, receiver *party.Party, vars ...string) error {
	if e.err != nil {
		return e.err
	}
	from, err := e.member(sender)
	if err != nil {
		return e.fail(err)
	}
	to, err := e.member(receiver)
	if err != nil {
		return e.fail(err)
	}
	if from == to {
		return e.fail(errors.Newf("party %q cannot send to itself", from))
	}
	if len(vars) == 0 {
		return e.fail(errors.Newf("send from %q to %q names no variables", from, to))
	}
	return e.dispatch(&Send{Sender: from, Receiver: to, Vars: append([]string(nil), vars...)})
}

// BroadcastVariables sends variables of sender to every other party of the
// protocol.
func (e *Engine) BroadcastVariables(sender *party.Party, vars ...string) error {
	if e.err != nil {
		return e.err
	}
	from, err := e.member(sender)
	if err != nil {
		return e.fail(err)
	}
	if len(vars) == 0 {
		return e.fail(errors.Newf("broadcast from %q names no variables", from))
	}

	var receivers []string
	for _, role := range e.roles {
		if name := e.parties[role].Name(); name != from {
			receivers = append(receivers, name)
		}
	}
	return e.dispatch(&Broadcast{Sender: from, Receivers: receivers, Vars: append([]string(nil), vars...)})
}

// RunSubroutine runs def on some of this protocol's parties.
//
// roles assigns a party of this protocol to every role of def. inputs maps,
// per role of def, the input names of def to variables of the assigned
// party in this protocol. outputs maps, per role of def, output names of def
// to the variables they are stored in afterwards; outputs left out are
// dropped.
func (e *Engine) RunSubroutine(def Protocol, roles map[string]*party.Party, inputs, outputs map[string]map[string]string) error {
	if e.err != nil {
		return e.err
	}
	if def == nil {
		return e.fail(errors.New("subroutine has no protocol"))
	}

	names := make(map[string]string, len(roles))
	for _, role := range sortedRoles(roles) {
		name, err := e.member(roles[role])
		if err != nil {
			return e.fail(err)
		}
		names[role] = name
	}

	declared := def.OutputVariables()
	for _, role := range sortedRoles(outputs) {
		for out := range outputs[role] {
			if !contains(declared[role], out) {
				return e.fail(errors.Newf("subroutine %q declares no output %q for role %q", def.Name(), out, role))
			}
		}
	}

	return e.dispatch(&Subroutine{
		Name:     def.Name(),
		Protocol: def,
		Roles:    names,
		Inputs:   copyMapping(inputs),
		Outputs:  copyMapping(outputs),
	})
}

// member returns the name of p if it belongs to this protocol.
func (e *Engine) member(p *party.Party) (string, error) {
	if p == nil {
		return "", &NonExistentPartyError{Protocol: e.name, Name: "<nil>"}
	}
	if err := e.ensureParties(); err != nil {
		return "", err
	}
	for _, q := range e.parties {
		if q == p {
			return p.Name(), nil
		}
	}
	return "", &NonExistentPartyError{Protocol: e.name, Name: p.Name()}
}

func (e *Engine) partyByName(name string) (*party.Party, error) {
	for _, p := range e.parties {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, &NonExistentPartyError{Protocol: e.name, Name: name}
}

// dispatch records op in the current step and executes it unless the engine
// is only compiling.
func (e *Engine) dispatch(op Operation) error {
	if e.err != nil {
		return e.err
	}
	if !e.active() {
		return errors.Wrapf(ErrInvalidState, "%s outside of a run", op.Kind())
	}
	if len(e.steps) == 0 {
		return e.fail(errors.Wrapf(ErrNoActiveStep, "%s", op))
	}

	step := e.steps[len(e.steps)-1]
	step.Operations = append(step.Operations, op)

	if e.recording {
		if sub, ok := op.(*Subroutine); ok {
			if err := e.compileSubroutine(sub); err != nil {
				return e.fail(err)
			}
		}
		return nil
	}
	if err := e.execute(op); err != nil {
		return e.fail(err)
	}
	return nil
}

func (e *Engine) execute(op Operation) error {
	switch o := op.(type) {
	case *Computation:
		return e.executeComputation(o)
	case *Send:
		return e.executeSend(o)
	case *Broadcast:
		return e.executeBroadcast(o)
	case *Subroutine:
		return e.executeSubroutine(o)
	case *Comment:
		e.observer.Comment(o.Text)
		return nil
	}
	return errors.Newf("unsupported operation %T", op)
}

func (e *Engine) executeComputation(o *Computation) error {
	p, err := e.partyByName(o.Party)
	if err != nil {
		return err
	}
	if !e.IsLocalParty(p) {
		e.observer.Computation(o.Party, nil, o.Description)
		return nil
	}

	values, err := p.RunComputation(o.Computed, o.Inputs, o.Func, o.Description)
	if err != nil {
		return err
	}
	computed := make(map[string]any, len(values))
	for i, name := range o.Computed {
		computed[name] = values[i]
	}
	e.observer.Computation(o.Party, computed, o.Description)
	return nil
}

func (e *Engine) executeSend(o *Send) error {
	sender, err := e.partyByName(o.Sender)
	if err != nil {
		return err
	}
	receiver, err := e.partyByName(o.Receiver)
	if err != nil {
		return err
	}
	values, err := e.transfer(sender, receiver, o.Vars)
	if err != nil {
		return err
	}
	e.observer.Send(o.Sender, o.Receiver, values)
	return nil
}

func (e *Engine) executeBroadcast(o *Broadcast) error {
	sender, err := e.partyByName(o.Sender)
	if err != nil {
		return err
	}
	var values map[string]any
	for _, name := range o.Receivers {
		receiver, err := e.partyByName(name)
		if err != nil {
			return err
		}
		got, err := e.transfer(sender, receiver, o.Vars)
		if err != nil {
			return err
		}
		if values == nil {
			values = got
		}
	}
	e.observer.Broadcast(o.Sender, values)
	return nil
}

// transfer performs the local halves of a send. The sender's half always
// runs first, so in simulated mode the value is queued before it is taken.
func (e *Engine) transfer(sender, receiver *party.Party, vars []string) (map[string]any, error) {
	var values map[string]any
	if e.IsLocalParty(sender) {
		sent, err := sender.SendVariables(e.ctx, receiver, vars)
		if err != nil {
			return nil, err
		}
		values = sent
	}
	if e.IsLocalParty(receiver) {
		got, err := receiver.ReceiveVariables(e.ctx, sender, vars)
		if err != nil {
			return nil, err
		}
		if values == nil {
			values = got
		}
	}
	return values, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func copyMapping(m map[string]map[string]string) map[string]map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]map[string]string, len(m))
	for role, mapping := range m {
		inner := make(map[string]string, len(mapping))
		for k, v := range mapping {
			inner[k] = v
		}
		out[role] = inner
	}
	return out
}
