package protocol

import (
	"github.com/cockroachdb/errors"

	"github.com/LuukJonker/smpc/api/party"
)

// subroutine prepares an engine for o on the caller's parties.
func (e *Engine) subroutine(o *Subroutine) (*Engine, map[string]*party.Party, error) {
	sub := New(o.Protocol)
	assign := make(map[string]*party.Party, len(o.Roles))
	for role, name := range o.Roles {
		p, err := e.partyByName(name)
		if err != nil {
			return nil, nil, err
		}
		assign[role] = p
	}
	if err := sub.bindParties(assign); err != nil {
		return nil, nil, err
	}

	sub.borrowed = true
	sub.simulated = e.simulated
	sub.running = e.running
	sub.addressed = e.addressed
	sub.network = e.network
	sub.timeout = e.timeout
	sub.observer = e.observer
	sub.runID = e.runID

	for _, mapping := range []map[string]map[string]string{o.Inputs, o.Outputs} {
		for _, role := range sortedRoles(mapping) {
			if _, ok := assign[role]; !ok {
				return nil, nil, &NonExistentPartyError{Protocol: sub.name, Name: role}
			}
		}
	}
	return sub, assign, nil
}

func (e *Engine) compileSubroutine(o *Subroutine) error {
	sub, _, err := e.subroutine(o)
	if err != nil {
		return err
	}
	steps, err := sub.Compile()
	o.Steps = steps
	return err
}

// executeSubroutine gathers the mapped inputs in the caller's namespace,
// runs the subroutine inside its own namespace on every assigned party and
// stores the mapped outputs back in the caller's namespace.
func (e *Engine) executeSubroutine(o *Subroutine) error {
	sub, assign, err := e.subroutine(o)
	if err != nil {
		return err
	}

	inputs := make(map[string]map[string]any)
	for _, role := range sortedRoles(o.Inputs) {
		p := assign[role]
		if !e.IsLocalParty(p) {
			continue
		}
		values := make(map[string]any, len(o.Inputs[role]))
		for name, source := range o.Inputs[role] {
			v, err := p.Get(source)
			if err != nil {
				return errors.Wrapf(err, "input %q of subroutine %q", name, o.Name)
			}
			values[name] = v
		}
		inputs[role] = values
	}

	e.observer.SubroutineStart(o.Name, o.Roles, o.Inputs, o.Outputs)
	outputs, err := inNamespace(o.Name, assign, func() (map[string]map[string]any, error) {
		if err := sub.SetInput(inputs); err != nil {
			return nil, err
		}
		if err := sub.Call(e.ctx); err != nil {
			return nil, err
		}
		return sub.Output()
	})
	o.Steps = sub.steps
	if err != nil {
		e.observer.SubroutineEnd(o.Name, nil)
		return err
	}

	for role, values := range outputs {
		p := assign[role]
		for name, v := range values {
			if dest, ok := o.Outputs[role][name]; ok {
				p.Set(dest, v)
			}
		}
	}
	e.observer.SubroutineEnd(o.Name, outputs)
	return nil
}

// inNamespace runs fn with tag pushed on every assigned party. The
// namespaces are popped again even when fn fails.
func inNamespace(tag string, assign map[string]*party.Party, fn func() (map[string]map[string]any, error)) (out map[string]map[string]any, err error) {
	entered := make([]*party.Party, 0, len(assign))
	for _, role := range sortedRoles(assign) {
		p := assign[role]
		p.StartSubroutine(tag)
		entered = append(entered, p)
	}
	defer func() {
		for _, p := range entered {
			if perr := p.EndSubroutine(); perr != nil && err == nil {
				err = perr
			}
		}
	}()
	return fn()
}
