package protocol

import (
	"context"
	"sort"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/LuukJonker/smpc/api/party"
	"github.com/LuukJonker/smpc/api/stats"
	"github.com/LuukJonker/smpc/api/transport"
	"github.com/LuukJonker/smpc/api/transport/mocknet"
	"github.com/LuukJonker/smpc/api/transport/tcpnet"
)

// serials numbers engines in creation order.
var serials atomix.Uint32

// Engine executes one instance of a Protocol. An Engine runs once; create a
// new one for every execution. It is not safe for concurrent use.
type Engine struct {
	def   Protocol
	name  string
	roles []string

	parties  map[string]*party.Party
	state    State
	observer Observer

	simulated   bool
	running     string
	addressed   bool
	borrowed    bool
	network     *mocknet.Network
	timeout     time.Duration
	dialTimeout time.Duration

	ctx       context.Context
	recording bool
	steps     []*Step
	err       error

	runID  uuid.UUID
	serial uint32
}

// New creates an engine for the protocol definition. Until parties are
// bound explicitly every role gets a party named after the role, and the
// engine runs in simulated mode.
func New(def Protocol) *Engine {
	return &Engine{
		def:       def,
		name:      def.Name(),
		roles:     append([]string(nil), def.PartyNames()...),
		observer:  NopObserver{},
		simulated: true,
		runID:     uuid.New(),
		serial:    serials.Add(1),
	}
}

// Name returns the protocol name.
func (e *Engine) Name() string {
	return e.name
}

// Definition returns the protocol the engine executes.
func (e *Engine) Definition() Protocol {
	return e.def
}

// Roles returns the protocol's roles in declaration order.
func (e *Engine) Roles() []string {
	return append([]string(nil), e.roles...)
}

// State returns the engine's lifecycle stage.
func (e *Engine) State() State {
	return e.state
}

// RunID identifies this execution. Subroutines share their caller's id.
func (e *Engine) RunID() uuid.UUID {
	return e.runID
}

// Serial is a process-wide sequence number of the engine.
func (e *Engine) Serial() uint32 {
	return e.serial
}

// IsSimulated reports whether all parties run in this process.
func (e *Engine) IsSimulated() bool {
	return e.simulated
}

// RunningParty returns the name of the party this process runs in
// distributed mode, or "" when simulated or not participating.
func (e *Engine) RunningParty() string {
	return e.running
}

// RunningRole returns the role of the party this process runs in
// distributed mode, or "".
func (e *Engine) RunningRole() string {
	if e.running == "" {
		return ""
	}
	for _, role := range e.roles {
		if p := e.parties[role]; p != nil && p.Name() == e.running {
			return role
		}
	}
	return ""
}

// SetObserver installs the observer that receives execution events.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	e.observer = o
}

// SetReceiveTimeout bounds how long a receive waits for its variables. It
// must be called before parties get their transports, that is before
// SetPartyAddresses or the first Call.
func (e *Engine) SetReceiveTimeout(d time.Duration) {
	e.timeout = d
}

// SetDialTimeout bounds how long a distributed party retries to reach a
// peer. It must be called before SetPartyAddresses.
func (e *Engine) SetDialTimeout(d time.Duration) {
	e.dialTimeout = d
}

// Trace returns the steps recorded by the last Call or Replay.
func (e *Engine) Trace() []*Step {
	return e.steps
}

func (e *Engine) ensureParties() error {
	if e.parties != nil {
		return nil
	}
	parties := make(map[string]*party.Party, len(e.roles))
	for _, role := range e.roles {
		if _, dup := parties[role]; dup {
			return errors.Newf("protocol %q declares role %q twice", e.name, role)
		}
		parties[role] = party.New(role)
	}
	e.parties = parties
	if e.state == StateUninitialized {
		e.state = StatePartiesBound
	}
	return nil
}

func (e *Engine) checkConfigurable() error {
	if e.state == StateRunning || e.state.Finished() {
		return errors.Wrapf(ErrInvalidState, "protocol %q is %s", e.name, e.state)
	}
	return nil
}

// LookupParty returns the party playing role.
func (e *Engine) LookupParty(role string) (*party.Party, error) {
	if err := e.ensureParties(); err != nil {
		return nil, err
	}
	p, ok := e.parties[role]
	if !ok {
		return nil, &NonExistentPartyError{Protocol: e.name, Name: role}
	}
	return p, nil
}

// Party returns the party playing role. Inside Run an unknown role becomes
// the engine's error and nil is returned, which makes the operation using it
// a no-op.
func (e *Engine) Party(role string) *party.Party {
	p, err := e.LookupParty(role)
	if err != nil {
		if e.active() {
			e.fail(err)
		}
		return nil
	}
	return p
}

// Parties returns the role to party assignment.
func (e *Engine) Parties() map[string]*party.Party {
	if err := e.ensureParties(); err != nil {
		return nil
	}
	out := make(map[string]*party.Party, len(e.parties))
	for role, p := range e.parties {
		out[role] = p
	}
	return out
}

// SetProtocolParties binds an existing party to every role. Party names
// must be unique.
func (e *Engine) SetProtocolParties(assign map[string]*party.Party) error {
	if err := e.checkConfigurable(); err != nil {
		return err
	}
	if e.addressed || e.borrowed {
		return errors.Wrapf(ErrInvalidState, "parties of protocol %q can no longer be replaced", e.name)
	}
	return e.bindParties(assign)
}

func (e *Engine) bindParties(assign map[string]*party.Party) error {
	isRole := make(map[string]bool, len(e.roles))
	for _, role := range e.roles {
		isRole[role] = true
	}
	for _, role := range sortedRoles(assign) {
		if !isRole[role] {
			return &NonExistentPartyError{Protocol: e.name, Name: role}
		}
	}

	byName := make(map[string][]string)
	for _, role := range e.roles {
		p := assign[role]
		if p == nil {
			return errors.Newf("protocol %q: no party given for role %q", e.name, role)
		}
		byName[p.Name()] = append(byName[p.Name()], role)
	}
	for _, role := range e.roles {
		name := assign[role].Name()
		if roles := byName[name]; len(roles) > 1 {
			return &DuplicatePartyNameError{Name: name, Roles: roles}
		}
	}

	e.parties = make(map[string]*party.Party, len(assign))
	for role, p := range assign {
		e.parties[role] = p
	}
	e.state = StatePartiesBound
	return nil
}

// SetPartyAddresses switches the engine to distributed mode. Every listed
// role gets its network address. If localRole is not empty this process
// runs that role: its party starts listening on its address and only its
// part of each operation is performed here.
func (e *Engine) SetPartyAddresses(addresses map[string]string, localRole string) error {
	if err := e.checkConfigurable(); err != nil {
		return err
	}
	if e.borrowed || e.running != "" {
		return errors.Wrapf(ErrInvalidState, "addresses of protocol %q can no longer be changed", e.name)
	}
	if err := e.ensureParties(); err != nil {
		return err
	}
	for _, role := range sortedRoles(addresses) {
		if _, ok := e.parties[role]; !ok {
			return &NonExistentPartyError{Protocol: e.name, Name: role}
		}
	}
	if localRole != "" {
		if _, ok := e.parties[localRole]; !ok {
			return &NonExistentPartyError{Protocol: e.name, Name: localRole}
		}
		if addresses[localRole] == "" {
			return errors.Newf("protocol %q: no address given for local role %q", e.name, localRole)
		}
	}

	for role, address := range addresses {
		e.parties[role].SetAddress(address)
	}
	e.simulated = false
	e.addressed = true
	if e.timeout <= 0 {
		e.timeout = transport.DefaultReceiveTimeout
	}
	if localRole == "" {
		return nil
	}

	local := e.parties[localRole]
	peers := make(map[string]string, len(e.parties))
	for _, p := range e.parties {
		if p.Address() != "" {
			peers[p.Name()] = p.Address()
		}
	}
	m, err := tcpnet.Listen(tcpnet.Config{
		Self:           local.Name(),
		Address:        local.Address(),
		Peers:          peers,
		ReceiveTimeout: e.timeout,
		DialTimeout:    e.dialTimeout,
	})
	if err != nil {
		return errors.Wrapf(err, "protocol %q: role %q", e.name, localRole)
	}
	local.SetTransport(m)
	e.running = local.Name()
	jww.INFO.Printf("%s: running as %s (%s)", e.name, localRole, local.Address())
	return nil
}

// IsLocalParty reports whether operations of p execute in this process.
func (e *Engine) IsLocalParty(p *party.Party) bool {
	if p == nil {
		return false
	}
	return e.simulated || p.Name() == e.running
}

// SetInput validates and assigns the inputs of the listed roles. The
// variables given for a role must match its expected inputs exactly. Values
// are only stored for local parties.
func (e *Engine) SetInput(inputs map[string]map[string]any) error {
	if err := e.checkConfigurable(); err != nil {
		return err
	}
	if err := e.ensureParties(); err != nil {
		return err
	}

	expected := e.def.ExpectedInput()
	roles := sortedRoles(inputs)
	for _, role := range roles {
		if _, ok := e.parties[role]; !ok {
			return &NonExistentPartyError{Protocol: e.name, Name: role}
		}
		given := make([]string, 0, len(inputs[role]))
		for name := range inputs[role] {
			given = append(given, name)
		}
		missing, unexpected := diff(expected[role], given)
		if len(missing) > 0 || len(unexpected) > 0 {
			return &InvalidInputError{Role: role, Missing: missing, Unexpected: unexpected}
		}
	}

	for _, role := range roles {
		p := e.parties[role]
		if !e.IsLocalParty(p) {
			continue
		}
		for name, v := range inputs[role] {
			p.Set(name, v)
		}
	}
	e.state = StateInputsSet
	return nil
}

// Output collects the declared output variables of every local party,
// keyed by role.
func (e *Engine) Output() (map[string]map[string]any, error) {
	if e.state != StateCompleted {
		return nil, errors.Wrapf(ErrInvalidState, "protocol %q is %s", e.name, e.state)
	}

	out := make(map[string]map[string]any)
	for role, names := range e.def.OutputVariables() {
		p, ok := e.parties[role]
		if !ok {
			return nil, &NonExistentPartyError{Protocol: e.name, Name: role}
		}
		if !e.IsLocalParty(p) {
			continue
		}
		values := make(map[string]any, len(names))
		for _, name := range names {
			v, err := p.Get(name)
			if err != nil {
				return nil, err
			}
			values[name] = v
		}
		out[role] = values
	}
	return out, nil
}

// PartyStatistics returns every party's statistics keyed by role.
func (e *Engine) PartyStatistics() map[string]stats.Statistics {
	out := make(map[string]stats.Statistics, len(e.parties))
	for role, p := range e.parties {
		out[role] = p.Statistics()
	}
	return out
}

// TotalStatistics sums the statistics of all parties.
func (e *Engine) TotalStatistics() stats.Statistics {
	return stats.Total(e.PartyStatistics())
}

// Terminate closes the transports of all parties. Subroutine engines
// cannot be terminated as their parties belong to the caller.
func (e *Engine) Terminate() error {
	if e.borrowed {
		return ErrBorrowedParties
	}
	var err error
	for _, role := range e.roles {
		p := e.parties[role]
		if p == nil {
			continue
		}
		if cerr := p.Close(); cerr != nil {
			err = errors.CombineErrors(err, errors.Wrapf(cerr, "closing %s", role))
		}
	}
	return err
}

func (e *Engine) ensureTransports() error {
	if e.borrowed || !e.simulated {
		return nil
	}
	for _, role := range e.roles {
		p := e.parties[role]
		if p.Transport() != nil {
			continue
		}
		if e.network == nil {
			e.network = mocknet.NewNetwork(e.timeout)
		}
		m, err := e.network.Join(p.Name())
		if err != nil {
			return errors.Wrapf(err, "protocol %q", e.name)
		}
		p.SetTransport(m)
	}
	return nil
}

// Call runs the protocol. It returns the first error raised by Run or by
// any of its operations.
func (e *Engine) Call(ctx context.Context) error {
	if err := e.prepare(); err != nil {
		return err
	}
	e.begin(ctx)
	return e.finish(e.runDefinition())
}

// Replay executes previously recorded steps instead of Run. The steps must
// refer to the same party names as this engine.
func (e *Engine) Replay(ctx context.Context, steps []*Step) error {
	if err := e.prepare(); err != nil {
		return err
	}
	e.begin(ctx)
	for _, step := range steps {
		if err := e.AddProtocolStep(step.Name); err != nil {
			break
		}
		for _, op := range step.Operations {
			_ = e.dispatch(clone(op))
		}
		if e.err != nil {
			break
		}
	}
	return e.finish(e.err)
}

// Compile records the operations of Run without executing them, expanding
// subroutines into their own steps. No party is touched.
func (e *Engine) Compile() ([]*Step, error) {
	if e.state == StateRunning {
		return nil, errors.Wrapf(ErrInvalidState, "protocol %q is %s", e.name, e.state)
	}
	if err := e.ensureParties(); err != nil {
		return nil, err
	}

	prevSteps := e.steps
	e.ctx = context.Background()
	e.recording = true
	e.steps = nil
	e.err = nil

	err := e.runDefinition()
	steps := e.steps
	e.recording = false
	e.steps = prevSteps
	e.err = nil
	if err != nil {
		return steps, errors.Wrapf(err, "compiling protocol %q", e.name)
	}
	return steps, nil
}

func (e *Engine) prepare() error {
	if e.state == StateRunning || e.state.Finished() {
		return errors.Wrapf(ErrInvalidState, "cannot run protocol %q: it is %s", e.name, e.state)
	}
	if err := e.ensureParties(); err != nil {
		return err
	}
	return e.ensureTransports()
}

func (e *Engine) begin(ctx context.Context) {
	e.ctx = ctx
	e.steps = nil
	e.err = nil
	e.state = StateRunning
	if e.borrowed {
		jww.DEBUG.Printf("%s: subroutine started (role %q)", e.name, e.RunningRole())
		return
	}
	mode := "simulated"
	if !e.simulated {
		mode = "distributed"
	}
	jww.INFO.Printf("%s: run %s started in %s mode", e.name, e.runID, mode)
}

func (e *Engine) runDefinition() error {
	err := e.def.Run(e)
	if e.err != nil {
		return e.err
	}
	return err
}

func (e *Engine) finish(err error) error {
	if err != nil {
		e.state = StateFailed
		if !e.borrowed {
			jww.ERROR.Printf("%s: run %s failed: %v", e.name, e.runID, err)
		}
		return errors.Wrapf(err, "protocol %q", e.name)
	}

	e.state = StateCompleted
	if !e.borrowed {
		total := e.TotalStatistics()
		jww.INFO.Printf("%s: run %s completed", e.name, e.runID)
		e.observer.ProtocolEnd(e.PartyStatistics(), total)
	}
	return nil
}

// active reports whether declarative calls are accepted.
func (e *Engine) active() bool {
	return e.state == StateRunning || e.recording
}

// fail records err as the engine's error unless one is already recorded,
// and returns the recorded error.
func (e *Engine) fail(err error) error {
	if e.err == nil {
		e.err = err
	}
	return e.err
}

// Err returns the error recorded during the current run, if any.
func (e *Engine) Err() error {
	return e.err
}

func sortedRoles[V any](m map[string]V) []string {
	roles := make([]string, 0, len(m))
	for role := range m {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
