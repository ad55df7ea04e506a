package protocol

import (
	"sort"
	"strings"
	"sync"

	jww "github.com/spf13/jwalterweatherman"

	"github.com/LuukJonker/smpc/api/stats"
)

// Observer is notified of every executed operation. Subroutine engines
// report to the observer of their caller, bracketed by SubroutineStart and
// SubroutineEnd. Operations that do not execute locally in distributed mode
// are still reported, with the values known to this process.
//
// An engine calls its observer from the goroutine running Call. Engines
// running concurrently need an observer each.
type Observer interface {
	Step(name string)
	Comment(text string)
	Computation(party string, computed map[string]any, description string)
	Send(sender, receiver string, vars map[string]any)
	Broadcast(sender string, vars map[string]any)
	SubroutineStart(name string, roles map[string]string, inputs, outputs map[string]map[string]string)
	SubroutineEnd(name string, outputs map[string]map[string]any)
	ProtocolEnd(parties map[string]stats.Statistics, total stats.Statistics)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Step(string)                                               {}
func (NopObserver) Comment(string)                                            {}
func (NopObserver) Computation(string, map[string]any, string)                {}
func (NopObserver) Send(string, string, map[string]any)                       {}
func (NopObserver) Broadcast(string, map[string]any)                          {}
func (NopObserver) SubroutineEnd(string, map[string]map[string]any)           {}
func (NopObserver) ProtocolEnd(map[string]stats.Statistics, stats.Statistics) {}
func (NopObserver) SubroutineStart(string, map[string]string, map[string]map[string]string, map[string]map[string]string) {
}

type multiObserver []Observer

// MultiObserver fans events out to every given observer in order.
func MultiObserver(observers ...Observer) Observer {
	return multiObserver(observers)
}

func (m multiObserver) Step(name string) {
	for _, o := range m {
		o.Step(name)
	}
}

func (m multiObserver) Comment(text string) {
	for _, o := range m {
		o.Comment(text)
	}
}

func (m multiObserver) Computation(party string, computed map[string]any, description string) {
	for _, o := range m {
		o.Computation(party, computed, description)
	}
}

func (m multiObserver) Send(sender, receiver string, vars map[string]any) {
	for _, o := range m {
		o.Send(sender, receiver, vars)
	}
}

func (m multiObserver) Broadcast(sender string, vars map[string]any) {
	for _, o := range m {
		o.Broadcast(sender, vars)
	}
}

func (m multiObserver) SubroutineStart(name string, roles map[string]string, inputs, outputs map[string]map[string]string) {
	for _, o := range m {
		o.SubroutineStart(name, roles, inputs, outputs)
	}
}

func (m multiObserver) SubroutineEnd(name string, outputs map[string]map[string]any) {
	for _, o := range m {
		o.SubroutineEnd(name, outputs)
	}
}

func (m multiObserver) ProtocolEnd(parties map[string]stats.Statistics, total stats.Statistics) {
	for _, o := range m {
		o.ProtocolEnd(parties, total)
	}
}

// LogObserver writes events to the jww notepad. Steps and protocol
// completion log at INFO, everything else at DEBUG. Role, when set, tags
// every line.
type LogObserver struct {
	Role string

	mu    sync.Mutex
	depth int
}

func (l *LogObserver) prefix() string {
	l.mu.Lock()
	depth := l.depth
	l.mu.Unlock()
	p := strings.Repeat("  ", depth)
	if l.Role != "" {
		p = "[" + l.Role + "] " + p
	}
	return p
}

func (l *LogObserver) Step(name string) {
	jww.INFO.Printf("%sstep: %s", l.prefix(), name)
}

func (l *LogObserver) Comment(text string) {
	jww.DEBUG.Printf("%s# %s", l.prefix(), text)
}

func (l *LogObserver) Computation(party string, computed map[string]any, description string) {
	jww.DEBUG.Printf("%s%s computes %s: %v", l.prefix(), party, description, sortedKeys(computed))
}

func (l *LogObserver) Send(sender, receiver string, vars map[string]any) {
	jww.DEBUG.Printf("%s%s -> %s: %v", l.prefix(), sender, receiver, sortedKeys(vars))
}

func (l *LogObserver) Broadcast(sender string, vars map[string]any) {
	jww.DEBUG.Printf("%s%s -> *: %v", l.prefix(), sender, sortedKeys(vars))
}

func (l *LogObserver) SubroutineStart(name string, roles map[string]string, _, _ map[string]map[string]string) {
	jww.INFO.Printf("%ssubroutine %s %v", l.prefix(), name, roles)
	l.mu.Lock()
	l.depth++
	l.mu.Unlock()
}

func (l *LogObserver) SubroutineEnd(name string, _ map[string]map[string]any) {
	l.mu.Lock()
	if l.depth > 0 {
		l.depth--
	}
	l.mu.Unlock()
	jww.INFO.Printf("%send of subroutine %s", l.prefix(), name)
}

func (l *LogObserver) ProtocolEnd(parties map[string]stats.Statistics, total stats.Statistics) {
	jww.INFO.Printf("%sprotocol finished, %s", l.prefix(), total)
	jww.DEBUG.Printf("\n%s", stats.Table(parties))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
