package protocol

import (
	"sync"

	"github.com/LuukJonker/smpc/api/stats"
)

// EventKind names a recorded observer event.
type EventKind string

const (
	EventStep            EventKind = "step"
	EventComment         EventKind = "comment"
	EventComputation     EventKind = "computation"
	EventSend            EventKind = "send"
	EventBroadcast       EventKind = "broadcast"
	EventSubroutineStart EventKind = "subroutine_start"
	EventSubroutineEnd   EventKind = "subroutine_end"
	EventProtocolEnd     EventKind = "protocol_end"
)

// Event is one observer notification as recorded by EventLog. Depth is the
// subroutine nesting level the event happened at.
type Event struct {
	Kind        EventKind                    `json:"kind"`
	Depth       int                          `json:"depth"`
	Name        string                       `json:"name,omitempty"`
	Party       string                       `json:"party,omitempty"`
	Receiver    string                       `json:"receiver,omitempty"`
	Description string                       `json:"description,omitempty"`
	Values      map[string]any               `json:"values,omitempty"`
	Roles       map[string]string            `json:"roles,omitempty"`
	Inputs      map[string]map[string]string `json:"inputs,omitempty"`
	Outputs     map[string]map[string]string `json:"outputs,omitempty"`
	Results     map[string]map[string]any    `json:"results,omitempty"`
	Statistics  map[string]stats.Statistics  `json:"statistics,omitempty"`
	Total       *stats.Statistics            `json:"total,omitempty"`
}

// EventLog is an Observer that records every event in order.
type EventLog struct {
	mu     sync.Mutex
	depth  int
	events []Event
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Depth = l.depth
	l.events = append(l.events, e)
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (l *EventLog) Kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]EventKind, len(l.events))
	for i, e := range l.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (l *EventLog) Step(name string) {
	l.add(Event{Kind: EventStep, Name: name})
}

func (l *EventLog) Comment(text string) {
	l.add(Event{Kind: EventComment, Description: text})
}

func (l *EventLog) Computation(party string, computed map[string]any, description string) {
	l.add(Event{Kind: EventComputation, Party: party, Values: computed, Description: description})
}

func (l *EventLog) Send(sender, receiver string, vars map[string]any) {
	l.add(Event{Kind: EventSend, Party: sender, Receiver: receiver, Values: vars})
}

func (l *EventLog) Broadcast(sender string, vars map[string]any) {
	l.add(Event{Kind: EventBroadcast, Party: sender, Values: vars})
}

func (l *EventLog) SubroutineStart(name string, roles map[string]string, inputs, outputs map[string]map[string]string) {
	l.add(Event{Kind: EventSubroutineStart, Name: name, Roles: roles, Inputs: inputs, Outputs: outputs})
	l.mu.Lock()
	l.depth++
	l.mu.Unlock()
}

func (l *EventLog) SubroutineEnd(name string, outputs map[string]map[string]any) {
	l.mu.Lock()
	if l.depth > 0 {
		l.depth--
	}
	l.mu.Unlock()
	l.add(Event{Kind: EventSubroutineEnd, Name: name, Results: outputs})
}

func (l *EventLog) ProtocolEnd(parties map[string]stats.Statistics, total stats.Statistics) {
	l.add(Event{Kind: EventProtocolEnd, Statistics: parties, Total: &total})
}
