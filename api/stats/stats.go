// Package stats holds the per-party performance counters collected while a
// protocol runs and the helpers used to aggregate them.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// Statistics captures the resources a single party spent on a protocol run.
type Statistics struct {
	// ExecutionTime is the wall-clock time spent in local computation and in
	// handing messages to the transport.
	ExecutionTime time.Duration `json:"execution_time"`
	// ExecutionCPUTime is the CPU time of the OS thread running the party's
	// local computations, so parties sharing a process are accounted
	// separately. Outside Linux it falls back to process CPU time.
	ExecutionCPUTime time.Duration `json:"execution_cpu_time"`
	// WaitTime is the time spent blocked while waiting for incoming variables.
	WaitTime time.Duration `json:"wait_time"`

	MessagesSent     uint64 `json:"messages_sent"`
	BytesSent        uint64 `json:"bytes_sent"`
	MessagesReceived uint64 `json:"messages_received"`
	BytesReceived    uint64 `json:"bytes_received"`
}

// Add returns the component-wise sum of s and o.
func (s Statistics) Add(o Statistics) Statistics {
	return Statistics{
		ExecutionTime:    s.ExecutionTime + o.ExecutionTime,
		ExecutionCPUTime: s.ExecutionCPUTime + o.ExecutionCPUTime,
		WaitTime:         s.WaitTime + o.WaitTime,
		MessagesSent:     s.MessagesSent + o.MessagesSent,
		BytesSent:        s.BytesSent + o.BytesSent,
		MessagesReceived: s.MessagesReceived + o.MessagesReceived,
		BytesReceived:    s.BytesReceived + o.BytesReceived,
	}
}

// IsZero reports whether no resource was recorded.
func (s Statistics) IsZero() bool {
	return s == Statistics{}
}

// String renders the counters on a single line.
func (s Statistics) String() string {
	return fmt.Sprintf("exec=%s cpu=%s wait=%s sent=%d msgs/%d B received=%d msgs/%d B",
		s.ExecutionTime, s.ExecutionCPUTime, s.WaitTime,
		s.MessagesSent, s.BytesSent, s.MessagesReceived, s.BytesReceived)
}

// Sum folds all given statistics into a single total. Sum of nothing is the
// zero value.
func Sum(all ...Statistics) Statistics {
	var total Statistics
	for _, s := range all {
		total = total.Add(s)
	}
	return total
}

// Total sums the statistics of every party in the map.
func Total(parties map[string]Statistics) Statistics {
	var total Statistics
	for _, s := range parties {
		total = total.Add(s)
	}
	return total
}

// Merge combines per-party maps, typically gathered from separate processes.
// Entries for the same party are added together.
func Merge(parts ...map[string]Statistics) map[string]Statistics {
	merged := make(map[string]Statistics)
	for _, part := range parts {
		for name, s := range part {
			merged[name] = merged[name].Add(s)
		}
	}
	return merged
}

// Table formats per-party statistics followed by their total as an aligned
// text table, parties sorted by name.
func Table(parties map[string]Statistics) string {
	names := make([]string, 0, len(parties))
	for name := range parties {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "party\texec\tcpu\twait\tmsgs sent\tbytes sent\tmsgs recv\tbytes recv")
	row := func(name string, s Statistics) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n", name,
			s.ExecutionTime, s.ExecutionCPUTime, s.WaitTime,
			s.MessagesSent, s.BytesSent, s.MessagesReceived, s.BytesReceived)
	}
	for _, name := range names {
		row(name, parties[name])
	}
	row("total", Total(parties))
	w.Flush()
	return b.String()
}
