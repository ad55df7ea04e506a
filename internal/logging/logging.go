// Package logging configures the process-wide jwalterweatherman notepad used
// by every smpc package.
package logging

import (
	"strings"

	"github.com/cockroachdb/errors"
	jww "github.com/spf13/jwalterweatherman"
)

var levels = map[string]jww.Threshold{
	"trace":    jww.LevelTrace,
	"debug":    jww.LevelDebug,
	"info":     jww.LevelInfo,
	"warn":     jww.LevelWarn,
	"error":    jww.LevelError,
	"critical": jww.LevelCritical,
	"fatal":    jww.LevelFatal,
}

// ParseLevel maps a level name such as "debug" to a jww threshold.
func ParseLevel(name string) (jww.Threshold, error) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.Newf("unknown log level %q", name)
	}
	return level, nil
}

// SetLevel sets the stdout threshold from a level name. An empty name keeps
// the current threshold.
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	jww.SetStdoutThreshold(level)
	return nil
}

// SetVerbosity maps a -v style counter onto a threshold: 0 warns only,
// 1 adds info and 2 or more adds debug and trace output.
func SetVerbosity(v int) {
	switch {
	case v <= 0:
		jww.SetStdoutThreshold(jww.LevelWarn)
	case v == 1:
		jww.SetStdoutThreshold(jww.LevelInfo)
	case v == 2:
		jww.SetStdoutThreshold(jww.LevelDebug)
	default:
		jww.SetStdoutThreshold(jww.LevelTrace)
	}
}
