// Command smpc-party runs one role of a protocol described by a YAML
// configuration, or all roles at once when no role is given.
//
//	smpc-party -config sum.yaml -role party_1
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/LuukJonker/smpc/api/config"
	"github.com/LuukJonker/smpc/api/mpc"
	"github.com/LuukJonker/smpc/api/protocol"
	"github.com/LuukJonker/smpc/api/runner"
	"github.com/LuukJonker/smpc/api/stats"
	"github.com/LuukJonker/smpc/internal/logging"
)

type options struct {
	configFile string
	role       string
	protocol   string
	verbosity  int
	trace      bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configFile, "config", "smpc.yaml", "path to config file")
	flag.StringVar(&o.role, "role", "", "role to run; all roles run in this process when empty")
	flag.StringVar(&o.protocol, "protocol", "", "protocol to run, overrides the config file")
	flag.IntVar(&o.verbosity, "v", 0, "verbosity: 1 info, 2 debug, 3 trace")
	flag.BoolVar(&o.trace, "trace", false, "print the executed steps")
	flag.Parse()
	return o
}

func run(ctx context.Context, o options) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	if o.verbosity > 0 {
		logging.SetVerbosity(o.verbosity)
	}
	if o.protocol != "" {
		cfg.Protocol = o.protocol
	}

	entry, err := mpc.Lookup(cfg.Protocol)
	if err != nil {
		return errors.Wrapf(err, "known protocols are %v", mpc.Names())
	}
	factory := func() (protocol.Protocol, error) { return entry.Factory()(cfg.Parameters) }
	inputs := cfg.InputMap()

	var res *runner.Result
	if o.role == "" {
		res, err = runner.RunSimulated(ctx, factory, inputs, &protocol.LogObserver{})
	} else {
		def, ferr := factory()
		if ferr != nil {
			return ferr
		}
		res, err = runner.RunParty(ctx, def, o.role, inputs[o.role], cfg.Addresses(), runner.Options{
			ReceiveTimeout: cfg.ReceiveTimeout,
			DialTimeout:    cfg.DialTimeout,
			Observer:       &protocol.LogObserver{Role: o.role},
		})
	}
	if err != nil {
		return err
	}

	if o.trace {
		fmt.Fprint(os.Stderr, protocol.FormatTrace(res.Trace))
	}
	jww.INFO.Printf("statistics:\n%s", stats.Table(res.Statistics))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func main() {
	o := parseFlags()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, o); err != nil {
		jww.FATAL.Printf("%+v", err)
		os.Exit(1)
	}
}
