// Command smpc-web serves the protocol registry over HTTP.
//
//	GET  /api/protocols   lists the protocols with their roles and parameters
//	POST /api/run/:name   runs a protocol and returns its output, statistics
//	                      and the recorded events, per role when
//	                      "distributed" is set
package main

import (
	"flag"
	"os"

	jww "github.com/spf13/jwalterweatherman"

	"github.com/LuukJonker/smpc/api/config"
	"github.com/LuukJonker/smpc/api/runner"
	"github.com/LuukJonker/smpc/internal/logging"
)

func main() {
	var (
		configFile string
		address    string
		verbosity  int
	)
	flag.StringVar(&configFile, "config", "", "path to config file")
	flag.StringVar(&address, "addr", "", "listen address, overrides the config file")
	flag.IntVar(&verbosity, "v", 0, "verbosity: 1 info, 2 debug, 3 trace")
	flag.Parse()
	logging.SetVerbosity(verbosity)

	opts := runner.Options{}
	listen := "127.0.0.1:8080"
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			jww.FATAL.Printf("%v", err)
			os.Exit(1)
		}
		if verbosity == 0 {
			if err := logging.SetLevel(cfg.LogLevel); err != nil {
				jww.FATAL.Printf("%v", err)
				os.Exit(1)
			}
		}
		opts.ReceiveTimeout = cfg.ReceiveTimeout
		opts.DialTimeout = cfg.DialTimeout
		listen = cfg.WebAddress
	}
	if address != "" {
		listen = address
	}

	e := newServer(opts)
	jww.INFO.Printf("listening on %s", listen)
	e.Logger.Fatal(e.Start(listen))
}
