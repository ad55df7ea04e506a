package main

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/LuukJonker/smpc/api/mpc"
	"github.com/LuukJonker/smpc/api/protocol"
	"github.com/LuukJonker/smpc/api/runner"
	"github.com/LuukJonker/smpc/api/stats"
)

// RunRequest is the body of POST /api/run/:name.
type RunRequest struct {
	Parameters  map[string]int            `json:"parameters"`
	Inputs      map[string]map[string]any `json:"inputs"`
	Distributed bool                      `json:"distributed"`
}

// RunResponse is returned by POST /api/run/:name.
type RunResponse struct {
	Protocol   string                      `json:"protocol"`
	Output     map[string]map[string]any   `json:"output"`
	Statistics map[string]stats.Statistics `json:"statistics"`
	Total      stats.Statistics            `json:"total"`
	Trace      string                      `json:"trace"`
	Events     []protocol.Event            `json:"events,omitempty"`

	// RoleEvents holds the event log of every role of a distributed run.
	RoleEvents map[string][]protocol.Event `json:"role_events,omitempty"`
}

type server struct {
	options runner.Options
}

func newServer(opts runner.Options) *echo.Echo {
	s := &server{options: opts}
	e := echo.New()
	e.HideBanner = true

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST")
			c.Response().Header().Set("Access-Control-Allow-Headers", "*")
			return next(c)
		}
	})

	e.GET("/api/protocols", s.listProtocols)
	e.POST("/api/run/:name", s.runProtocol)
	return e
}

func (s *server) listProtocols(c echo.Context) error {
	entries := make([]protocolInfo, 0, len(mpc.Registry))
	for _, name := range mpc.Names() {
		entry := mpc.Registry[name]
		info := protocolInfo{Entry: entry}
		if def, err := entry.Factory()(nil); err == nil {
			info.Roles = def.PartyNames()
			info.Inputs = def.ExpectedInput()
			info.Outputs = def.OutputVariables()
		}
		entries = append(entries, info)
	}
	return c.JSON(http.StatusOK, entries)
}

type protocolInfo struct {
	mpc.Entry
	Roles   []string            `json:"roles"`
	Inputs  map[string][]string `json:"inputs"`
	Outputs map[string][]string `json:"outputs"`
}

func (s *server) runProtocol(c echo.Context) error {
	entry, err := mpc.Lookup(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	var req RunRequest
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	for role, vars := range req.Inputs {
		for name, v := range vars {
			req.Inputs[role][name] = normalize(v)
		}
	}

	factory := func() (protocol.Protocol, error) { return entry.Factory()(req.Parameters) }
	if _, err := factory(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var (
		res  *runner.Result
		log  = protocol.NewEventLog()
		logs = make(map[string]*protocol.EventLog)
	)
	if req.Distributed {
		def, _ := factory()
		addrs, aerr := runner.LoopbackAddresses(def.PartyNames())
		if aerr != nil {
			return aerr
		}
		opts := s.options
		opts.ObserverFor = func(role string) protocol.Observer {
			logs[role] = protocol.NewEventLog()
			return logs[role]
		}
		res, err = runner.RunDistributed(ctx, factory, req.Inputs, addrs, opts)
	} else {
		res, err = runner.RunSimulated(ctx, factory, req.Inputs, log)
	}
	if err != nil {
		var invalid *protocol.InvalidInputError
		if errors.As(err, &invalid) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		jww.ERROR.Printf("running %s: %+v", entry.Name, err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := RunResponse{
		Protocol:   entry.Name,
		Output:     res.Output,
		Statistics: res.Statistics,
		Total:      res.Total,
		Trace:      protocol.FormatTrace(res.Trace),
		Events:     log.Events(),
	}
	if len(logs) > 0 {
		resp.RoleEvents = make(map[string][]protocol.Event, len(logs))
		for role, l := range logs {
			resp.RoleEvents[role] = l.Events()
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// normalize turns the json.Number values of a decoded body into int64,
// *big.Int or float64.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if b, ok := new(big.Int).SetString(t.String(), 10); ok {
			return b
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	}
	return v
}
