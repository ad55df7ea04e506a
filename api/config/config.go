// Package config loads the YAML configuration shared by the command line
// tools.
//
//	protocol: Sum
//	parameters:
//	  n: 3
//	logLevel: info
//	receiveTimeout: 5s
//	parties:
//	  - role: party_0
//	    address: 127.0.0.1:7000
//	  ...
//	inputs:
//	  - role: party_0
//	    var: value
//	    value: 12
//
// Settings can be overridden from the environment with the SMPC_ prefix,
// e.g. SMPC_LOGLEVEL=debug.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/LuukJonker/smpc/api/transport"
)

// PartyConfig is the network address of one role.
type PartyConfig struct {
	Role    string `mapstructure:"role"`
	Address string `mapstructure:"address"`
}

// InputConfig is one input variable of one role.
type InputConfig struct {
	Role  string `mapstructure:"role"`
	Var   string `mapstructure:"var"`
	Value any    `mapstructure:"value"`
}

// Config describes a protocol execution.
type Config struct {
	Protocol       string         `mapstructure:"protocol"`
	Parameters     map[string]int `mapstructure:"parameters"`
	LogLevel       string         `mapstructure:"logLevel"`
	ReceiveTimeout time.Duration  `mapstructure:"receiveTimeout"`
	DialTimeout    time.Duration  `mapstructure:"dialTimeout"`
	WebAddress     string         `mapstructure:"webAddress"`
	Parties        []PartyConfig  `mapstructure:"parties"`
	Inputs         []InputConfig  `mapstructure:"inputs"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("logLevel", "warn")
	v.SetDefault("receiveTimeout", transport.DefaultReceiveTimeout)
	v.SetDefault("dialTimeout", transport.DefaultDialTimeout)
	v.SetDefault("webAddress", "127.0.0.1:8080")
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SMPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return &cfg, nil
}

// Validate checks the configuration for duplicate or incomplete entries.
func (c *Config) Validate() error {
	if c.Protocol == "" {
		return errors.New("protocol is required")
	}
	seen := make(map[string]bool, len(c.Parties))
	for i, p := range c.Parties {
		if p.Role == "" || p.Address == "" {
			return errors.Newf("party %d: role and address are required", i)
		}
		if seen[p.Role] {
			return errors.Newf("party %q listed twice", p.Role)
		}
		seen[p.Role] = true
	}
	for i, in := range c.Inputs {
		if in.Role == "" || in.Var == "" {
			return errors.Newf("input %d: role and var are required", i)
		}
	}
	return nil
}

// Addresses returns the party addresses keyed by role.
func (c *Config) Addresses() map[string]string {
	out := make(map[string]string, len(c.Parties))
	for _, p := range c.Parties {
		out[p.Role] = p.Address
	}
	return out
}

// InputMap returns the inputs keyed by role and variable name.
func (c *Config) InputMap() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, in := range c.Inputs {
		if out[in.Role] == nil {
			out[in.Role] = make(map[string]any)
		}
		out[in.Role][in.Var] = in.Value
	}
	return out
}
