package byteflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the yaml-file configuration for a byteflow server process.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

type ServerConfig struct {
	Addr   string `yaml:"addr"`
	WSPath string `yaml:"ws_path"`
	// QueueLimit bounds each connection's inbound buffer; 0 keeps it
	// unbounded, which trades memory growth under a slow consumer for
	// never touching the receive path.
	QueueLimit     int     `yaml:"queue_limit"`
	OverflowPolicy string  `yaml:"overflow_policy"` // "drop" or "close"
	AcceptRPS      float64 `yaml:"accept_rps"`
	AcceptBurst    int     `yaml:"accept_burst"`
	Multicore      bool    `yaml:"multicore"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			WSPath:         "/ws",
			QueueLimit:     0,
			OverflowPolicy: "drop",
		},
	}
}

// LoadConfig reads a yaml config file, filling unset fields with
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	s := &c.Server
	if s.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	switch s.OverflowPolicy {
	case "", "drop", "close":
	default:
		return fmt.Errorf("server.overflow_policy must be \"drop\" or \"close\", got %q", s.OverflowPolicy)
	}
	if s.QueueLimit < 0 {
		return fmt.Errorf("server.queue_limit must be >= 0")
	}
	if s.AcceptRPS < 0 {
		return fmt.Errorf("server.accept_rps must be >= 0")
	}
	return nil
}

// Options converts the configuration into server options.
func (s *ServerConfig) Options() []Option {
	var opts []Option
	if s.QueueLimit > 0 {
		policy := OverflowDrop
		if s.OverflowPolicy == "close" {
			policy = OverflowClose
		}
		opts = append(opts, WithQueueLimit(s.QueueLimit, policy))
	}
	if s.AcceptRPS > 0 {
		opts = append(opts, WithAcceptRate(s.AcceptRPS, s.AcceptBurst))
	}
	return opts
}
