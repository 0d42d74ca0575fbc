package forwarding

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config describes the forwarding sources for a session, loaded from a TOML
// file of [[source]] blocks:
//
//	[[source]]
//	type = "file"
//	path = "/var/log/trace.out"
//	events = [1, 2]
//
//	[[source]]
//	type = "tcp"
//	address = "127.0.0.1:7070"
//	events = [2]
type Config struct {
	Sources []SourceConfig `toml:"source"`
}

// SourceConfig is one [[source]] block.
type SourceConfig struct {
	Type    string   `toml:"type"`    // "file", "namedpipe", "tcp", "store"
	Path    string   `toml:"path"`    // file, namedpipe, store
	Address string   `toml:"address"` // tcp
	Events  []uint64 `toml:"events"`  // event tags routed to this source
}

// LoadConfig reads and decodes a forwarding configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading forwarding config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing forwarding config: %w", err)
	}
	return &cfg, nil
}

// Apply registers, opens, and binds every configured source.
// Module sources cannot be configured from a file; they require a callback.
func (m *Manager) Apply(cfg *Config) error {
	for i, sc := range cfg.Sources {
		var (
			s   *Source
			err error
		)
		switch sc.Type {
		case "file":
			s, err = m.RegisterFile(sc.Path)
		case "namedpipe":
			s, err = m.RegisterNamedPipe(sc.Path)
		case "tcp":
			s, err = m.RegisterTCP(sc.Address)
		case "store":
			s, err = m.RegisterStore(sc.Path)
		default:
			err = fmt.Errorf("unknown source type %q", sc.Type)
		}
		if err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}

		if err := m.Open(s.Tag()); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
		for _, eventTag := range sc.Events {
			if err := m.Bind(eventTag, s.Tag()); err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
		}
	}
	return nil
}
