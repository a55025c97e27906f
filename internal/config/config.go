// Package config is the configuration collaborator of spec.md section 6:
// it loads a TOML file into a finalized Config exposing a process-wide
// listen host/port and a host-header-keyed list of HostConfig records.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// HostConfig mirrors spec.md section 3's external HostConfig record.
type HostConfig struct {
	Host              string            `toml:"host"`
	HomeDir           string            `toml:"home_dir"`
	CGIDir            string            `toml:"cgi_dir"`
	ProxyHost         string            `toml:"proxy_host"`
	Aliases           map[string]string `toml:"aliases"`
	SendProxyProtocol bool              `toml:"send_proxy_protocol"`
}

// ServerConfig holds process-wide listener and admin settings.
type ServerConfig struct {
	ListenHost string `toml:"listen_host"`
	ListenPort int    `toml:"listen_port"`
	AdminAddr  string `toml:"admin_addr"`
	Backlog    int    `toml:"backlog"`
}

// Config is the raw, as-parsed TOML document.
type Config struct {
	Server ServerConfig `toml:"server"`
	Host   []HostConfig `toml:"host"`
}

// Finalized is the process-ready form: absolute home/cgi dirs and a
// host-header lookup map with an optional wildcard "*" default, per
// spec.md section 6 ("a host header not matching any record and no
// default -> 404").
type Finalized struct {
	ListenHost string
	ListenPort int
	AdminAddr  string
	Backlog    int

	hosts    map[string]*HostConfig
	wildCard *HostConfig
}

// Lookup resolves a Host header value to its HostConfig, or nil if none
// matches and no wildcard default is configured.
func (f *Finalized) Lookup(hostHeader string) *HostConfig {
	host := stripPort(hostHeader)
	if hc, ok := f.hosts[host]; ok {
		return hc
	}
	return f.wildCard
}

func stripPort(hostHeader string) string {
	for i := 0; i < len(hostHeader); i++ {
		if hostHeader[i] == ':' {
			return hostHeader[:i]
		}
	}
	return hostHeader
}

// Load reads and parses a TOML config file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}

// Finalize resolves relative home/cgi directories against baseDir and
// builds the host lookup table, matching lk_config_finalize in the
// original implementation.
func (c *Config) Finalize(baseDir string) (*Finalized, error) {
	fin := &Finalized{
		ListenHost: c.Server.ListenHost,
		ListenPort: c.Server.ListenPort,
		AdminAddr:  c.Server.AdminAddr,
		Backlog:    c.Server.Backlog,
		hosts:      make(map[string]*HostConfig),
	}
	if fin.Backlog <= 0 {
		fin.Backlog = 50
	}
	if fin.ListenHost == "" {
		fin.ListenHost = "0.0.0.0"
	}

	for i := range c.Host {
		hc := c.Host[i]
		if hc.HomeDir != "" && !filepath.IsAbs(hc.HomeDir) {
			hc.HomeDir = filepath.Join(baseDir, hc.HomeDir)
		}
		if hc.CGIDir != "" && !filepath.IsAbs(hc.CGIDir) {
			hc.CGIDir = filepath.Join(baseDir, hc.CGIDir)
		}
		if hc.Host == "*" || hc.Host == "" {
			hcCopy := hc
			fin.wildCard = &hcCopy
			continue
		}
		hcCopy := hc
		fin.hosts[hc.Host] = &hcCopy
	}
	return fin, nil
}
