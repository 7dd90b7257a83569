// Package config defines configuration parsing and helpers: the backend
// topology file shared by every service, and the environment overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/buzzblog/buzzblog/internal/pool"
)

// Env holds environment-variable overrides shared by all services.
type Env struct {
	// LogDir is where the monitoring log files are written.
	LogDir string `env:"BUZZBLOG_LOG_DIR" envDefault:"/tmp"`
	// DebugAddr, when set, serves /metrics and /healthz on the given
	// host:port.
	DebugAddr string `env:"BUZZBLOG_DEBUG_ADDR"`
}

// LoadEnv parses environment variables into an Env.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("op=config.LoadEnv: %w", err)
	}
	return e, nil
}

// Service is one entry of the backend topology: the RPC replicas of a
// service, plus its database and Redis endpoints when it has them.
type Service struct {
	Service  []string `yaml:"service"`
	Database string   `yaml:"database"`
	Redis    string   `yaml:"redis"`
}

// Backend maps service name to topology entry. The substrate builds pools
// for every endpoint it finds here, regardless of whether the local service
// uses all of them; unknown keys in the file are ignored.
type Backend map[string]Service

// LoadBackend reads and parses the backend topology file.
func LoadBackend(path string) (Backend, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=config.LoadBackend path=%s: %w", path, err)
	}
	var b Backend
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("op=config.LoadBackend path=%s: %w", path, err)
	}
	return b, nil
}

// ParseEndpoint splits a "host:port" address into a pool endpoint.
func ParseEndpoint(addr string) (pool.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return pool.Endpoint{}, fmt.Errorf("op=config.ParseEndpoint addr=%s: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return pool.Endpoint{}, fmt.Errorf("op=config.ParseEndpoint addr=%s: %w", addr, err)
	}
	return pool.Endpoint{Host: host, Port: port}, nil
}

// ServiceEndpoints resolves the RPC replica addresses of the named service.
func (b Backend) ServiceEndpoints(name string) ([]pool.Endpoint, error) {
	entry, ok := b[name]
	if !ok {
		return nil, fmt.Errorf("op=config.ServiceEndpoints service=%s: not in backend file", name)
	}
	eps := make([]pool.Endpoint, 0, len(entry.Service))
	for _, addr := range entry.Service {
		ep, err := ParseEndpoint(addr)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

// DatabaseEndpoint resolves the database address of the named service, or
// ok=false when the entry has none.
func (b Backend) DatabaseEndpoint(name string) (pool.Endpoint, bool, error) {
	entry, found := b[name]
	if !found || entry.Database == "" {
		return pool.Endpoint{}, false, nil
	}
	ep, err := ParseEndpoint(entry.Database)
	if err != nil {
		return pool.Endpoint{}, false, err
	}
	return ep, true, nil
}

// RedisEndpoint resolves the Redis address of the named service, or ok=false
// when the entry has none.
func (b Backend) RedisEndpoint(name string) (pool.Endpoint, bool, error) {
	entry, found := b[name]
	if !found || entry.Redis == "" {
		return pool.Endpoint{}, false, nil
	}
	ep, err := ParseEndpoint(entry.Redis)
	if err != nil {
		return pool.Endpoint{}, false, err
	}
	return ep, true, nil
}
