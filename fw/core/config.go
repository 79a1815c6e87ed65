package core

import (
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Config is the forwarder's top-level configuration, loaded from a YAML
// file and then overridden by a handful of environment variables - the
// same two-layer scheme ccnd itself used (a config file plus
// CCND_* environment overrides).
type Config struct {
	Core      CoreConfig      `yaml:"core"`
	Faces     FacesConfig     `yaml:"faces"`
	Forwarder ForwarderConfig `yaml:"forwarder"`
	Mgmt      MgmtConfig      `yaml:"mgmt"`
}

type CoreConfig struct {
	BaseDir string `yaml:"-"` // set from the config file's directory, not serialized

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	CpuProfile   string `yaml:"-"`
	MemProfile   string `yaml:"-"`
	BlockProfile string `yaml:"-"`
}

type FacesConfig struct {
	// UnixSocketPath is where the local-stream listener binds, mirroring
	// ccnd's default /tmp/.ccnd.sock local listener. CCN_LOCAL_PORT, when
	// set, is appended as a ".$PORT" suffix.
	UnixSocketPath string `yaml:"unix_socket_path"`
	// UDPHost is the local address the UDP face binds to; UDPPort defaults
	// to 4485, ccnd's own default CCN_LOCAL_PORT.
	UDPHost string `yaml:"udp_host"`
	UDPPort int    `yaml:"udp_port"`
}

type ForwarderConfig struct {
	// ContentStoreByAccessionCapacity is the largest size the sliding-window
	// by-accession index grows to (×1.5 at a time); once there, the window
	// slides forward and evicts its oldest half instead of growing.
	ContentStoreByAccessionCapacity int `yaml:"cs_by_accession_capacity"`
	// SkiplistMaxDepth is decoded from the config file but not read: the
	// by-name skiplist caps tower height at a fixed 30 levels.
	SkiplistMaxDepth int `yaml:"cs_skiplist_max_depth"`
	// StaleTimeoutMicros is decoded from the config file but not read: the
	// reaper removes a PropagatingEntry once it reports Reapable, with no
	// timeout of its own.
	StaleTimeoutMicros int64 `yaml:"propagating_stale_timeout_us"`
	// InterestHalfLifeMicros paces aging (four times per interest
	// half-life) and reaping (every 2 half-lives).
	InterestHalfLifeMicros int64 `yaml:"interest_half_life_us"`
}

type MgmtConfig struct {
	// StatusAddr is the bind address for the Prometheus/status HTTP
	// endpoint. Defaults to loopback-only, matching ccnd's own refusal to
	// expose management off-box by default.
	StatusAddr string `yaml:"status_addr"`
}

// DefaultConfig returns a Config populated with the same defaults ccnd
// itself shipped: a local unix-domain socket, a UDP face on port 4485, modest content
// store sizing, and a loopback-only status endpoint.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			LogLevel: "INFO",
		},
		Faces: FacesConfig{
			UnixSocketPath: "/tmp/.ccnfwd.sock",
			UDPHost:        "127.0.0.1",
			UDPPort:        4485,
		},
		Forwarder: ForwarderConfig{
			ContentStoreByAccessionCapacity: 1024,
			SkiplistMaxDepth:                30,
			StaleTimeoutMicros:              4_000_000,
			InterestHalfLifeMicros:          4_000_000,
		},
		Mgmt: MgmtConfig{
			StatusAddr: "127.0.0.1:9695",
		},
	}
}

// ReadYaml decodes a YAML config file into cfg, then applies environment
// overrides. Fatal on any read/parse error - a forwarder with an
// unreadable config has nothing sane to fall back to.
func ReadYaml(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		Log.Fatal(configTag{}, "Unable to read config file", "path", path, "err", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		Log.Fatal(configTag{}, "Unable to parse config file", "path", path, "err", err)
	}
	applyEnvOverrides(cfg)
}

// applyEnvOverrides lets a small set of environment variables win over the
// file, the same escape hatch ccnd's CCND_* variables provided for
// container/systemd deployments where editing a config file is awkward.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("CCN_LOCAL_SOCKET"); ok {
		cfg.Faces.UnixSocketPath = v
	}
	if v, ok := os.LookupEnv("CCN_LOCAL_PORT"); ok {
		cfg.Faces.UnixSocketPath += "." + v
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Faces.UDPPort = n
		}
	}
	if v, ok := os.LookupEnv("CCND_DEBUG"); ok && v != "" {
		cfg.Core.LogLevel = "TRACE"
	}
	if v, ok := os.LookupEnv("CCND_CAP_INTEREST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Forwarder.ContentStoreByAccessionCapacity = n
		}
	}
}

type configTag struct{}

func (configTag) String() string { return "core-config" }
