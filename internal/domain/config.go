package domain

import (
	"fmt"
	"strings"
	"time"
)

// Liveness modes.
const (
	LivenessHTTPX = "httpx"
	LivenessDNS   = "dns"
	LivenessNone  = "none"
)

// State backends.
const (
	StateJSON   = "json"
	StateSQLite = "sqlite"
)

// Notifier kinds.
const (
	NotifyDiscord = "discord"
	NotifySlack   = "slack"
	NotifyLog     = "log"
)

// Config is the full runtime configuration, assembled from defaults, an
// optional YAML file and command-line flags.
type Config struct {
	Domains  []string
	Interval time.Duration
	Debug    bool

	Paths     PathsConfig
	State     StateConfig
	Discovery ToolConfig
	Liveness  LivenessConfig
	Notify    NotifyConfig
}

type PathsConfig struct {
	StateDir   string
	ScratchDir string
	LogDir     string
}

type StateConfig struct {
	Backend string
}

// ToolConfig describes an external subprocess-backed tool.
type ToolConfig struct {
	Binary    string
	ExtraArgs []string
	Timeout   time.Duration
}

type LivenessConfig struct {
	Mode string
	Tool ToolConfig

	// JSONOutput runs httpx with -json and picks each host with HostPath.
	JSONOutput bool
	HostPath   string

	// DNS prober settings.
	Resolvers []string
	Workers   int
	QPS       float64
}

type NotifyConfig struct {
	Kind          string
	WebhookURL    string
	Username      string
	RatePerMinute int
	Timeout       time.Duration
}

// DefaultConfig provides sane defaults if the config file is partially missing.
func DefaultConfig() Config {
	return Config{
		Interval: 7200 * time.Second,
		Paths: PathsConfig{
			StateDir:   "state",
			ScratchDir: "temp",
			LogDir:     ".",
		},
		State: StateConfig{Backend: StateJSON},
		Discovery: ToolConfig{
			Binary:  "subfinder",
			Timeout: 5 * time.Minute,
		},
		Liveness: LivenessConfig{
			Mode: LivenessHTTPX,
			Tool: ToolConfig{
				Binary:  "httpx",
				Timeout: 10 * time.Minute,
			},
			HostPath:  "$.input",
			Resolvers: []string{"1.1.1.1:53", "8.8.8.8:53"},
			Workers:   20,
			QPS:       50,
		},
		Notify: NotifyConfig{
			Kind:          NotifyDiscord,
			Username:      "subnotify",
			RatePerMinute: 25,
			Timeout:       30 * time.Second,
		},
	}
}

// Validate checks the settings a monitor cannot start without.
func (c Config) Validate() error {
	if len(c.Domains) == 0 {
		return invalidConfig("domain", "at least one target domain is required")
	}
	seen := map[string]bool{}
	for _, d := range c.Domains {
		key := strings.ToLower(strings.TrimSpace(d))
		if key == "" {
			return invalidConfig("domain", "empty target domain")
		}
		if seen[key] {
			return invalidConfig("domain", fmt.Sprintf("duplicate target %q", d))
		}
		seen[key] = true
	}
	if c.Interval <= 0 {
		return invalidConfig("interval", "must be > 0")
	}
	if c.Discovery.Timeout <= 0 {
		return invalidConfig("discovery.timeout", "must be > 0")
	}

	switch c.State.Backend {
	case StateJSON, StateSQLite:
	default:
		return invalidConfig("state.backend", fmt.Sprintf("unsupported backend %q (expected json|sqlite)", c.State.Backend))
	}

	switch c.Liveness.Mode {
	case LivenessHTTPX:
		if c.Liveness.Tool.Timeout <= 0 {
			return invalidConfig("liveness.timeout", "must be > 0")
		}
		if c.Liveness.JSONOutput && strings.TrimSpace(c.Liveness.HostPath) == "" {
			return invalidConfig("liveness.host_path", "required when json output is enabled")
		}
	case LivenessDNS:
		if len(c.Liveness.Resolvers) == 0 {
			return invalidConfig("liveness.resolvers", "at least one resolver is required")
		}
		if c.Liveness.Tool.Timeout <= 0 {
			return invalidConfig("liveness.timeout", "must be > 0")
		}
	case LivenessNone:
	default:
		return invalidConfig("liveness.mode", fmt.Sprintf("unsupported mode %q (expected httpx|dns|none)", c.Liveness.Mode))
	}

	switch c.Notify.Kind {
	case NotifyDiscord, NotifySlack:
		if strings.TrimSpace(c.Notify.WebhookURL) == "" {
			return invalidConfig("notify.webhook", c.Notify.Kind+" notifier needs a webhook URL")
		}
	case NotifyLog:
	default:
		return invalidConfig("notify.kind", fmt.Sprintf("unsupported notifier %q (expected discord|slack|log)", c.Notify.Kind))
	}
	return nil
}

func invalidConfig(field, msg string) error {
	return &OpError{
		Op:   "config.validate",
		Kind: KindInvalidConfig,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, ErrInvalidConfig),
	}
}
