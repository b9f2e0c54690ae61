package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/config"
)

// WebhookEnv is read when neither --webhook nor the config file set one.
const WebhookEnv = "SUBNOTIFY_WEBHOOK"

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	domains    []string
	webhook    string
	notifier   string
	interval   int
	debug      bool
	noBanner   bool

	stateDir   string
	scratchDir string
	logDir     string
	backend    string

	liveness    string
	resolvers   []string
	workers     int
	discoveryTO time.Duration
	livenessTO  time.Duration
	httpxJSON   bool
	hostPath    string
	ratePerMin  int
}

func (o *options) bind(cmd *cobra.Command) {
	def := domain.DefaultConfig()
	f := cmd.PersistentFlags()

	f.StringVar(&o.configPath, "config", "", "YAML config file (default: nearest "+config.DefaultFile+" upward from the working directory)")
	f.StringSliceVarP(&o.domains, "domain", "d", nil, "Target domain to monitor (repeatable)")
	f.StringVarP(&o.webhook, "webhook", "w", "", "Webhook URL (falls back to $"+WebhookEnv+")")
	f.StringVar(&o.notifier, "notifier", def.Notify.Kind, "Notifier: discord|slack|log")
	f.IntVarP(&o.interval, "interval", "i", int(def.Interval/time.Second), "Seconds between iterations")
	f.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	f.BoolVar(&o.noBanner, "no-banner", false, "Do not print the startup banner")

	f.StringVar(&o.stateDir, "state-dir", def.Paths.StateDir, "Directory holding per-domain state")
	f.StringVar(&o.scratchDir, "scratch-dir", def.Paths.ScratchDir, "Directory for per-iteration scratch files")
	f.StringVar(&o.logDir, "log-dir", def.Paths.LogDir, "Directory for subnotify.log")
	f.StringVar(&o.backend, "state-backend", def.State.Backend, "State backend: json|sqlite")

	f.StringVar(&o.liveness, "liveness", def.Liveness.Mode, "Liveness filter: httpx|dns|none")
	f.StringSliceVar(&o.resolvers, "resolver", def.Liveness.Resolvers, "DNS resolver for --liveness=dns (repeatable)")
	f.IntVar(&o.workers, "workers", def.Liveness.Workers, "Concurrent DNS lookups for --liveness=dns")
	f.DurationVar(&o.discoveryTO, "discovery-timeout", def.Discovery.Timeout, "Timeout for the discovery tool")
	f.DurationVar(&o.livenessTO, "liveness-timeout", def.Liveness.Tool.Timeout, "Timeout for the liveness step")
	f.BoolVar(&o.httpxJSON, "httpx-json", false, "Run httpx with -json and select hosts with --host-path")
	f.StringVar(&o.hostPath, "host-path", def.Liveness.HostPath, "JSONPath selecting the host in httpx JSON output")
	f.IntVar(&o.ratePerMin, "notify-rate", def.Notify.RatePerMinute, "Max notifications per minute (0 = unlimited)")
}

// resolve builds the effective configuration: defaults, then the YAML file,
// then explicitly set flags, then the webhook environment fallback.
func (o *options) resolve(cmd *cobra.Command) (domain.Config, error) {
	cfg, err := o.load()
	if err != nil {
		return cfg, err
	}
	if cfg, err = o.applyFlags(cmd, cfg); err != nil {
		return cfg, err
	}

	if cfg.Notify.WebhookURL == "" {
		cfg.Notify.WebhookURL = strings.TrimSpace(os.Getenv(WebhookEnv))
	}
	if cfg.Notify.WebhookURL == "" && !cmd.Flags().Changed("notifier") && cfg.Notify.Kind == domain.NotifyDiscord {
		// Nothing to post to: keep running and only log.
		cfg.Notify.Kind = domain.NotifyLog
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// load reads --config, or else the nearest subnotify.yaml found from the
// working directory upward. No file means defaults.
func (o *options) load() (domain.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.LoadOptional(config.DefaultFile)
	}
	path, err := config.Find(wd, config.DefaultFile)
	if err != nil {
		return domain.DefaultConfig(), nil
	}
	return config.Load(path)
}

func (o *options) applyFlags(cmd *cobra.Command, cfg domain.Config) (domain.Config, error) {
	changed := cmd.Flags().Changed

	if changed("domain") {
		cfg.Domains = nil
		for _, d := range o.domains {
			norm, err := config.NormalizeDomain(d)
			if err != nil {
				return cfg, flagError("domain", err.Error())
			}
			cfg.Domains = append(cfg.Domains, norm)
		}
	}
	if changed("webhook") {
		cfg.Notify.WebhookURL = strings.TrimSpace(o.webhook)
	}
	if changed("notifier") {
		cfg.Notify.Kind = strings.ToLower(o.notifier)
	}
	if changed("interval") {
		if o.interval <= 0 {
			return cfg, flagError("interval", "must be > 0")
		}
		cfg.Interval = time.Duration(o.interval) * time.Second
	}
	if changed("debug") {
		cfg.Debug = o.debug
	}
	if changed("state-dir") {
		cfg.Paths.StateDir = o.stateDir
	}
	if changed("scratch-dir") {
		cfg.Paths.ScratchDir = o.scratchDir
	}
	if changed("log-dir") {
		cfg.Paths.LogDir = o.logDir
	}
	if changed("state-backend") {
		cfg.State.Backend = strings.ToLower(o.backend)
	}
	if changed("liveness") {
		cfg.Liveness.Mode = strings.ToLower(o.liveness)
	}
	if changed("resolver") {
		cfg.Liveness.Resolvers = o.resolvers
	}
	if changed("workers") {
		cfg.Liveness.Workers = o.workers
	}
	if changed("discovery-timeout") {
		cfg.Discovery.Timeout = o.discoveryTO
	}
	if changed("liveness-timeout") {
		cfg.Liveness.Tool.Timeout = o.livenessTO
	}
	if changed("httpx-json") {
		cfg.Liveness.JSONOutput = o.httpxJSON
	}
	if changed("host-path") {
		cfg.Liveness.HostPath = o.hostPath
	}
	if changed("notify-rate") {
		cfg.Notify.RatePerMinute = o.ratePerMin
	}
	return cfg, nil
}

func flagError(name, msg string) error {
	return &domain.OpError{
		Op:   "cli.flags",
		Kind: domain.KindInvalidConfig,
		Err:  fmt.Errorf("flag --%s: %s: %w", name, msg, domain.ErrInvalidConfig),
	}
}
