package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
)

// Apply copies every set field of y onto cfg.
func Apply(path string, cfg domain.Config, y YAMLSettings) (domain.Config, error) {
	for i, d := range y.Domains {
		norm, err := NormalizeDomain(d)
		if err != nil {
			return cfg, invalidField(path, fmt.Sprintf("domains[%d]", i), err.Error())
		}
		cfg.Domains = append(cfg.Domains, norm)
	}

	if y.Interval != "" {
		d, err := parseDuration(y.Interval)
		if err != nil {
			return cfg, invalidField(path, "interval", err.Error())
		}
		cfg.Interval = d
	}
	if y.Debug != nil {
		cfg.Debug = *y.Debug
	}

	if y.Paths.StateDir != "" {
		cfg.Paths.StateDir = y.Paths.StateDir
	}
	if y.Paths.ScratchDir != "" {
		cfg.Paths.ScratchDir = y.Paths.ScratchDir
	}
	if y.Paths.LogDir != "" {
		cfg.Paths.LogDir = y.Paths.LogDir
	}
	if y.State.Backend != "" {
		cfg.State.Backend = strings.ToLower(strings.TrimSpace(y.State.Backend))
	}

	var err error
	if cfg.Discovery, err = applyTool(path, "discovery", cfg.Discovery, y.Discovery); err != nil {
		return cfg, err
	}

	lv := y.Liveness
	if lv.Mode != "" {
		cfg.Liveness.Mode = strings.ToLower(strings.TrimSpace(lv.Mode))
	}
	if cfg.Liveness.Tool, err = applyTool(path, "liveness", cfg.Liveness.Tool, lv.YAMLTool); err != nil {
		return cfg, err
	}
	if lv.JSON != nil {
		cfg.Liveness.JSONOutput = *lv.JSON
	}
	if lv.HostPath != "" {
		cfg.Liveness.HostPath = lv.HostPath
	}
	if len(lv.Resolvers) > 0 {
		cfg.Liveness.Resolvers = append([]string(nil), lv.Resolvers...)
	}
	if lv.Workers != nil {
		if *lv.Workers <= 0 {
			return cfg, invalidField(path, "liveness.workers", "must be > 0")
		}
		cfg.Liveness.Workers = *lv.Workers
	}
	if lv.QPS != nil {
		cfg.Liveness.QPS = *lv.QPS
	}

	n := y.Notify
	if n.Kind != "" {
		cfg.Notify.Kind = strings.ToLower(strings.TrimSpace(n.Kind))
	}
	if n.Webhook != "" {
		cfg.Notify.WebhookURL = strings.TrimSpace(n.Webhook)
	}
	if n.Username != "" {
		cfg.Notify.Username = n.Username
	}
	if n.RatePerMinute != nil {
		cfg.Notify.RatePerMinute = *n.RatePerMinute
	}
	if n.Timeout != "" {
		d, err := parseDuration(n.Timeout)
		if err != nil {
			return cfg, invalidField(path, "notify.timeout", err.Error())
		}
		cfg.Notify.Timeout = d
	}

	return cfg, nil
}

func applyTool(path, prefix string, tc domain.ToolConfig, y YAMLTool) (domain.ToolConfig, error) {
	if y.Binary != "" {
		tc.Binary = y.Binary
	}
	if len(y.Args) > 0 {
		tc.ExtraArgs = append([]string(nil), y.Args...)
	}
	if y.Timeout != "" {
		d, err := parseDuration(y.Timeout)
		if err != nil {
			return tc, invalidField(path, prefix+".timeout", err.Error())
		}
		tc.Timeout = d
	}
	return tc, nil
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("must be > 0, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be > 0, got %s", s)
	}
	return d, nil
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "config.map",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, domain.ErrInvalidConfig),
	}
}
