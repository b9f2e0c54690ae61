package config

// YAMLConfig is the on-disk shape of subnotify.yaml. Every field is optional;
// unset fields keep their defaults.
type YAMLConfig struct {
	Subnotify YAMLSettings `yaml:"subnotify"`
}

type YAMLSettings struct {
	Domains []string `yaml:"domains"`
	// Interval is a Go duration ("2h") or a plain number of seconds.
	Interval string `yaml:"interval"`
	Debug    *bool  `yaml:"debug"`

	Paths struct {
		StateDir   string `yaml:"state_dir"`
		ScratchDir string `yaml:"scratch_dir"`
		LogDir     string `yaml:"log_dir"`
	} `yaml:"paths"`

	State struct {
		Backend string `yaml:"backend"`
	} `yaml:"state"`

	Discovery YAMLTool     `yaml:"discovery"`
	Liveness  YAMLLiveness `yaml:"liveness"`
	Notify    YAMLNotify   `yaml:"notify"`
}

type YAMLTool struct {
	Binary  string   `yaml:"binary"`
	Args    []string `yaml:"args"`
	Timeout string   `yaml:"timeout"`
}

type YAMLLiveness struct {
	Mode string `yaml:"mode"`
	YAMLTool `yaml:",inline"`

	JSON     *bool  `yaml:"json"`
	HostPath string `yaml:"host_path"`

	Resolvers []string `yaml:"resolvers"`
	Workers   *int     `yaml:"workers"`
	QPS       *float64 `yaml:"qps"`
}

type YAMLNotify struct {
	Kind          string `yaml:"kind"`
	Webhook       string `yaml:"webhook"`
	Username      string `yaml:"username"`
	RatePerMinute *int   `yaml:"rate_per_minute"`
	Timeout       string `yaml:"timeout"`
}
