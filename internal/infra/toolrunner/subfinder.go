package toolrunner

import (
	"context"
	"path/filepath"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// Subfinder runs `subfinder -d <target> -o <out> -silent`.
type Subfinder struct {
	cfg domain.ToolConfig
}

func NewSubfinder(cfg domain.ToolConfig) *Subfinder {
	if cfg.Binary == "" {
		cfg.Binary = "subfinder"
	}
	return &Subfinder{cfg: cfg}
}

var _ ports.Discoverer = (*Subfinder)(nil)

func (s *Subfinder) Name() string { return filepath.Base(s.cfg.Binary) }

func (s *Subfinder) Discover(ctx context.Context, target string, outPath string) error {
	args := []string{"-d", target, "-o", outPath, "-silent"}
	args = append(args, s.cfg.ExtraArgs...)

	if err := run(ctx, s.cfg.Timeout, s.cfg.Binary, args); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &domain.OpError{
			Op:   "toolrunner.subfinder",
			Kind: domain.KindDiscovery,
			Path: outPath,
			Err:  err,
		}
	}
	return nil
}
