// Package scratch owns the per-iteration working directories. Every
// iteration gets a fresh, collision-free directory namespaced by target, so
// nothing ever has to probe whether a path is "busy".
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// File names used inside an iteration directory.
const (
	DiscoveryFile = "discovery.txt"
	LiveFile      = "live.txt"
	NewHostsFile  = "new_subdomains.txt"
)

type Space struct {
	root string
	now  func() time.Time
}

type Option func(*Space)

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Space) { s.now = now }
}

// New returns a scratch space rooted at <base>/<target>.
func New(base, target string, opts ...Option) *Space {
	s := &Space{
		root: filepath.Join(base, domain.TargetKey(target)),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ScratchSpace = (*Space)(nil)

func (s *Space) Root() string { return s.root }

// Dir creates the directory for iteration seq. The name carries both the
// sequence and a timestamp, so restarts never reuse an old directory.
func (s *Space) Dir(seq uint64) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", &domain.OpError{Op: "scratch.mkdir", Kind: domain.KindExecution, Path: s.root, Err: err}
	}
	prefix := fmt.Sprintf("iter-%06d-%d-", seq, s.now().UnixNano())
	dir, err := os.MkdirTemp(s.root, prefix)
	if err != nil {
		return "", &domain.OpError{Op: "scratch.mkdir", Kind: domain.KindExecution, Path: s.root, Err: err}
	}
	return dir, nil
}

// Remove deletes an iteration directory and everything in it.
func (s *Space) Remove(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return &domain.OpError{Op: "scratch.remove", Kind: domain.KindExecution, Path: dir, Err: err}
	}
	return nil
}
