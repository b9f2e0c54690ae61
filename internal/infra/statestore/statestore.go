// Package statestore persists the accumulated host set of each target.
package statestore

import (
	"fmt"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
)

// Store is a StateStore that can also report where it lives.
type Store interface {
	Load() (domain.HostSet, error)
	Save(hosts domain.HostSet) error
	Path() string
}

// New picks the backend named in cfg for target. opts only apply to the
// JSON backend.
func New(cfg domain.Config, target string, opts ...Option) (Store, error) {
	switch cfg.State.Backend {
	case domain.StateJSON, "":
		return NewJSONStore(cfg.Paths.StateDir, target, opts...), nil
	case domain.StateSQLite:
		return NewSQLiteStore(cfg.Paths.StateDir, target), nil
	default:
		return nil, &domain.OpError{
			Op:   "statestore.new",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("unsupported backend %q: %w", cfg.State.Backend, domain.ErrInvalidConfig),
		}
	}
}
