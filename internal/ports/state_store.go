package ports

import "github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"

// StateStore persists the set of every host ever seen for one target.
type StateStore interface {
	// Load returns an empty set when nothing was saved yet. A corrupt record
	// yields an empty set together with a KindStateCorrupt error.
	Load() (domain.HostSet, error)
	// Save replaces the stored set. On error the previous record is intact.
	Save(hosts domain.HostSet) error
}
