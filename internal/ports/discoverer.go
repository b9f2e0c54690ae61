package ports

import "context"

// Discoverer enumerates candidate subdomains of target and writes them,
// one per line, to outPath. A non-nil error means the step failed.
type Discoverer interface {
	Name() string
	Discover(ctx context.Context, target string, outPath string) error
}
