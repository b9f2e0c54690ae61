package ports

import "context"

// LivenessProber reads candidate hosts from inPath and writes the reachable
// ones, one per line, to outPath.
type LivenessProber interface {
	Name() string
	Probe(ctx context.Context, inPath string, outPath string) error
}
