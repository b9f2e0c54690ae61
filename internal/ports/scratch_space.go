package ports

// ScratchSpace hands out a fresh directory per iteration.
type ScratchSpace interface {
	Dir(seq uint64) (string, error)
	Remove(dir string) error
}
