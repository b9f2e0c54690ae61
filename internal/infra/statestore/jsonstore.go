package statestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

const jsonFileName = "subdomains.json"

// JSONStore keeps the host list of one target as a JSON array of strings
// under <dir>/<target>/subdomains.json.
type JSONStore struct {
	path       string
	quarantine bool
	now        func() time.Time
}

type Option func(*JSONStore)

// WithQuarantine controls whether a corrupt file is renamed aside before the
// empty baseline is returned. Enabled by default.
func WithQuarantine(enabled bool) Option {
	return func(s *JSONStore) { s.quarantine = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

func NewJSONStore(dir, target string, opts ...Option) *JSONStore {
	s := &JSONStore{
		path:       filepath.Join(dir, domain.TargetKey(target), jsonFileName),
		quarantine: true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.StateStore = (*JSONStore)(nil)

func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Load() (domain.HostSet, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.HostSet{}, nil
		}
		return domain.HostSet{}, &domain.OpError{
			Op:   "statestore.load",
			Kind: domain.KindExecution,
			Path: s.path,
			Err:  err,
		}
	}

	// An empty file is a valid "nothing seen yet".
	if len(bytes.TrimSpace(b)) == 0 {
		return domain.HostSet{}, nil
	}

	hosts, decErr := decodeHosts(b)
	if decErr != nil {
		cerr := &domain.OpError{
			Op:   "statestore.load",
			Kind: domain.KindStateCorrupt,
			Path: s.path,
			Err:  decErr,
		}
		if s.quarantine {
			aside := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().UTC().Format("20060102T150405Z"))
			if rerr := os.Rename(s.path, aside); rerr == nil {
				cerr.Err = fmt.Errorf("%w (moved to %s)", decErr, aside)
			}
		}
		return domain.HostSet{}, cerr
	}

	return domain.NewHostSet(hosts...), nil
}

func (s *JSONStore) Save(hosts domain.HostSet) error {
	// Always an array, never null. Four-space indent and no trailing newline
	// keep files written by earlier releases byte-identical on rewrite.
	list := hosts.Sorted()

	b, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return &domain.OpError{
			Op:   "statestore.marshal",
			Kind: domain.KindPersist,
			Path: s.path,
			Err:  err,
		}
	}

	if err := writeFileAtomic(s.path, b, 0o644); err != nil {
		return &domain.OpError{
			Op:   "statestore.save",
			Kind: domain.KindPersist,
			Path: s.path,
			Err:  err,
		}
	}
	return nil
}

func decodeHosts(b []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var hosts []string
	if err := dec.Decode(&hosts); err != nil {
		return nil, err
	}
	// Ensure no trailing junk.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("invalid JSON: trailing content")
	}
	return hosts, nil
}

// writeFileAtomic replaces path with data, leaving the old file untouched on
// any failure: temp file in the same dir, fsync, rename, dir fsync.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// Some filesystems refuse fsync on directories; the rename already happened.
	_ = d.Sync()
	return nil
}
