// Package hostlist reads and writes line-delimited host lists, the exchange
// format of every external discovery and liveness tool.
package hostlist

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
)

const maxLineBytes = 1024 * 1024

// Read parses r into a HostSet. Blank lines are skipped.
func Read(r io.Reader) (domain.HostSet, error) {
	set := domain.HostSet{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		set.Add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return set, err
	}
	return set, nil
}

// ReadFile reads a host list from path. A missing file is an empty set and
// only logged; other read errors are returned.
func ReadFile(path string, log *slog.Logger) (domain.HostSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if log != nil {
				log.Warn("hostlist.missing", "path", path)
			}
			return domain.HostSet{}, nil
		}
		return domain.HostSet{}, &domain.OpError{
			Op:   "hostlist.read",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}
	defer f.Close()

	set, err := Read(f)
	if err != nil {
		return set, &domain.OpError{
			Op:   "hostlist.read",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}
	return set, nil
}

// WriteFile writes the hosts sorted, one per line.
func WriteFile(path string, hosts domain.HostSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.OpError{Op: "hostlist.mkdir", Kind: domain.KindExecution, Path: path, Err: err}
	}

	var b strings.Builder
	for _, h := range hosts.Sorted() {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return &domain.OpError{Op: "hostlist.write", Kind: domain.KindExecution, Path: path, Err: err}
	}
	return nil
}
