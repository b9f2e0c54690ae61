package statestore

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

const sqliteFileName = "subdomains.db"

const schema = `CREATE TABLE IF NOT EXISTS hosts (
	host TEXT PRIMARY KEY NOT NULL
)`

// SQLiteStore keeps the host list of one target in a SQLite database under
// <dir>/<target>/subdomains.db. Save replaces the table inside a single
// transaction, so a failed save leaves the previous rows in place.
// A damaged database is renamed aside, the same way JSONStore does it.
type SQLiteStore struct {
	path string
	now  func() time.Time
}

func NewSQLiteStore(dir, target string) *SQLiteStore {
	return &SQLiteStore{
		path: filepath.Join(dir, domain.TargetKey(target), sqliteFileName),
		now:  time.Now,
	}
}

var _ ports.StateStore = (*SQLiteStore)(nil)

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Load() (domain.HostSet, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.HostSet{}, nil
		}
		return domain.HostSet{}, &domain.OpError{Op: "statestore.sqlite.load", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	if info.Size() == 0 {
		return domain.HostSet{}, nil
	}

	set, err := s.readAll()
	if err == nil {
		return set, nil
	}
	if isNoTable(err) {
		return domain.HostSet{}, nil
	}
	if !isCorrupt(err) {
		return domain.HostSet{}, &domain.OpError{Op: "statestore.sqlite.load", Kind: domain.KindExecution, Path: s.path, Err: err}
	}

	cerr := &domain.OpError{Op: "statestore.sqlite.load", Kind: domain.KindStateCorrupt, Path: s.path, Err: err}
	if aside, rerr := s.moveAside(); rerr == nil {
		cerr.Err = fmt.Errorf("%w (moved to %s)", err, aside)
	}
	return domain.HostSet{}, cerr
}

// readAll closes the database before returning so the file can be renamed.
func (s *SQLiteStore) readAll() (domain.HostSet, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT host FROM hosts ORDER BY host`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := domain.HostSet{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		set.Add(h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *SQLiteStore) Save(hosts domain.HostSet) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &domain.OpError{Op: "statestore.sqlite.mkdir", Kind: domain.KindPersist, Path: s.path, Err: err}
	}

	db, err := s.openSchema()
	if err != nil {
		return &domain.OpError{Op: "statestore.sqlite.schema", Kind: domain.KindPersist, Path: s.path, Err: err}
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return &domain.OpError{Op: "statestore.sqlite.begin", Kind: domain.KindPersist, Path: s.path, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(`DELETE FROM hosts`); err != nil {
		return &domain.OpError{Op: "statestore.sqlite.clear", Kind: domain.KindPersist, Path: s.path, Err: err}
	}

	stmt, err := tx.Prepare(`INSERT INTO hosts (host) VALUES (?)`)
	if err != nil {
		return &domain.OpError{Op: "statestore.sqlite.prepare", Kind: domain.KindPersist, Path: s.path, Err: err}
	}
	defer stmt.Close()

	for _, h := range hosts.Sorted() {
		if _, err := stmt.Exec(h); err != nil {
			return &domain.OpError{Op: "statestore.sqlite.insert", Kind: domain.KindPersist, Path: s.path, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.OpError{Op: "statestore.sqlite.commit", Kind: domain.KindPersist, Path: s.path, Err: err}
	}
	committed = true
	return nil
}

// openSchema opens the database and creates the table. A file that is not a
// database (Load could not move it) is moved aside and recreated once.
func (s *SQLiteStore) openSchema() (*sql.DB, error) {
	for attempt := 0; ; attempt++ {
		db, err := s.open()
		if err != nil {
			return nil, err
		}
		_, err = db.Exec(schema)
		if err == nil {
			return db, nil
		}
		_ = db.Close()
		if attempt > 0 || !isCorrupt(err) {
			return nil, err
		}
		if _, rerr := s.moveAside(); rerr != nil {
			return nil, fmt.Errorf("%w (move aside: %v)", err, rerr)
		}
	}
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", s.path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *SQLiteStore) moveAside() (string, error) {
	aside := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().UTC().Format("20060102T150405Z"))
	if err := os.Rename(s.path, aside); err != nil {
		return "", err
	}
	// Leftover journal files belong to the damaged database.
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		_ = os.Remove(s.path + suffix)
	}
	return aside, nil
}

// isCorrupt reports a damaged database file rather than an I/O or lock error.
func isCorrupt(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrNotADB || serr.Code == sqlite3.ErrCorrupt
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed")
}

// isNoTable matches a valid database that has never been saved to.
func isNoTable(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}
