// Package sidestore implements the embedded relational store that travels
// with every artio file.
//
// The store is an SQLite database holding the persisted range sets of run and
// subrun products, the parameter-set blobs of the job configuration and the
// file-catalog metadata. A writer builds it in a temporary file and embeds the
// finished image in the container; a reader extracts the image to a temporary
// file and queries it there.
//
// Tables:
//
//	EventRanges(SubRun, begin, end)                 unique rows
//	SubRunRangeSets(Run), RunRangeSets(Run)         rowid is the range-set ID
//	SubRunRangeSets_EventRanges(RangeSetsID, EventRangesID)
//	RunRangeSets_EventRanges(RangeSetsID, EventRangesID)
//	ParameterSets(ID, PSetBlob)
//	FileCatalog_metadata(Name, Value)
package sidestore

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // register the sqlite driver

	"github.com/arloliu/artio/errs"
)

const driverName = "sqlite"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS EventRanges(
		SubRun INTEGER,
		begin INTEGER,
		end INTEGER,
		UNIQUE (SubRun, begin, end) ON CONFLICT IGNORE)`,
	`CREATE TABLE IF NOT EXISTS SubRunRangeSets(Run INTEGER)`,
	`CREATE TABLE IF NOT EXISTS SubRunRangeSets_EventRanges(
		RangeSetsID INTEGER,
		EventRangesID INTEGER,
		PRIMARY KEY(RangeSetsID, EventRangesID)) WITHOUT ROWID`,
	`CREATE TABLE IF NOT EXISTS RunRangeSets(Run INTEGER)`,
	`CREATE TABLE IF NOT EXISTS RunRangeSets_EventRanges(
		RangeSetsID INTEGER,
		EventRangesID INTEGER,
		PRIMARY KEY(RangeSetsID, EventRangesID)) WITHOUT ROWID`,
}

// Store is an open side-store database.
type Store struct {
	db     *sql.DB
	path   string
	closed bool
}

// Create creates a fresh, writable store in a temporary file under dir.
// An empty dir selects the default temporary directory.
func Create(dir string) (*Store, error) {
	f, err := os.CreateTemp(dir, "artio-db-*.sqlite")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	s, err := open(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	if err := s.withTx(func(tx *sql.Tx) error {
		for _, ddl := range schema {
			if _, err := tx.Exec(ddl); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create side-store schema: %w", err)
	}

	return s, nil
}

// OpenImage extracts a store image read from a container into a temporary
// file under dir and opens it. Changes made through the returned store never
// reach the container.
func OpenImage(image []byte, dir string) (*Store, error) {
	f, err := os.CreateTemp(dir, "artio-db-*.sqlite")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	_, werr := f.Write(image)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return nil, errs.ErrorOrNil(errs.Append(werr, cerr))
	}

	s, err := open(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return s, nil
}

func open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps transactions and temp files on one handle
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle for ad-hoc queries by tools.
func (s *Store) DB() *sql.DB {
	return s.db
}

// HasTable reports whether the named table exists.
func (s *Store) HasTable(name string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Size returns the size of the database in bytes, page size times page count.
func (s *Store) Size() (int64, error) {
	var pageSize, pageCount int64
	if err := s.db.QueryRow(`PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, err
	}
	if err := s.db.QueryRow(`PRAGMA page_count`).Scan(&pageCount); err != nil {
		return 0, err
	}

	return pageSize * pageCount, nil
}

// Image closes the database and returns the bytes of its file, ready to be
// embedded in a container. The store is unusable afterwards.
func (s *Store) Image() ([]byte, error) {
	if s.closed {
		return nil, errs.ErrWriterClosed
	}
	if err := s.db.Close(); err != nil {
		return nil, err
	}
	s.closed = true

	data, err := os.ReadFile(s.path)
	_ = os.Remove(s.path)

	return data, err
}

// Close closes the database and removes its temporary file.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.db.Close()
	if rerr := os.Remove(s.path); rerr != nil && !os.IsNotExist(rerr) {
		err = errs.ErrorOrNil(errs.Append(err, rerr))
	}

	return err
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
