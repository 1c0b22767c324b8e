package sidestore

import (
	"database/sql"

	"github.com/arloliu/artio/errs"
)

// MetadataEntry is one row of the file-catalog metadata table.
type MetadataEntry struct {
	Name  string
	Value string
}

// WriteParameterSets stores parameter-set blobs keyed by their ID.
// IDs already present are left unchanged.
func (s *Store) WriteParameterSets(blobs map[string]string) error {
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS ParameterSets(ID TEXT PRIMARY KEY, PSetBlob TEXT)`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO ParameterSets(ID, PSetBlob) VALUES(?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for id, blob := range blobs {
			if _, err := stmt.Exec(id, blob); err != nil {
				return err
			}
		}

		return nil
	})

	return errs.Wrap(errs.FileReadError, "sidestore: write parameter sets", err)
}

// ReadParameterSets returns every stored parameter-set blob keyed by ID.
// A store without the table yields an empty map.
func (s *Store) ReadParameterSets() (map[string]string, error) {
	out := make(map[string]string)
	ok, err := s.HasTable("ParameterSets")
	if err != nil || !ok {
		return out, errs.Wrap(errs.FileReadError, "sidestore: read parameter sets", err)
	}

	rows, err := s.db.Query(`SELECT ID, PSetBlob FROM ParameterSets`)
	if err != nil {
		return nil, errs.Wrap(errs.FileReadError, "sidestore: read parameter sets", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, blob string
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, errs.Wrap(errs.FileReadError, "sidestore: read parameter sets", err)
		}
		out[id] = blob
	}

	return out, errs.Wrap(errs.FileReadError, "sidestore: read parameter sets", rows.Err())
}

// WriteFileCatalogMetadata replaces the file-catalog metadata table.
func (s *Store) WriteFileCatalogMetadata(entries []MetadataEntry) error {
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DROP TABLE IF EXISTS FileCatalog_metadata`); err != nil {
			return err
		}
		if _, err := tx.Exec(`CREATE TABLE FileCatalog_metadata(Name TEXT, Value TEXT)`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT INTO FileCatalog_metadata(Name, Value) VALUES(?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.Exec(e.Name, e.Value); err != nil {
				return err
			}
		}

		return nil
	})

	return errs.Wrap(errs.FileReadError, "sidestore: write file catalog metadata", err)
}

// ReadFileCatalogMetadata returns the file-catalog metadata in insertion order.
// A store without the table yields no entries.
func (s *Store) ReadFileCatalogMetadata() ([]MetadataEntry, error) {
	ok, err := s.HasTable("FileCatalog_metadata")
	if err != nil || !ok {
		return nil, errs.Wrap(errs.FileReadError, "sidestore: read file catalog metadata", err)
	}

	rows, err := s.db.Query(`SELECT Name, Value FROM FileCatalog_metadata ORDER BY ROWID`)
	if err != nil {
		return nil, errs.Wrap(errs.FileReadError, "sidestore: read file catalog metadata", err)
	}
	defer rows.Close()

	var out []MetadataEntry
	for rows.Next() {
		var e MetadataEntry
		if err := rows.Scan(&e.Name, &e.Value); err != nil {
			return nil, errs.Wrap(errs.FileReadError, "sidestore: read file catalog metadata", err)
		}
		out = append(out, e)
	}

	return out, errs.Wrap(errs.FileReadError, "sidestore: read file catalog metadata", rows.Err())
}
