package sidestore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/rangeset"
)

func rangeSetTables(bt format.BranchType) (string, string, error) {
	if !bt.SupportsRangeSets() {
		return "", "", errs.New(errs.LogicError, "sidestore", "%s records carry no range sets", bt)
	}
	name := bt.String() + "RangeSets"

	return name, name + "_EventRanges", nil
}

// InsertRangeSet persists rs for records of branch type bt and returns its
// range-set ID. Callers deduplicate identical sets by checksum before calling.
//
// Parameters:
//   - bt: format.InSubRun or format.InRun
//   - rs: A valid range set
//
// Returns:
//   - uint32: The new range-set ID
//   - error: LogicError for an invalid set or branch type, or a database error
func (s *Store) InsertRangeSet(bt format.BranchType, rs rangeset.RangeSet) (uint32, error) {
	setTable, joinTable, err := rangeSetTables(bt)
	if err != nil {
		return 0, err
	}
	if !rs.IsValid() {
		return 0, errs.New(errs.LogicError, "sidestore", "invalid range sets are never persisted")
	}

	var rsID int64
	err = s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO `+setTable+`(Run) VALUES(?)`, rs.Run())
		if err != nil {
			return err
		}
		if rsID, err = res.LastInsertId(); err != nil {
			return err
		}

		insertRange, err := tx.Prepare(`INSERT INTO EventRanges(SubRun, begin, end) VALUES(?, ?, ?)`)
		if err != nil {
			return err
		}
		defer insertRange.Close()
		lookupRange, err := tx.Prepare(`SELECT ROWID FROM EventRanges WHERE SubRun=? AND begin=? AND end=?`)
		if err != nil {
			return err
		}
		defer lookupRange.Close()
		insertJoin, err := tx.Prepare(`INSERT OR IGNORE INTO ` + joinTable + `(RangeSetsID, EventRangesID) VALUES(?, ?)`)
		if err != nil {
			return err
		}
		defer insertJoin.Close()

		for _, r := range rs.Ranges() {
			if _, err := insertRange.Exec(r.SubRun, r.Begin, r.End); err != nil {
				return err
			}
			var rangeID int64
			if err := lookupRange.QueryRow(r.SubRun, r.Begin, r.End).Scan(&rangeID); err != nil {
				return err
			}
			if _, err := insertJoin.Exec(rsID, rangeID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, errs.Wrap(errs.FileReadError, "sidestore: insert range set", err)
	}

	return uint32(rsID), nil //nolint:gosec
}

// ResolveRangeSet reconstitutes the range set stored under id.
//
// rangeset.InvalidID resolves to the invalid range set. The ranges are
// sorted, and collapsed when compact is set.
//
// Returns:
//   - rangeset.RangeSet: The stored set
//   - error: FileReadError if the ID is unknown or the query fails
func (s *Store) ResolveRangeSet(bt format.BranchType, id uint32, compact bool) (rangeset.RangeSet, error) {
	if id == rangeset.InvalidID {
		return rangeset.Invalid(), nil
	}
	setTable, joinTable, err := rangeSetTables(bt)
	if err != nil {
		return rangeset.Invalid(), err
	}

	var run ids.Number
	err = s.db.QueryRow(`SELECT Run FROM `+setTable+` WHERE ROWID=?`, id).Scan(&run)
	if errors.Is(err, sql.ErrNoRows) {
		return rangeset.Invalid(), errs.New(errs.FileReadError, "sidestore",
			"no %s range set with ID %d in %s", bt, id, s.path)
	}
	if err != nil {
		return rangeset.Invalid(), errs.Wrap(errs.FileReadError, "sidestore: resolve range set", err)
	}

	rows, err := s.db.Query(`SELECT SubRun, begin, end FROM EventRanges WHERE ROWID IN (
		SELECT EventRangesID FROM `+joinTable+` WHERE RangeSetsID=?)`, id)
	if err != nil {
		return rangeset.Invalid(), errs.Wrap(errs.FileReadError, "sidestore: resolve range set", err)
	}
	defer rows.Close()

	var ranges []rangeset.EventRange
	for rows.Next() {
		var r rangeset.EventRange
		if err := rows.Scan(&r.SubRun, &r.Begin, &r.End); err != nil {
			return rangeset.Invalid(), errs.Wrap(errs.FileReadError, "sidestore: resolve range set", err)
		}
		ranges = append(ranges, r)
	}
	if err := rows.Err(); err != nil {
		return rangeset.Invalid(), errs.Wrap(errs.FileReadError, "sidestore: resolve range set", err)
	}

	rs := rangeset.FromRanges(run, ranges...)
	if compact {
		rs.Collapse()
	}

	return rs, nil
}

// RangeSetCount returns the number of range sets stored for bt.
func (s *Store) RangeSetCount(bt format.BranchType) (int, error) {
	setTable, _, err := rangeSetTables(bt)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM ` + setTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", setTable, err)
	}

	return n, nil
}
