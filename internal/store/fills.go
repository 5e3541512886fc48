package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Fill outcome statuses.
const (
	StatusSubmitted = "submitted"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusUnchanged = "unchanged"
)

// Fill is one ledger row: what happened for one date in one run.
type Fill struct {
	ID        int
	Date      time.Time
	Category  string
	Begin     string
	End       string
	Excuse    int
	Status    string
	Detail    string
	CreatedAt time.Time
}

func (db *DB) RecordFill(f *Fill) (int64, error) {
	result, err := db.Exec(
		`INSERT INTO fills (date, category, begin_time, end_time, excuse, status, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Date.Format("2006-01-02"), f.Category, f.Begin, f.End, f.Excuse, f.Status, f.Detail,
	)
	if err != nil {
		return 0, fmt.Errorf("recording fill: %w", err)
	}
	return result.LastInsertId()
}

func (db *DB) RecentFills(limit int) ([]Fill, error) {
	return db.queryFills(
		`SELECT id, date, category, begin_time, end_time, excuse, status, detail, created_at
		 FROM fills
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
}

func (db *DB) FillsForRange(start, end time.Time) ([]Fill, error) {
	return db.queryFills(
		`SELECT id, date, category, begin_time, end_time, excuse, status, detail, created_at
		 FROM fills
		 WHERE date >= ? AND date <= ?
		 ORDER BY date ASC, id ASC`,
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
	)
}

func (db *DB) queryFills(query string, args ...interface{}) ([]Fill, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fills: %w", err)
	}
	defer rows.Close()

	var fills []Fill
	for rows.Next() {
		var f Fill
		var begin, end, detail sql.NullString
		var dateStr, createdStr string

		if err := rows.Scan(&f.ID, &dateStr, &f.Category, &begin, &end, &f.Excuse, &f.Status, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning fill: %w", err)
		}

		f.Begin = begin.String
		f.End = end.String
		f.Detail = detail.String

		if f.Date, err = time.Parse("2006-01-02", dateStr); err != nil {
			return nil, fmt.Errorf("parsing fill date %q: %w", dateStr, err)
		}
		if t, err := time.Parse("2006-01-02 15:04:05", createdStr); err == nil {
			f.CreatedAt = t
		}

		fills = append(fills, f)
	}

	return fills, rows.Err()
}
