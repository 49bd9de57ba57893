// Package kpi provides persistent KPI storage backends.
package kpi

import (
	"database/sql"
	"time"

	core "github.com/voltlab/smartcharge/core/kpi"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS charge_kpi (
        day INTEGER PRIMARY KEY,
        charged_seconds REAL,
        price_seconds REAL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or updates the KPI record aggregated by day.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Day)
	_, err := s.db.Exec(`INSERT INTO charge_kpi (day, charged_seconds, price_seconds)
        VALUES (?, ?, ?)
        ON CONFLICT(day) DO UPDATE SET
            charged_seconds = charged_seconds + excluded.charged_seconds,
            price_seconds = price_seconds + excluded.price_seconds`,
		d.Unix(), r.ChargedSeconds, r.PriceSeconds)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT day, charged_seconds, price_seconds
        FROM charge_kpi WHERE day >= ? AND day <= ? ORDER BY day`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var ts int64
		var charged, price float64
		if err := rows.Scan(&ts, &charged, &price); err != nil {
			return nil, err
		}
		res = append(res, core.Record{
			Day:            time.Unix(ts, 0).UTC(),
			ChargedSeconds: charged,
			PriceSeconds:   price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
