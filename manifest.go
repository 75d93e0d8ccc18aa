package celeste

import (
	"database/sql"
	"fmt"

	"github.com/borogk/celeste/data"
	_ "github.com/mattn/go-sqlite3"
)

// Manifest is a SQLite database recording every file converted.
type Manifest struct {
	db *sql.DB
}

// Entry describes a single conversion.
type Entry struct {
	Source      string
	Destination string
	SHA1        string
	Config      data.Config
	// Colors is the palette reduction the destination was written with
	Colors int
}

// OpenManifest opens, creating if necessary, the manifest stored in file.
func OpenManifest(file string) (*Manifest, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, source TEXT NOT NULL UNIQUE, destination TEXT NOT NULL, sha1 TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, alpha INTEGER NOT NULL, colors INTEGER NOT NULL DEFAULT 0)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Manifest{
		db: db,
	}, nil
}

// Close closes the underlying database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Record stores e, replacing any previous entry for the same source.
func (m *Manifest) Record(e Entry) error {
	if _, err := m.db.Exec("INSERT OR REPLACE INTO conversion (source, destination, sha1, width, height, alpha, colors) VALUES (?, ?, ?, ?, ?, ?, ?)", e.Source, e.Destination, e.SHA1, e.Config.Width, e.Config.Height, e.Config.Alpha, e.Colors); err != nil {
		return err
	}
	return nil
}

// Find returns the entry for source or nil if there isn't one.
func (m *Manifest) Find(source string) (*Entry, error) {
	e := Entry{Source: source}
	switch err := m.db.QueryRow("SELECT destination, sha1, width, height, alpha, colors FROM conversion WHERE source = ?", source).Scan(&e.Destination, &e.SHA1, &e.Config.Width, &e.Config.Height, &e.Config.Alpha, &e.Colors); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &e, nil
	default:
		return nil, err
	}
}

// Entries returns every entry ordered by source.
func (m *Manifest) Entries() ([]Entry, error) {
	rows, err := m.db.Query("SELECT source, destination, sha1, width, height, alpha, colors FROM conversion ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Source, &e.Destination, &e.SHA1, &e.Config.Width, &e.Config.Height, &e.Config.Alpha, &e.Colors); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
