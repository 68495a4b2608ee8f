// Package history persists interface events to the SQLite journal so
// operators can reconstruct what the daemon did after the fact. The
// Journal is registered as an event listener; every broadcast becomes
// one row.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wavelan/wifid/internal/event"
)

// defaultQueryLimit bounds Recent when the caller passes no limit.
const defaultQueryLimit = 100

// Record is one journaled interface event.
type Record struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"kind"`
	InterfaceName  string    `json:"interface_name,omitempty"`
	InterfaceIndex uint32    `json:"interface_index,omitempty"`
	MAC            string    `json:"mac,omitempty"`
	Connected      bool      `json:"connected"`
	CreatedAt      time.Time `json:"created_at"`
}

// Journal writes broadcast events to the interface_events table and
// serves queries over them.
type Journal struct {
	db *sql.DB
}

// NewJournal creates a journal backed by the given database.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Notify implements event.Listener by inserting one row per event.
func (j *Journal) Notify(ev event.Event) error {
	mac := ""
	if len(ev.MAC) > 0 {
		mac = ev.MAC.String()
	}

	_, err := j.db.Exec(
		`INSERT INTO interface_events (kind, interface_name, interface_index, mac_address, connected, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.InterfaceName, ev.InterfaceIndex, mac, ev.Connected, ev.Time,
	)
	if err != nil {
		return fmt.Errorf("journaling %s event: %w", ev.Kind, err)
	}
	return nil
}

// Recent returns the newest records, most recent first. A non-positive
// limit uses the default.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, interface_name, interface_index, mac_address, connected, created_at
		 FROM interface_events
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying interface events: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	return scanRecords(rows)
}

// ByInterface returns the newest records for one interface name, most
// recent first.
func (j *Journal) ByInterface(ctx context.Context, name string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, interface_name, interface_index, mac_address, connected, created_at
		 FROM interface_events
		 WHERE interface_name = ?
		 ORDER BY id DESC
		 LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("querying interface events for %s: %w", name, err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Kind, &r.InterfaceName, &r.InterfaceIndex,
			&r.MAC, &r.Connected, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning interface event: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading interface events: %w", err)
	}
	return records, nil
}
