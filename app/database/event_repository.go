package database

import (
	"database/sql"
	"fmt"
	"time"
)

// EventRepository handles catalog table operations.
type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetEventByURL returns the stored row for a canonical event URL, or
// nil when none exists.
func (r *EventRepository) GetEventByURL(url string) (*Event, error) {
	row := r.db.QueryRow(`
		SELECT id, name, COALESCE(description, ''), url, COALESCE(image, ''),
		       COALESCE(start_date, ''), COALESCE(end_date, ''),
		       COALESCE(venue, ''), COALESCE(address, ''), lat, long,
		       COALESCE(organizer, ''), COALESCE(category, ''),
		       COALESCE(source, ''), COALESCE(address_confidence, ''),
		       created_at, updated_at
		FROM events
		WHERE url = ?
	`, url)

	var ev Event
	err := row.Scan(
		&ev.ID, &ev.Name, &ev.Description, &ev.URL, &ev.Image,
		&ev.StartDate, &ev.EndDate, &ev.Venue, &ev.Address, &ev.Lat, &ev.Long,
		&ev.Organizer, &ev.Category, &ev.Source, &ev.AddressConfidence,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by url: %w", err)
	}
	return &ev, nil
}

// UpsertEvent writes a row keyed by its unique url: an existing row is
// updated in place, otherwise the row is inserted. Returns whether a
// new row was created, which the loader counts as inserted vs updated.
func (r *EventRepository) UpsertEvent(ev Event) (bool, error) {
	existing, err := r.GetEventByURL(ev.URL)
	if err != nil {
		return false, fmt.Errorf("failed to check existing event: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE events
			SET name = ?, description = ?, image = ?, start_date = ?, end_date = ?,
			    venue = ?, address = ?, lat = ?, long = ?, organizer = ?,
			    category = ?, source = ?, address_confidence = ?, updated_at = ?
			WHERE url = ?
		`, ev.Name, ev.Description, ev.Image, ev.StartDate, ev.EndDate,
			ev.Venue, ev.Address, ev.Lat, ev.Long, ev.Organizer,
			ev.Category, ev.Source, ev.AddressConfidence, now, ev.URL)
		if err != nil {
			return false, fmt.Errorf("failed to update event: %w", err)
		}
		return false, nil
	}

	_, err = r.db.Exec(`
		INSERT INTO events (
			name, description, url, image, start_date, end_date,
			venue, address, lat, long, organizer, category,
			source, address_confidence, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.Name, ev.Description, ev.URL, ev.Image, ev.StartDate, ev.EndDate,
		ev.Venue, ev.Address, ev.Lat, ev.Long, ev.Organizer, ev.Category,
		ev.Source, ev.AddressConfidence, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert event: %w", err)
	}
	return true, nil
}

// GetEvents returns catalog rows matching the filter, ordered by start
// date for the map UI's timeline.
func (r *EventRepository) GetEvents(filter EventFilter) ([]Event, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), url, COALESCE(image, ''),
		       COALESCE(start_date, ''), COALESCE(end_date, ''),
		       COALESCE(venue, ''), COALESCE(address, ''), lat, long,
		       COALESCE(organizer, ''), COALESCE(category, ''),
		       COALESCE(source, ''), COALESCE(address_confidence, ''),
		       created_at, updated_at
		FROM events
		WHERE 1=1`
	var args []interface{}

	if filter.From != "" {
		query += " AND start_date >= ?"
		args = append(args, filter.From)
	}
	if filter.To != "" {
		// Upper bound is a date; pad past any time component.
		query += " AND start_date <= ?"
		args = append(args, filter.To+"T23:59:59")
	}
	if filter.HasBBox {
		query += " AND lat BETWEEN ? AND ? AND long BETWEEN ? AND ?"
		args = append(args, filter.MinLat, filter.MaxLat, filter.MinLong, filter.MaxLong)
	}

	query += " ORDER BY start_date, url"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		err := rows.Scan(
			&ev.ID, &ev.Name, &ev.Description, &ev.URL, &ev.Image,
			&ev.StartDate, &ev.EndDate, &ev.Venue, &ev.Address, &ev.Lat, &ev.Long,
			&ev.Organizer, &ev.Category, &ev.Source, &ev.AddressConfidence,
			&ev.CreatedAt, &ev.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

// GetEventCount returns the total number of stored events.
func (r *EventRepository) GetEventCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

// GetSourceCounts returns how many stored events each source
// contributed.
func (r *EventRepository) GetSourceCounts() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT COALESCE(source, ''), COUNT(*)
		FROM events
		GROUP BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get source counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count row: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source count rows: %w", err)
	}

	return counts, nil
}

// GetDedupIndex fetches the lightweight projection of all stored rows
// used by the cross-source near-duplicate pass.
func (r *EventRepository) GetDedupIndex() ([]DedupRow, error) {
	rows, err := r.db.Query(`
		SELECT url, lat, long, COALESCE(start_date, ''), name
		FROM events
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get dedup index: %w", err)
	}
	defer rows.Close()

	var index []DedupRow
	for rows.Next() {
		var row DedupRow
		if err := rows.Scan(&row.URL, &row.Lat, &row.Long, &row.StartDate, &row.Name); err != nil {
			return nil, fmt.Errorf("failed to scan dedup row: %w", err)
		}
		index = append(index, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dedup rows: %w", err)
	}

	return index, nil
}
