package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"locator-api/internal/models"
)

// Repository implements the marker and user-location stores over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Schema is the DDL for the marker and user-location tables.
const Schema = `
CREATE TABLE IF NOT EXISTS locator_markers (
	id VARCHAR(40) PRIMARY KEY,
	title VARCHAR(255) NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	street VARCHAR(255) NOT NULL DEFAULT '',
	city VARCHAR(255) NOT NULL DEFAULT '',
	region VARCHAR(255) NOT NULL DEFAULT '',
	postal_code VARCHAR(40) NOT NULL DEFAULT '',
	lat DOUBLE PRECISION NOT NULL DEFAULT 0,
	lng DOUBLE PRECISION NOT NULL DEFAULT 0,
	keywords VARCHAR(255) NOT NULL DEFAULT '',
	url VARCHAR(255) NOT NULL DEFAULT '',
	is_origin BOOLEAN NOT NULL DEFAULT FALSE,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	owner_id INTEGER NOT NULL DEFAULT 0,
	group_id INTEGER NOT NULL DEFAULT 0,
	perm_members BOOLEAN NOT NULL DEFAULT TRUE,
	perm_anon BOOLEAN NOT NULL DEFAULT TRUE,
	views INTEGER NOT NULL DEFAULT 0,
	added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS locator_userloc (
	id SERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL,
	loc_type SMALLINT NOT NULL DEFAULT 0,
	location VARCHAR(255) NOT NULL,
	lat DOUBLE PRECISION NOT NULL DEFAULT 0,
	lng DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS locator_user_origin (
	user_id INTEGER NOT NULL,
	marker_id VARCHAR(40) NOT NULL,
	PRIMARY KEY (user_id, marker_id)
);
`

const markerColumns = `
	id, title, description, street, city, region, postal_code,
	lat, lng, keywords, url, is_origin, enabled,
	owner_id, group_id, perm_members, perm_anon, views, added_at
`

func scanMarker(row pgx.Row) (models.Marker, error) {
	var m models.Marker
	err := row.Scan(
		&m.ID, &m.Title, &m.Description,
		&m.Address.Street, &m.Address.City, &m.Address.Region, &m.Address.PostalCode,
		&m.Coordinate.Lat, &m.Coordinate.Lng,
		&m.Keywords, &m.URL, &m.IsOrigin, &m.Enabled,
		&m.OwnerID, &m.GroupID, &m.PermMembers, &m.PermAnon,
		&m.Views, &m.AddedAt,
	)
	return m, err
}

// GetMarker returns a single marker by ID, or nil if it does not exist.
func (r *Repository) GetMarker(ctx context.Context, id string) (*models.Marker, error) {
	sql := `SELECT ` + markerColumns + ` FROM locator_markers WHERE id = $1`
	m, err := scanMarker(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to load marker: %w", err)
	}
	return &m, nil
}

// SearchCandidates returns every enabled marker visible to the user: public
// markers, member-visible markers for logged-in users, and the user's own.
// Distance filtering happens in the search service.
func (r *Repository) SearchCandidates(ctx context.Context, userID int) ([]models.Marker, error) {
	sql := `
		SELECT ` + markerColumns + `
		FROM locator_markers
		WHERE enabled = TRUE
		  AND (perm_anon = TRUE
		       OR ($1 > 0 AND perm_members = TRUE)
		       OR owner_id = $1)
	`
	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query markers: %w", err)
	}
	defer rows.Close()

	var markers []models.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan marker: %w", err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating markers: %w", err)
	}
	return markers, nil
}

// ListOrigins returns the markers the user may search from: system origin
// markers visible to them plus their own saved origins.
func (r *Repository) ListOrigins(ctx context.Context, userID int) ([]models.Marker, error) {
	sql := `
		SELECT ` + markerColumns + `
		FROM locator_markers
		WHERE enabled = TRUE
		  AND (perm_anon = TRUE
		       OR ($1 > 0 AND perm_members = TRUE)
		       OR owner_id = $1)
		  AND (is_origin = TRUE
		       OR id IN (SELECT marker_id FROM locator_user_origin WHERE user_id = $1))
		ORDER BY title
	`
	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query origins: %w", err)
	}
	defer rows.Close()

	var markers []models.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan origin: %w", err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating origins: %w", err)
	}
	return markers, nil
}

// UserOriginIDs returns the set of marker IDs the user has saved as origins.
// Anonymous users have none.
func (r *Repository) UserOriginIDs(ctx context.Context, userID int) (map[string]bool, error) {
	ids := make(map[string]bool)
	if userID <= 0 {
		return ids, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT marker_id FROM locator_user_origin WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query user origins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository: failed to scan origin id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating origins: %w", err)
	}
	return ids, nil
}

// AddUserOrigin saves a marker as one of the user's origins. Duplicates are
// ignored.
func (r *Repository) AddUserOrigin(ctx context.Context, userID int, markerID string) error {
	if userID <= 0 || markerID == "" {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO locator_user_origin (user_id, marker_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, markerID)
	if err != nil {
		return fmt.Errorf("repository: failed to add user origin: %w", err)
	}
	return nil
}

// DeleteUserOrigin removes a marker from the user's origins.
func (r *Repository) DeleteUserOrigin(ctx context.Context, userID int, markerID string) error {
	if userID <= 0 || markerID == "" {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM locator_user_origin WHERE user_id = $1 AND marker_id = $2`,
		userID, markerID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete user origin: %w", err)
	}
	return nil
}

// FindUserLocation returns the user's saved record for a free-text address,
// or nil if none exists.
func (r *Repository) FindUserLocation(ctx context.Context, userID int, address string) (*models.UserLocation, error) {
	var loc models.UserLocation
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, loc_type, location, lat, lng
		FROM locator_userloc
		WHERE user_id = $1 AND location = $2
	`, userID, address).Scan(
		&loc.ID, &loc.UserID, &loc.Type, &loc.Location,
		&loc.Coordinate.Lat, &loc.Coordinate.Lng,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to load user location: %w", err)
	}
	return &loc, nil
}

// SaveUserLocation inserts a new user location or updates the coordinates of
// an existing one.
func (r *Repository) SaveUserLocation(ctx context.Context, loc *models.UserLocation) error {
	if loc.ID == 0 {
		err := r.db.QueryRow(ctx, `
			INSERT INTO locator_userloc (user_id, loc_type, location, lat, lng)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, loc.UserID, loc.Type, loc.Location,
			loc.Coordinate.Lat, loc.Coordinate.Lng).Scan(&loc.ID)
		if err != nil {
			return fmt.Errorf("repository: failed to insert user location: %w", err)
		}
		return nil
	}

	_, err := r.db.Exec(ctx, `
		UPDATE locator_userloc SET location = $2, lat = $3, lng = $4 WHERE id = $1
	`, loc.ID, loc.Location, loc.Coordinate.Lat, loc.Coordinate.Lng)
	if err != nil {
		return fmt.Errorf("repository: failed to update user location: %w", err)
	}
	return nil
}
