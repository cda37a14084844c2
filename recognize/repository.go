// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/snaplocate/snaplocate/spatial"
	"github.com/uber/h3-go/v4"
)

// Sighting is a persisted recognition outcome: the place the pipeline
// decided a photo shows.
type Sighting struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name,omitempty"`
	Address    string        `json:"address,omitempty"`
	Category   string        `json:"category,omitempty"`
	Point      spatial.Point `json:"point"`
	Confidence float64       `json:"confidence"`
	Method     Method        `json:"method"`
	CreatedAt  time.Time     `json:"created_at"`
	H3Res7     int64         `json:"-"`
	H3Res8     int64         `json:"-"`
	H3Res9     int64         `json:"-"`
}

func (s *Sighting) computeH3() error {
	latLng := h3.NewLatLng(s.Point.Lat, s.Point.Lng)

	for res := 7; res <= 9; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case 7:
			s.H3Res7 = int64(cell)
		case 8:
			s.H3Res8 = int64(cell)
		case 9:
			s.H3Res9 = int64(cell)
		}
	}

	return nil
}

// Candidate re-expresses the stored sighting for similarity matching.
func (s *Sighting) Candidate() *LocationCandidate {
	point := s.Point

	return &LocationCandidate{
		ID:         s.ID,
		Point:      &point,
		Confidence: s.Confidence,
		Method:     s.Method,
		Name:       s.Name,
		Address:    s.Address,
		Category:   s.Category,
		MapsLink:   MapsLinkFor(point),
	}
}

// SightingRepository handles persistence of recognition outcomes.
type SightingRepository interface {
	// CreateSchema creates the sightings table
	CreateSchema() error

	// Save persists a sighting and assigns its ID
	Save(sighting *Sighting) error

	// ListRecent returns sightings newest first
	ListRecent(limit, offset int) ([]*Sighting, error)

	// ListNearby returns sightings sharing the point's h3 res-8 cell
	ListNearby(point spatial.Point) ([]*Sighting, error)

	// Count returns the total number of sightings
	Count() (int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlSightingRepository struct {
	db *sql.DB
}

// NewSightingRepository creates a duckdb-backed sighting repository.
func NewSightingRepository(db *sql.DB) SightingRepository {
	return &sqlSightingRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlSightingRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlSightingRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS sightings_seq START 1;

		CREATE TABLE IF NOT EXISTS sightings (
			id BIGINT PRIMARY KEY DEFAULT nextval('sightings_seq'),
			name VARCHAR,
			address VARCHAR,
			category VARCHAR,
			point POINT_2D NOT NULL,
			confidence DOUBLE NOT NULL,
			method VARCHAR NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT,
			h3_res9 UBIGINT
		);
	`)

	return err
}

func (r *sqlSightingRepository) Save(sighting *Sighting) error {
	if !sighting.Point.Valid() {
		return errors.New("sighting point is not valid")
	}

	if err := sighting.computeH3(); err != nil {
		return err
	}

	if sighting.CreatedAt.IsZero() {
		sighting.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(`
		INSERT INTO sightings(
			name,
			address,
			category,
			point,
			confidence,
			method,
			created_at,
			h3_res7,
			h3_res8,
			h3_res9
		)
		VALUES (?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		sighting.Name,
		sighting.Address,
		sighting.Category,
		sighting.Point.Lng,
		sighting.Point.Lat,
		sighting.Confidence,
		string(sighting.Method),
		sighting.CreatedAt,
		sighting.H3Res7,
		sighting.H3Res8,
		sighting.H3Res9,
	).Scan(&sighting.ID)
	if err != nil {
		return fmt.Errorf("inserting sighting: %w", err)
	}

	return nil
}

var sightingSelect = `
	SELECT id, name, address, category, point, confidence, method,
	       created_at, h3_res7, h3_res8, h3_res9
	FROM sightings
`

func (r *sqlSightingRepository) list(query string, args []any) ([]*Sighting, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sightings []*Sighting

	for rows.Next() {
		sighting := &Sighting{}

		var name, address, category sql.NullString

		var h3Res7, h3Res8, h3Res9 sql.NullInt64

		var method string

		err := rows.Scan(
			&sighting.ID, &name, &address, &category,
			&sighting.Point, &sighting.Confidence, &method,
			&sighting.CreatedAt, &h3Res7, &h3Res8, &h3Res9,
		)
		if err != nil {
			return nil, err
		}

		sighting.Method = Method(method)

		if name.Valid {
			sighting.Name = name.String
		}

		if address.Valid {
			sighting.Address = address.String
		}

		if category.Valid {
			sighting.Category = category.String
		}

		if h3Res7.Valid {
			sighting.H3Res7 = h3Res7.Int64
		}

		if h3Res8.Valid {
			sighting.H3Res8 = h3Res8.Int64
		}

		if h3Res9.Valid {
			sighting.H3Res9 = h3Res9.Int64
		}

		sightings = append(sightings, sighting)
	}

	return sightings, rows.Err()
}

func (r *sqlSightingRepository) ListRecent(limit, offset int) ([]*Sighting, error) {
	query := sightingSelect + " ORDER BY created_at DESC, id DESC"

	args := []any{}

	if limit > 0 {
		query += " LIMIT ? OFFSET ?"

		args = append(args, limit, offset)
	}

	return r.list(query, args)
}

func (r *sqlSightingRepository) ListNearby(point spatial.Point) ([]*Sighting, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(point.Lat, point.Lng), 8)
	if err != nil {
		return nil, fmt.Errorf("error converting to h3 cell: %w", err)
	}

	return r.list(
		sightingSelect+" WHERE h3_res8 = ? ORDER BY created_at DESC, id DESC",
		[]any{int64(cell)},
	)
}

func (r *sqlSightingRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM sightings",
	).Scan(&count)

	return count, err
}
