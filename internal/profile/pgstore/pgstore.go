// Package pgstore provides a PostgreSQL implementation of profile.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/wildwatch/internal/profile"
)

var tracer = otel.Tracer("github.com/linnemanlabs/wildwatch/internal/profile/pgstore")

//go:embed schema.sql
var schema string

// Store persists subscriber profiles in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned by
// the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const profileColumns = `user_id, occupation, address, area_type, phone, lat, lon, radius_km, preferences`

// Get retrieves a profile by user ID.
func (s *Store) Get(ctx context.Context, userID string) (*profile.Profile, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetProfile", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfileRow(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if p == nil {
		return nil, false, nil
	}
	return p, true, nil
}

// Put inserts or replaces a profile.
func (s *Store) Put(ctx context.Context, p *profile.Profile) error {
	ctx, span := tracer.Start(ctx, "pgstore.PutProfile", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	prefsJSON, err := json.Marshal(p.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	query := `INSERT INTO profiles (
		user_id, occupation, address, area_type, phone, lat, lon, radius_km, preferences, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
	ON CONFLICT (user_id) DO UPDATE SET
		occupation  = EXCLUDED.occupation,
		address     = EXCLUDED.address,
		area_type   = EXCLUDED.area_type,
		phone       = EXCLUDED.phone,
		lat         = EXCLUDED.lat,
		lon         = EXCLUDED.lon,
		radius_km   = EXCLUDED.radius_km,
		preferences = EXCLUDED.preferences,
		updated_at  = now()`

	_, err = s.pool.Exec(ctx, query,
		p.UserID, p.Occupation, p.Address, p.AreaType, p.Phone,
		p.Lat, p.Lon, p.RadiusKm, prefsJSON,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// All returns every profile ordered by creation time so fan-out scans are
// stable across invocations.
func (s *Store) All(ctx context.Context) ([]profile.Profile, error) {
	ctx, span := tracer.Start(ctx, "pgstore.AllProfiles", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at, user_id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// scanProfileRow scans a single row. Returns (nil, nil) when no row is found.
func scanProfileRow(row pgx.Row) (*profile.Profile, error) {
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		p         profile.Profile
		prefsJSON []byte
	)
	err := row.Scan(
		&p.UserID, &p.Occupation, &p.Address, &p.AreaType, &p.Phone,
		&p.Lat, &p.Lon, &p.RadiusKm, &prefsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	if err := json.Unmarshal(prefsJSON, &p.Preferences); err != nil {
		p.Preferences = profile.DefaultPreferences()
	}
	return &p, nil
}
