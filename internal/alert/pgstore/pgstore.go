// Package pgstore provides a PostgreSQL implementation of alert.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/wildwatch/internal/alert"
)

var tracer = otel.Tracer("github.com/linnemanlabs/wildwatch/internal/alert/pgstore")

//go:embed schema.sql
var schema string

// Store persists detections and alerts in PostgreSQL. The UNIQUE
// (user_id, detection_id) constraint carries the at-most-one-alert
// contract; batch inserts run in one transaction so readers never see a
// partial alert set.
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

const detectionColumns = `id, species, lat, lon, confidence, file_path, detected_at, user_id`

// CreateDetection persists a new detection row.
func (s *Store) CreateDetection(ctx context.Context, d *alert.Detection) error {
	ctx, span := tracer.Start(ctx, "pgstore.CreateDetection", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	query := `INSERT INTO detections (` + detectionColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := s.pool.Exec(ctx, query,
		d.ID, d.Species, d.Lat, d.Lon, d.Confidence, d.FilePath, d.DetectedAt, d.UserID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert detection: %w", err)
	}
	return nil
}

// GetDetection retrieves a detection by ID.
func (s *Store) GetDetection(ctx context.Context, id string) (*alert.Detection, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetDetection", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var d alert.Detection
	query := `SELECT ` + detectionColumns + ` FROM detections WHERE id = $1`
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Species, &d.Lat, &d.Lon, &d.Confidence, &d.FilePath, &d.DetectedAt, &d.UserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("scan detection: %w", err)
	}
	return &d, true, nil
}

// InsertAlerts inserts a fan-out batch in one transaction, skipping rows
// that conflict on (user_id, detection_id), and returns the count actually
// inserted.
func (s *Store) InsertAlerts(ctx context.Context, alerts []alert.Alert) (int, error) {
	ctx, span := tracer.Start(ctx, "pgstore.InsertAlerts", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
		attribute.Int("wildwatch.alerts.batch_size", len(alerts)),
	))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	inserted := 0
	for i := range alerts {
		a := &alerts[i]
		tag, err := tx.Exec(ctx,
			`INSERT INTO alerts (id, user_id, detection_id, distance_km, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (user_id, detection_id) DO NOTHING`,
			a.ID, a.UserID, a.DetectionID, a.DistanceKm, a.CreatedAt,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("insert alert for user %s: %w", a.UserID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ListForUser returns the subscriber's alerts joined with detections,
// most recent first, up to limit.
func (s *Store) ListForUser(ctx context.Context, userID string, limit int) ([]alert.Record, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListForUser", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.distance_km, a.created_at,
		        d.species, d.lat, d.lon, d.detected_at, d.confidence
		 FROM alerts a
		 JOIN detections d ON d.id = a.detection_id
		 WHERE a.user_id = $1
		 ORDER BY a.created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []alert.Record
	for rows.Next() {
		var r alert.Record
		if err := rows.Scan(
			&r.ID, &r.DistanceKm, &r.CreatedAt,
			&r.Species, &r.Lat, &r.Lon, &r.DetectedAt, &r.Confidence,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

// SpeciesCounts returns per-species alert counts for a subscriber.
func (s *Store) SpeciesCounts(ctx context.Context, userID string) (map[string]int, error) {
	ctx, span := tracer.Start(ctx, "pgstore.SpeciesCounts", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT d.species, COUNT(*)
		 FROM alerts a
		 JOIN detections d ON d.id = a.detection_id
		 WHERE a.user_id = $1
		 GROUP BY d.species`,
		userID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query species counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			species string
			n       int
		)
		if err := rows.Scan(&species, &n); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("scan species count: %w", err)
		}
		counts[species] = n
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate species counts: %w", err)
	}
	return counts, nil
}

// DetectionsWithoutAlerts returns detections created before cutoff with no
// alert rows, oldest first, the reconciliation sweep input.
func (s *Store) DetectionsWithoutAlerts(ctx context.Context, cutoff time.Time) ([]alert.Detection, error) {
	ctx, span := tracer.Start(ctx, "pgstore.DetectionsWithoutAlerts", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.species, d.lat, d.lon, d.confidence, d.file_path, d.detected_at, d.user_id
		 FROM detections d
		 LEFT JOIN alerts a ON a.detection_id = d.id
		 WHERE a.id IS NULL AND d.detected_at <= $1
		 ORDER BY d.detected_at`,
		cutoff,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query unalerted detections: %w", err)
	}
	defer rows.Close()

	var out []alert.Detection
	for rows.Next() {
		var d alert.Detection
		if err := rows.Scan(
			&d.ID, &d.Species, &d.Lat, &d.Lon, &d.Confidence, &d.FilePath, &d.DetectedAt, &d.UserID,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate detections: %w", err)
	}
	return out, nil
}
