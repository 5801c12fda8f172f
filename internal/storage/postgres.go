package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/facewatch/internal/config"
	"github.com/your-org/facewatch/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Identities ---

// ListReferences returns every enrolled identity id with its reference
// embedding. Called per match so results always reflect the latest
// enrollment; the table is small by design (bounded identity count).
func (s *PostgresStore) ListReferences(ctx context.Context) ([]models.Reference, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, embedding FROM identities`)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer rows.Close()

	var refs []models.Reference
	for rows.Next() {
		var r models.Reference
		var vec pgvector.Vector
		if err := rows.Scan(&r.IdentityID, &vec); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		r.Embedding = vec.Slice()
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// GetIdentities resolves identity details for the given ids.
func (s *PostgresStore) GetIdentities(ctx context.Context, ids []string) ([]models.Identity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, branch, photo_url, created_at FROM identities WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get identities: %w", err)
	}
	defer rows.Close()

	var identities []models.Identity
	for rows.Next() {
		var id models.Identity
		if err := rows.Scan(&id.ID, &id.Name, &id.Branch, &id.PhotoURL, &id.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, id)
	}
	return identities, rows.Err()
}

func (s *PostgresStore) ListIdentities(ctx context.Context) ([]models.Identity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, branch, photo_url, created_at FROM identities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []models.Identity
	for rows.Next() {
		var id models.Identity
		if err := rows.Scan(&id.ID, &id.Name, &id.Branch, &id.PhotoURL, &id.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, id)
	}
	return identities, rows.Err()
}

// --- Detection records ---

// InsertDetections appends detection records in one batch. Append-only:
// duplicate suppression is the notification controller's job, not this
// layer's.
func (s *PostgresStore) InsertDetections(ctx context.Context, events []models.DetectionEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range events {
		ev := &events[i]
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		ev.CreatedAt = time.Now()
		batch.Queue(
			`INSERT INTO detections (id, identity_id, name, branch, photo_url, distance, occurred_at, frame_key, alerted, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			ev.ID, ev.IdentityID, ev.Name, ev.Branch, ev.PhotoURL,
			ev.Distance, ev.OccurredAt, ev.FrameKey, ev.Alerted, ev.CreatedAt)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert detection: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListDetections(ctx context.Context, limit, offset int) ([]models.DetectionEvent, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM detections`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count detections: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, identity_id, name, branch, photo_url, distance, occurred_at, frame_key, alerted, created_at
		 FROM detections ORDER BY occurred_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	var events []models.DetectionEvent
	for rows.Next() {
		var ev models.DetectionEvent
		if err := rows.Scan(&ev.ID, &ev.IdentityID, &ev.Name, &ev.Branch, &ev.PhotoURL,
			&ev.Distance, &ev.OccurredAt, &ev.FrameKey, &ev.Alerted, &ev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan detection: %w", err)
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

// GetDetection returns a single detection record by ID.
func (s *PostgresStore) GetDetection(ctx context.Context, id uuid.UUID) (*models.DetectionEvent, error) {
	var ev models.DetectionEvent
	err := s.pool.QueryRow(ctx,
		`SELECT id, identity_id, name, branch, photo_url, distance, occurred_at, frame_key, alerted, created_at
		 FROM detections WHERE id = $1`, id).
		Scan(&ev.ID, &ev.IdentityID, &ev.Name, &ev.Branch, &ev.PhotoURL,
			&ev.Distance, &ev.OccurredAt, &ev.FrameKey, &ev.Alerted, &ev.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get detection: %w", err)
	}
	return &ev, nil
}
