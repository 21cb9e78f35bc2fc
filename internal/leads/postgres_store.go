package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// pgxQuerier is the slice of pgx the store needs; *pgxpool.Pool and the
// pgxmock pool both satisfy it.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore mirrors every finalized lead into the relational
// database. It is layered on top of a FileStore in production so the
// card file for email attachments still exists.
type PostgresStore struct {
	db   pgxQuerier
	next Store
}

// NewPostgresStore wires the store. next may be nil when no card file
// is needed.
func NewPostgresStore(db pgxQuerier, next Store) *PostgresStore {
	if db == nil {
		panic("leads: pgx querier required")
	}
	return &PostgresStore{db: db, next: next}
}

func (s *PostgresStore) Append(ctx context.Context, lead *Lead) (string, error) {
	if err := lead.Validate(); err != nil {
		return "", err
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(lead.Meta)
	if err != nil {
		return "", fmt.Errorf("leads: marshal meta: %w", err)
	}

	query := `
		INSERT INTO leads (id, created_at, platform, user_id, username, name, lead_kind,
			city, area_m2, extras, address, visit_date, visit_time, phone, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := s.db.QueryRow(ctx, query,
		lead.ID,
		lead.CreatedAt,
		lead.Platform,
		lead.UserID,
		lead.Username,
		lead.Name,
		lead.Kind,
		lead.City,
		lead.AreaM2,
		lead.Extras,
		lead.Address,
		lead.VisitDate,
		lead.VisitTime,
		lead.Phone,
		meta,
	).Scan(&createdAt); err != nil {
		return "", fmt.Errorf("leads: insert failed: %w", err)
	}
	lead.CreatedAt = createdAt

	if s.next != nil {
		return s.next.Append(ctx, lead)
	}
	return "", nil
}
