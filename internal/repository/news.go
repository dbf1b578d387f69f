package repository

import (
	"context"
	"fmt"

	"github.com/dvtarkov/vampires-engine/internal/game"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewsSink is the pgx implementation of game.NewsSink. Entries are
// append-only; nothing in the engine ever updates or deletes them.
//
// Expected table:
//
//	news(id, title, body, tag, action_id, district_id, created_at)
type NewsSink struct {
	pool *pgxpool.Pool
}

var _ game.NewsSink = (*NewsSink)(nil)

// NewNewsSink wraps a connection pool as a news sink.
func NewNewsSink(pool *pgxpool.Pool) *NewsSink {
	return &NewsSink{pool: pool}
}

func (s *NewsSink) Record(ctx context.Context, entry game.NewsEntry) error {
	var (
		actionID   *int64
		districtID *int64
	)
	if entry.ActionID != 0 {
		actionID = &entry.ActionID
	}
	if entry.DistrictID != 0 {
		districtID = &entry.DistrictID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO news (id, title, body, tag, action_id, district_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), entry.Title, entry.Body, entry.Tag, actionID, districtID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording news entry: %w", err)
	}
	return nil
}
