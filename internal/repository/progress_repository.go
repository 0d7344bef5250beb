package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/annotation-tracker/internal/model"
)

// ProgressRepo persists the per-annotator task cursor (single row per
// annotator, keyed by annotator_id).
type ProgressRepo struct{ db *sqlx.DB }

func NewProgressRepo(db *sqlx.DB) *ProgressRepo { return &ProgressRepo{db: db} }

// Upsert creates or replaces the annotator's cursor in one statement.
func (r *ProgressRepo) Upsert(ctx context.Context, annotatorID int64, index int, at time.Time) error {
	var q string
	switch r.db.DriverName() {
	case "mysql":
		q = `INSERT INTO progress (annotator_id, last_index, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE last_index = VALUES(last_index), updated_at = VALUES(updated_at)`
	default:
		q = `INSERT INTO progress (annotator_id, last_index, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (annotator_id) DO UPDATE SET last_index = excluded.last_index, updated_at = excluded.updated_at`
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q), annotatorID, index, at.UTC())
	return classify(err)
}

// Get returns the annotator's cursor or ErrNotFound when none exists.
func (r *ProgressRepo) Get(ctx context.Context, annotatorID int64) (model.Progress, error) {
	var p model.Progress
	err := r.db.GetContext(ctx, &p,
		r.db.Rebind(`SELECT annotator_id, last_index, updated_at FROM progress WHERE annotator_id = ?`), annotatorID)
	return p, classify(err)
}
