package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/annotation-tracker/internal/model"
)

// TaskRepo reads and appends the ordered list of texts to annotate.
type TaskRepo struct{ db *sqlx.DB }

func NewTaskRepo(db *sqlx.DB) *TaskRepo { return &TaskRepo{db: db} }

// List returns every task ordered by position.
func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	out := []model.Task{}
	if err := r.db.SelectContext(ctx, &out, `SELECT position, english, somali FROM tasks ORDER BY position`); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Append assigns consecutive positions after the current tail and
// inserts the tasks in one transaction. The stored tasks are returned
// with their positions set.
func (r *TaskRepo) Append(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	if len(tasks) == 0 {
		return []model.Task{}, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var tail sql.NullInt64
	if err := tx.GetContext(ctx, &tail, `SELECT MAX(position) FROM tasks`); err != nil {
		return nil, classify(err)
	}
	next := 0
	if tail.Valid {
		next = int(tail.Int64) + 1
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		t.Position = next
		next++
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO tasks (position, english, somali) VALUES (:position, :english, :somali)`, t); err != nil {
			if _, ok := uniqueViolation(err); ok {
				return nil, ErrConflict
			}
			return nil, classify(err)
		}
		out = append(out, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	committed = true
	return out, nil
}
