package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/annotation-tracker/internal/model"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

// ProgressStore persists one cursor per annotator.
type ProgressStore interface {
	Upsert(ctx context.Context, annotatorID int64, index int, at time.Time) error
	Get(ctx context.Context, annotatorID int64) (model.Progress, error)
}

// TaskStore serves the ordered task list the cursor points into.
type TaskStore interface {
	List(ctx context.Context) ([]model.Task, error)
	Append(ctx context.Context, tasks []model.Task) ([]model.Task, error)
}

// Progress tracks where each annotator is in the task list.
type Progress struct {
	cursors ProgressStore
	tasks   TaskStore
	now     func() time.Time
}

func NewProgress(cursors ProgressStore, tasks TaskStore) *Progress {
	return &Progress{cursors: cursors, tasks: tasks, now: func() time.Time { return time.Now().UTC() }}
}

// SaveProgress records index as the annotator's cursor. Last write wins.
func (p *Progress) SaveProgress(ctx context.Context, annotatorID int64, index int) error {
	if index < 0 {
		return fmt.Errorf("save progress: negative index %d: %w", index, repository.ErrInvalidArgument)
	}
	if err := p.cursors.Upsert(ctx, annotatorID, index, p.now()); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// GetProgress returns the stored cursor, or 0 for an annotator who has
// never saved one.
func (p *Progress) GetProgress(ctx context.Context, annotatorID int64) (int, error) {
	cur, err := p.cursors.Get(ctx, annotatorID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get progress: %w", err)
	}
	return cur.Index, nil
}

// ListTasks returns the task list in cursor order.
func (p *Progress) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := p.tasks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ImportTasks appends tasks after the current last position.
func (p *Progress) ImportTasks(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("import tasks: empty batch: %w", repository.ErrInvalidArgument)
	}
	out, err := p.tasks.Append(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("import tasks: %w", err)
	}
	return out, nil
}
