// Package service holds the annotation domain logic that sits between
// the HTTP handlers and the repositories: the record lifecycle, the
// per-annotator progress cursor, aggregate statistics and accounts.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/iliyamo/annotation-tracker/internal/ident"
	"github.com/iliyamo/annotation-tracker/internal/metrics"
	"github.com/iliyamo/annotation-tracker/internal/model"
	"github.com/iliyamo/annotation-tracker/internal/queue"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

// AnnotationStore is the persistence the lifecycle needs.
// *repository.AnnotationRepo satisfies it.
type AnnotationStore interface {
	Insert(ctx context.Context, a *model.Annotation) error
	Exists(ctx context.Context, id string) (bool, error)
	ExistsForOwner(ctx context.Context, annotatorID int64, id string) (bool, error)
	Get(ctx context.Context, id string) (model.Annotation, error)
	FindByOwnerAndText(ctx context.Context, annotatorID int64, srcText string) (model.Annotation, error)
	Save(ctx context.Context, a *model.Annotation) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	ListByOwner(ctx context.Context, annotatorID int64) ([]model.Annotation, error)
	ListAll(ctx context.Context) ([]model.Annotation, error)
	Count(ctx context.Context, f repository.CountFilter) (int, error)
}

// EventPublisher receives one event per successful write.
// *queue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AnnotationEvent) error
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	ID    int64
	Email string
	Role  string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// Submission is the payload of a new judgment. AnnotationID is only
// used to detect resubmission of a record the caller already owns.
type Submission struct {
	AnnotationID   string  `json:"Annotation_ID"`
	SrcText        string  `json:"Src_Text" validate:"required"`
	SrcLang        string  `json:"Src_lang"`
	TargetLang     string  `json:"Target_lang"`
	Comment        string  `json:"Comment"`
	Score          float64 `json:"Score"`
	Omission       int     `json:"Omission" validate:"min=0"`
	Addition       int     `json:"Addition" validate:"min=0"`
	Mistranslation int     `json:"Mistranslation" validate:"min=0"`
	Untranslation  int     `json:"Untranslation" validate:"min=0"`
	SrcIssue       string  `json:"Src_Issue"`
	TargetIssue    string  `json:"Target_Issue"`
}

// Patch carries the fields of an update. Nil fields are left as stored.
type Patch struct {
	SrcText        *string  `json:"Src_Text"`
	SrcLang        *string  `json:"Src_lang"`
	TargetLang     *string  `json:"Target_lang"`
	Comment        *string  `json:"Comment"`
	Score          *float64 `json:"Score"`
	Omission       *int     `json:"Omission" validate:"omitempty,min=0"`
	Addition       *int     `json:"Addition" validate:"omitempty,min=0"`
	Mistranslation *int     `json:"Mistranslation" validate:"omitempty,min=0"`
	Untranslation  *int     `json:"Untranslation" validate:"omitempty,min=0"`
	SrcIssue       *string  `json:"Src_Issue"`
	TargetIssue    *string  `json:"Target_Issue"`
	Reviewed       *bool    `json:"reviewed"`
	Skipped        *bool    `json:"Skipped"`
}

// Lifecycle owns every state transition of an annotation record.
type Lifecycle struct {
	store  AnnotationStore
	events EventPublisher
	ids    *ident.Generator
	now    func() time.Time
}

// NewLifecycle wires a lifecycle. events may be nil.
func NewLifecycle(store AnnotationStore, ids *ident.Generator, events EventPublisher) *Lifecycle {
	return &Lifecycle{
		store:  store,
		events: events,
		ids:    ids,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

// Submit stores a new judgment for the actor. A second submission for
// the same source text, or one naming an identifier the actor already
// owns, fails with repository.ErrConflict.
func (l *Lifecycle) Submit(ctx context.Context, actor Actor, in Submission) (model.Annotation, error) {
	rec, err := l.submit(ctx, actor, in)
	observe("submit", err)
	return rec, err
}

func (l *Lifecycle) submit(ctx context.Context, actor Actor, in Submission) (model.Annotation, error) {
	src := strings.TrimSpace(in.SrcText)
	if actor.ID == 0 || src == "" {
		return model.Annotation{}, fmt.Errorf("submit: annotator and source text are required: %w", repository.ErrInvalidArgument)
	}
	if in.Omission < 0 || in.Addition < 0 || in.Mistranslation < 0 || in.Untranslation < 0 {
		return model.Annotation{}, fmt.Errorf("submit: error counts must be non-negative: %w", repository.ErrInvalidArgument)
	}

	if id := strings.TrimSpace(in.AnnotationID); id != "" {
		owned, err := l.store.ExistsForOwner(ctx, actor.ID, id)
		if err != nil {
			return model.Annotation{}, fmt.Errorf("submit: %w", err)
		}
		if owned {
			return model.Annotation{}, fmt.Errorf("submit: annotation %s already exists: %w", id, repository.ErrConflict)
		}
	}

	now := l.now()
	rec := model.Annotation{
		AnnotatorID:    actor.ID,
		AnnotatorEmail: actor.Email,
		SrcText:        src,
		SrcLang:        orDefault(in.SrcLang, model.DefaultSrcLang),
		TargetLang:     orDefault(in.TargetLang, model.DefaultTargetLang),
		Comment:        in.Comment,
		Score:          in.Score,
		Omission:       in.Omission,
		Addition:       in.Addition,
		Mistranslation: in.Mistranslation,
		Untranslation:  in.Untranslation,
		SrcIssue:       in.SrcIssue,
		TargetIssue:    in.TargetIssue,
		Reviewed:       false,
		Skipped:        false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.create(ctx, &rec); err != nil {
		return model.Annotation{}, fmt.Errorf("submit: %w", err)
	}
	l.publish(ctx, queue.NewAnnotationEvent(queue.EventSubmitted, rec, now))
	return rec, nil
}

// Skip marks the actor's record for srcText as skipped, creating a
// zeroed record when none exists. Repeating a skip changes nothing.
func (l *Lifecycle) Skip(ctx context.Context, actor Actor, srcText string) (model.Annotation, error) {
	rec, err := l.skip(ctx, actor, srcText)
	observe("skip", err)
	return rec, err
}

func (l *Lifecycle) skip(ctx context.Context, actor Actor, srcText string) (model.Annotation, error) {
	src := strings.TrimSpace(srcText)
	if actor.ID == 0 || src == "" {
		return model.Annotation{}, fmt.Errorf("skip: annotator and source text are required: %w", repository.ErrInvalidArgument)
	}

	// A concurrent skip or submit for the same text can win the insert;
	// the second pass then finds its record.
	for attempt := 0; attempt < 2; attempt++ {
		rec, err := l.store.FindByOwnerAndText(ctx, actor.ID, src)
		switch {
		case err == nil:
			if rec.Skipped {
				return rec, nil
			}
			now := l.now()
			rec.Skipped = true
			rec.UpdatedAt = now
			if err := l.store.Save(ctx, &rec); err != nil {
				return model.Annotation{}, fmt.Errorf("skip: %w", err)
			}
			l.publish(ctx, queue.NewAnnotationEvent(queue.EventSkipped, rec, now))
			return rec, nil
		case !errors.Is(err, repository.ErrNotFound):
			return model.Annotation{}, fmt.Errorf("skip: %w", err)
		}

		now := l.now()
		rec = model.Annotation{
			AnnotatorID:    actor.ID,
			AnnotatorEmail: actor.Email,
			SrcText:        src,
			SrcLang:        model.DefaultSrcLang,
			TargetLang:     model.DefaultTargetLang,
			Skipped:        true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err = l.create(ctx, &rec)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return model.Annotation{}, fmt.Errorf("skip: %w", err)
		}
		l.publish(ctx, queue.NewAnnotationEvent(queue.EventSkipped, rec, now))
		return rec, nil
	}
	return model.Annotation{}, fmt.Errorf("skip: record for source text changed concurrently: %w", repository.ErrConflict)
}

// Update applies a patch to a record owned by the actor. Admins may
// update any record.
func (l *Lifecycle) Update(ctx context.Context, id string, actor Actor, p Patch) (model.Annotation, error) {
	rec, err := l.update(ctx, id, actor, p)
	observe("update", err)
	return rec, err
}

func (l *Lifecycle) update(ctx context.Context, id string, actor Actor, p Patch) (model.Annotation, error) {
	if !ident.ValidAnnotationID(id) {
		return model.Annotation{}, fmt.Errorf("update: malformed annotation id %q: %w", id, repository.ErrInvalidArgument)
	}
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return model.Annotation{}, fmt.Errorf("update %s: %w", id, err)
	}
	if rec.AnnotatorID != actor.ID && !actor.IsAdmin() {
		return model.Annotation{}, fmt.Errorf("update %s: %w", id, repository.ErrForbidden)
	}
	if err := p.apply(&rec); err != nil {
		return model.Annotation{}, fmt.Errorf("update %s: %w", id, err)
	}
	rec.UpdatedAt = l.now()
	if err := l.store.Save(ctx, &rec); err != nil {
		return model.Annotation{}, fmt.Errorf("update %s: %w", id, err)
	}
	l.publish(ctx, queue.NewAnnotationEvent(queue.EventUpdated, rec, rec.UpdatedAt))
	return rec, nil
}

func (p Patch) apply(rec *model.Annotation) error {
	if p.SrcText != nil {
		src := strings.TrimSpace(*p.SrcText)
		if src == "" {
			return fmt.Errorf("source text cannot be blank: %w", repository.ErrInvalidArgument)
		}
		rec.SrcText = src
	}
	for _, n := range []*int{p.Omission, p.Addition, p.Mistranslation, p.Untranslation} {
		if n != nil && *n < 0 {
			return fmt.Errorf("error counts must be non-negative: %w", repository.ErrInvalidArgument)
		}
	}
	setString(&rec.SrcLang, p.SrcLang)
	setString(&rec.TargetLang, p.TargetLang)
	setString(&rec.Comment, p.Comment)
	setString(&rec.SrcIssue, p.SrcIssue)
	setString(&rec.TargetIssue, p.TargetIssue)
	if p.Score != nil {
		rec.Score = *p.Score
	}
	setInt(&rec.Omission, p.Omission)
	setInt(&rec.Addition, p.Addition)
	setInt(&rec.Mistranslation, p.Mistranslation)
	setInt(&rec.Untranslation, p.Untranslation)
	if p.Reviewed != nil {
		rec.Reviewed = *p.Reviewed
	}
	if p.Skipped != nil {
		rec.Skipped = *p.Skipped
	}
	return nil
}

// Delete removes one record owned by requesterID and returns it.
func (l *Lifecycle) Delete(ctx context.Context, id string, requesterID int64) (model.Annotation, error) {
	rec, err := l.delete(ctx, id, requesterID)
	observe("delete", err)
	return rec, err
}

func (l *Lifecycle) delete(ctx context.Context, id string, requesterID int64) (model.Annotation, error) {
	if !ident.ValidAnnotationID(id) {
		return model.Annotation{}, fmt.Errorf("delete: malformed annotation id %q: %w", id, repository.ErrInvalidArgument)
	}
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return model.Annotation{}, fmt.Errorf("delete %s: %w", id, err)
	}
	if rec.AnnotatorID != requesterID {
		return model.Annotation{}, fmt.Errorf("delete %s: %w", id, repository.ErrForbidden)
	}
	if err := l.store.Delete(ctx, id); err != nil {
		return model.Annotation{}, fmt.Errorf("delete %s: %w", id, err)
	}
	l.publish(ctx, queue.NewAnnotationEvent(queue.EventDeleted, rec, l.now()))
	return rec, nil
}

// DeleteAll removes every record and reports how many were removed.
// Callers are responsible for restricting it to administrators.
func (l *Lifecycle) DeleteAll(ctx context.Context) (int64, error) {
	n, err := l.store.DeleteAll(ctx)
	observe("delete_all", err)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	l.publish(ctx, queue.NewPurgeEvent(n, l.now()))
	return n, nil
}

// ListMine returns the annotator's records.
func (l *Lifecycle) ListMine(ctx context.Context, annotatorID int64) ([]model.Annotation, error) {
	recs, err := l.store.ListByOwner(ctx, annotatorID)
	if err != nil {
		return nil, fmt.Errorf("list annotations of %d: %w", annotatorID, err)
	}
	return recs, nil
}

// ListAssigned returns the annotator's records in the assigned view.
func (l *Lifecycle) ListAssigned(ctx context.Context, annotatorID int64) ([]model.AssignedItem, error) {
	recs, err := l.ListMine(ctx, annotatorID)
	if err != nil {
		return nil, err
	}
	out := make([]model.AssignedItem, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Assigned())
	}
	return out, nil
}

// ListAll returns every record in export order.
func (l *Lifecycle) ListAll(ctx context.Context) ([]model.Annotation, error) {
	recs, err := l.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	return recs, nil
}

// PendingCount counts the annotator's records not yet reviewed.
func (l *Lifecycle) PendingCount(ctx context.Context, annotatorID int64) (int, error) {
	return l.store.Count(ctx, repository.CountFilter{AnnotatorID: annotatorID, PendingOnly: true})
}

// MyCount counts all of the annotator's records.
func (l *Lifecycle) MyCount(ctx context.Context, annotatorID int64) (int, error) {
	return l.store.Count(ctx, repository.CountFilter{AnnotatorID: annotatorID})
}

// create allocates an identifier and inserts rec under it.
func (l *Lifecycle) create(ctx context.Context, rec *model.Annotation) error {
	exists := func(ctx context.Context, id int64) (bool, error) {
		return l.store.Exists(ctx, ident.FormatAnnotationID(id))
	}
	insert := func(ctx context.Context, id int64) error {
		rec.ID = ident.FormatAnnotationID(id)
		return l.store.Insert(ctx, rec)
	}
	_, err := l.ids.Allocate(ctx, ident.KindAnnotation, exists, insert)
	if err != nil {
		rec.ID = ""
	}
	return err
}

func (l *Lifecycle) publish(ctx context.Context, ev queue.AnnotationEvent) {
	if l.events == nil {
		return
	}
	if err := l.events.Publish(ctx, ev); err != nil {
		logger.Error.Printf("audit: %s event for %q not published: %v", ev.Type, ev.AnnotationID, err)
	}
}

func observe(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrConflict):
		outcome = "conflict"
	case errors.Is(err, repository.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, repository.ErrForbidden):
		outcome = "forbidden"
	case errors.Is(err, repository.ErrInvalidArgument):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	metrics.LifecycleTotal.WithLabelValues(op, outcome).Inc()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
