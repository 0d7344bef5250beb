package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/annotation-tracker/internal/model"
)

// AnnotationRepo provides persistence for annotation records. All
// timestamps are written by the caller in UTC. Uniqueness of the record
// identifier and of (annotator_id, src_hash) is enforced by the schema;
// inserts report the former as ErrDuplicateID and the latter as
// ErrConflict.
type AnnotationRepo struct {
	db *sqlx.DB
}

// NewAnnotationRepo returns a new AnnotationRepo bound to the given database.
func NewAnnotationRepo(db *sqlx.DB) *AnnotationRepo { return &AnnotationRepo{db: db} }

const annotationColumns = `annotation_id, annotator_id, annotator_email, src_text, src_hash,
	src_lang, target_lang, comment, score, omission, addition, mistranslation, untranslation,
	src_issue, target_issue, reviewed, skipped, created_at, updated_at`

// Insert stores a new record. SrcHash is derived from SrcText.
func (r *AnnotationRepo) Insert(ctx context.Context, a *model.Annotation) error {
	a.SrcHash = model.HashSource(a.SrcText)
	const q = `INSERT INTO annotations (` + annotationColumns + `) VALUES (
		:annotation_id, :annotator_id, :annotator_email, :src_text, :src_hash,
		:src_lang, :target_lang, :comment, :score, :omission, :addition, :mistranslation, :untranslation,
		:src_issue, :target_issue, :reviewed, :skipped, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, a)
	return annotationWriteErr(err)
}

// annotationWriteErr separates identifier collisions from collisions
// on the annotator/source-text key.
func annotationWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if desc, ok := uniqueViolation(err); ok {
		if keyIs(desc, "annotation_id", true) {
			return ErrDuplicateID
		}
		return ErrConflict
	}
	return classify(err)
}

// Exists reports whether the identifier is already taken.
func (r *AnnotationRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM annotations WHERE annotation_id = ?`), id)
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// ExistsForOwner reports whether the annotator owns a record with the
// given identifier.
func (r *AnnotationRepo) ExistsForOwner(ctx context.Context, annotatorID int64, id string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		r.db.Rebind(`SELECT COUNT(*) FROM annotations WHERE annotator_id = ? AND annotation_id = ?`),
		annotatorID, id)
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// Get loads a record by identifier. A missing record yields ErrNotFound.
func (r *AnnotationRepo) Get(ctx context.Context, id string) (model.Annotation, error) {
	var a model.Annotation
	err := r.db.GetContext(ctx, &a,
		r.db.Rebind(`SELECT `+annotationColumns+` FROM annotations WHERE annotation_id = ?`), id)
	return a, classify(err)
}

// FindByOwnerAndText loads the annotator's record for a source text.
func (r *AnnotationRepo) FindByOwnerAndText(ctx context.Context, annotatorID int64, srcText string) (model.Annotation, error) {
	var a model.Annotation
	err := r.db.GetContext(ctx, &a,
		r.db.Rebind(`SELECT `+annotationColumns+` FROM annotations WHERE annotator_id = ? AND src_hash = ?`),
		annotatorID, model.HashSource(srcText))
	return a, classify(err)
}

// Save writes every mutable column of an existing record. It returns
// ErrNotFound when the record vanished and ErrConflict when a changed
// source text collides with another record of the same annotator.
func (r *AnnotationRepo) Save(ctx context.Context, a *model.Annotation) error {
	a.SrcHash = model.HashSource(a.SrcText)
	const q = `UPDATE annotations SET
		annotator_email = :annotator_email, src_text = :src_text, src_hash = :src_hash,
		src_lang = :src_lang, target_lang = :target_lang, comment = :comment, score = :score,
		omission = :omission, addition = :addition, mistranslation = :mistranslation,
		untranslation = :untranslation, src_issue = :src_issue, target_issue = :target_issue,
		reviewed = :reviewed, skipped = :skipped, updated_at = :updated_at
		WHERE annotation_id = :annotation_id`
	res, err := r.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return annotationWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record by identifier.
func (r *AnnotationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM annotations WHERE annotation_id = ?`), id)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll clears the table and returns how many rows were removed.
func (r *AnnotationRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM annotations`)
	if err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// ListByOwner returns the annotator's records ordered by creation.
func (r *AnnotationRepo) ListByOwner(ctx context.Context, annotatorID int64) ([]model.Annotation, error) {
	out := []model.Annotation{}
	err := r.db.SelectContext(ctx, &out,
		r.db.Rebind(`SELECT `+annotationColumns+` FROM annotations WHERE annotator_id = ?
			ORDER BY created_at, annotation_id`), annotatorID)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ListAll returns every record ordered by creation, then identifier.
func (r *AnnotationRepo) ListAll(ctx context.Context) ([]model.Annotation, error) {
	out := []model.Annotation{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+annotationColumns+` FROM annotations ORDER BY created_at, annotation_id`)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// CreatedSince returns records created at or after since.
func (r *AnnotationRepo) CreatedSince(ctx context.Context, since time.Time) ([]model.Annotation, error) {
	out := []model.Annotation{}
	err := r.db.SelectContext(ctx, &out,
		r.db.Rebind(`SELECT `+annotationColumns+` FROM annotations WHERE created_at >= ?
			ORDER BY created_at, annotation_id`), since.UTC())
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Count returns the number of records, optionally restricted by a
// filter built with CountFilter.
func (r *AnnotationRepo) Count(ctx context.Context, f CountFilter) (int, error) {
	q := `SELECT COUNT(*) FROM annotations WHERE 1=1`
	var args []interface{}
	if f.AnnotatorID != 0 {
		q += ` AND annotator_id = ?`
		args = append(args, f.AnnotatorID)
	}
	if f.PendingOnly {
		q += ` AND reviewed = ?`
		args = append(args, false)
	}
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(q), args...); err != nil {
		return 0, fmt.Errorf("count annotations: %w", classify(err))
	}
	return n, nil
}

// CountFilter narrows Count. The zero value counts every record.
type CountFilter struct {
	AnnotatorID int64
	PendingOnly bool
}
