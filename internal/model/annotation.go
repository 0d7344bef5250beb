package model

import (
    "crypto/sha256"
    "encoding/hex"
    "strconv"
    "time"
)

// Default language pair applied when a submission leaves them blank.
const (
    DefaultSrcLang    = "English"
    DefaultTargetLang = "Somali"
)

// Display statuses derived for the assigned view.
const (
    StatusSkipped    = "Skipped"
    StatusCompleted  = "Completed"
    StatusInProgress = "In Progress"
)

// Annotation is one translation-quality judgment stored in the
// `annotations` table.  An annotator holds at most one record per
// source text; the store enforces this with a unique key over
// (annotator_id, src_hash).  AnnotatorEmail is a point-in-time copy
// of the owner's email and is not updated if the account changes.
//
// Fields:
//  ID             – annotations.annotation_id, 6-digit numeric string.
//  AnnotatorID    – owner of the record.
//  AnnotatorEmail – owner email at creation time.
//  SrcText        – source text being judged.
//  SrcHash        – SHA-256 hex of SrcText, backs the uniqueness key.
//  SrcLang        – source language.
//  TargetLang     – target language.
//  Comment        – free-text comment.
//  Score          – overall quality score.
//  Omission, Addition, Mistranslation, Untranslation – error counts.
//  SrcIssue       – issue description for the source side.
//  TargetIssue    – issue description for the target side.
//  Reviewed       – whether the judgment was reviewed.
//  Skipped        – whether the annotator skipped the text.
//  CreatedAt      – creation timestamp (UTC).
//  UpdatedAt      – last update timestamp (UTC).
type Annotation struct {
    ID             string    `db:"annotation_id" json:"Annotation_ID"`
    AnnotatorID    int64     `db:"annotator_id" json:"Annotator_ID"`
    AnnotatorEmail string    `db:"annotator_email" json:"Annotator_Email"`
    SrcText        string    `db:"src_text" json:"Src_Text"`
    SrcHash        string    `db:"src_hash" json:"-"`
    SrcLang        string    `db:"src_lang" json:"Src_lang"`
    TargetLang     string    `db:"target_lang" json:"Target_lang"`
    Comment        string    `db:"comment" json:"Comment"`
    Score          float64   `db:"score" json:"Score"`
    Omission       int       `db:"omission" json:"Omission"`
    Addition       int       `db:"addition" json:"Addition"`
    Mistranslation int       `db:"mistranslation" json:"Mistranslation"`
    Untranslation  int       `db:"untranslation" json:"Untranslation"`
    SrcIssue       string    `db:"src_issue" json:"Src_Issue"`
    TargetIssue    string    `db:"target_issue" json:"Target_Issue"`
    Reviewed       bool      `db:"reviewed" json:"reviewed"`
    Skipped        bool      `db:"skipped" json:"Skipped"`
    CreatedAt      time.Time `db:"created_at" json:"createdAt"`
    UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// HashSource returns the key used to enforce one record per
// annotator and source text.
func HashSource(text string) string {
    sum := sha256.Sum256([]byte(text))
    return hex.EncodeToString(sum[:])
}

// TotalErrors sums the four error-category counts.
func (a Annotation) TotalErrors() int {
    return a.Omission + a.Addition + a.Mistranslation + a.Untranslation
}

// Status derives the display status: skipped wins over reviewed.
func (a Annotation) Status() string {
    switch {
    case a.Skipped:
        return StatusSkipped
    case a.Reviewed:
        return StatusCompleted
    default:
        return StatusInProgress
    }
}

// DueDate is the UTC date portion of CreatedAt, or "N/A" when unset.
func (a Annotation) DueDate() string {
    if a.CreatedAt.IsZero() {
        return "N/A"
    }
    return a.CreatedAt.UTC().Format(DateLayout)
}

// DateLayout is the calendar-date format used for due dates and
// daily aggregation buckets.
const DateLayout = "2006-01-02"

// ExportFields is the canonical, ordered column set for every export
// format.
var ExportFields = []string{
    "Annotator_ID",
    "Annotator_Email",
    "Annotation_ID",
    "Comment",
    "Src_lang",
    "Target_lang",
    "Score",
    "Omission",
    "Addition",
    "Mistranslation",
    "Untranslation",
    "Src_Issue",
    "Target_Issue",
}

// ExportRow projects the record onto ExportFields, in order.
func (a Annotation) ExportRow() []string {
    return []string{
        strconv.FormatInt(a.AnnotatorID, 10),
        a.AnnotatorEmail,
        a.ID,
        a.Comment,
        a.SrcLang,
        a.TargetLang,
        strconv.FormatFloat(a.Score, 'f', -1, 64),
        strconv.Itoa(a.Omission),
        strconv.Itoa(a.Addition),
        strconv.Itoa(a.Mistranslation),
        strconv.Itoa(a.Untranslation),
        a.SrcIssue,
        a.TargetIssue,
    }
}

// AssignedItem is the view returned by the assigned listing.
type AssignedItem struct {
    ID     string `json:"id"`
    Source string `json:"source"`
    Due    string `json:"due"`
    Status string `json:"status"`
}

// Assigned builds the assigned-view projection of the record.
func (a Annotation) Assigned() AssignedItem {
    return AssignedItem{ID: a.ID, Source: a.SrcText, Due: a.DueDate(), Status: a.Status()}
}
