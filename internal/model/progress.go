package model

import "time"

// Progress is the per-annotator cursor into the ordered task list,
// stored in the `progress` table with one row per annotator.
//
// Fields:
//  AnnotatorID – owner of the cursor (primary key).
//  Index       – position of the last task the annotator reached.
//  UpdatedAt   – when the cursor was last written.
type Progress struct {
    AnnotatorID int64     `db:"annotator_id" json:"userId"`
    Index       int       `db:"last_index" json:"index"`
    UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Task is one source/reference text pair in the `tasks` table.  Tasks
// are served ordered by Position, which is what Progress.Index points
// into.
type Task struct {
    Position int    `db:"position" json:"position"`
    English  string `db:"english" json:"english" validate:"required"`
    Somali   string `db:"somali" json:"somali" validate:"required"`
}

// DailyPoint is one bucket of a day-grouped time series.
type DailyPoint struct {
    Date  string `json:"date"`
    Count int    `json:"count"`
}

// DailyValue is one bucket of a day-grouped sum.
type DailyValue struct {
    Date  string `json:"date"`
    Value int    `json:"value"`
}
