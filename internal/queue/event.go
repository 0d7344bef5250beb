// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair for the annotation audit trail.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/annotation-tracker/internal/model"
)

// AuditQueueName is the durable queue carrying annotation events.
const AuditQueueName = "annotation.events"

// Event types published by the lifecycle.
const (
    EventSubmitted = "submitted"
    EventSkipped   = "skipped"
    EventUpdated   = "updated"
    EventDeleted   = "deleted"
    EventPurged    = "purged"
)

// AnnotationEvent is published after every successful lifecycle write.
// It carries enough for the audit log without querying the database.
// Count is only set for purge events.
type AnnotationEvent struct {
    EventID        string `json:"event_id"`
    Type           string `json:"type"`
    AnnotationID   string `json:"annotation_id,omitempty"`
    AnnotatorID    int64  `json:"annotator_id,omitempty"`
    AnnotatorEmail string `json:"annotator_email,omitempty"`
    SrcText        string `json:"src_text,omitempty"`
    Skipped        bool   `json:"skipped"`
    Reviewed       bool   `json:"reviewed"`
    Count          int64  `json:"count,omitempty"`
    OccurredAt     string `json:"occurred_at"`
}

// NewAnnotationEvent describes a write to a single record.
func NewAnnotationEvent(typ string, a model.Annotation, at time.Time) AnnotationEvent {
    return AnnotationEvent{
        EventID:        uuid.NewString(),
        Type:           typ,
        AnnotationID:   a.ID,
        AnnotatorID:    a.AnnotatorID,
        AnnotatorEmail: a.AnnotatorEmail,
        SrcText:        a.SrcText,
        Skipped:        a.Skipped,
        Reviewed:       a.Reviewed,
        OccurredAt:     at.UTC().Format(time.RFC3339),
    }
}

// NewPurgeEvent describes a bulk delete.
func NewPurgeEvent(count int64, at time.Time) AnnotationEvent {
    return AnnotationEvent{
        EventID:    uuid.NewString(),
        Type:       EventPurged,
        Count:      count,
        OccurredAt: at.UTC().Format(time.RFC3339),
    }
}
