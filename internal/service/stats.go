package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/iliyamo/annotation-tracker/internal/model"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

// DefaultWindowDays is used when a caller asks for a non-positive window.
const DefaultWindowDays = 7

// StatsStore is the read side the aggregations run on.
type StatsStore interface {
	Count(ctx context.Context, f repository.CountFilter) (int, error)
	CreatedSince(ctx context.Context, since time.Time) ([]model.Annotation, error)
}

// AnnotatorCounter counts registered accounts.
type AnnotatorCounter interface {
	Count(ctx context.Context) (int, error)
}

// Summary is the headline block of the dashboard.
type Summary struct {
	TotalAnnotations   int `json:"totalAnnotations"`
	AnnotatorCount     int `json:"annotatorCount"`
	AnnotationsPerUser int `json:"annotationsPerUser"`
}

// Dashboard is the full statistics payload.
type Dashboard struct {
	Summary
	AnnotationsByDay []model.DailyPoint `json:"annotationsByDay"`
	ErrorByDay       []model.DailyValue `json:"errorByDay"`
	WindowDays       int                `json:"windowDays"`
}

// Stats computes aggregates over the annotation store. Reads are not
// taken from a common snapshot.
type Stats struct {
	annotations StatsStore
	annotators  AnnotatorCounter
	now         func() time.Time
}

func NewStats(annotations StatsStore, annotators AnnotatorCounter) *Stats {
	return &Stats{annotations: annotations, annotators: annotators, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source.
func (s *Stats) WithClock(now func() time.Time) *Stats {
	s.now = now
	return s
}

// Summary returns totals and the rounded per-annotator average.
func (s *Stats) Summary(ctx context.Context) (Summary, error) {
	total, err := s.annotations.Count(ctx, repository.CountFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	users, err := s.annotators.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: count annotators: %w", err)
	}
	out := Summary{TotalAnnotations: total, AnnotatorCount: users}
	if users > 0 {
		out.AnnotationsPerUser = int(math.Floor(float64(total)/float64(users) + 0.5))
	}
	return out, nil
}

// DailyVolume counts records per UTC day over the window ending today.
// Days without records are omitted.
func (s *Stats) DailyVolume(ctx context.Context, windowDays int) ([]model.DailyPoint, error) {
	recs, err := s.window(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("daily volume: %w", err)
	}
	byDay := bucket(recs, func(model.Annotation) int { return 1 })
	out := make([]model.DailyPoint, 0, len(byDay))
	for _, day := range sortedKeys(byDay) {
		out = append(out, model.DailyPoint{Date: day, Count: byDay[day]})
	}
	return out, nil
}

// DailyErrorVolume sums the four error counts per UTC day over the
// window ending today. Days without records are omitted.
func (s *Stats) DailyErrorVolume(ctx context.Context, windowDays int) ([]model.DailyValue, error) {
	recs, err := s.window(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("daily error volume: %w", err)
	}
	byDay := bucket(recs, model.Annotation.TotalErrors)
	out := make([]model.DailyValue, 0, len(byDay))
	for _, day := range sortedKeys(byDay) {
		out = append(out, model.DailyValue{Date: day, Value: byDay[day]})
	}
	return out, nil
}

// Dashboard assembles the summary and both series.
func (s *Stats) Dashboard(ctx context.Context, windowDays int) (Dashboard, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	sum, err := s.Summary(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	volume, err := s.DailyVolume(ctx, windowDays)
	if err != nil {
		return Dashboard{}, err
	}
	errs, err := s.DailyErrorVolume(ctx, windowDays)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Summary: sum, AnnotationsByDay: volume, ErrorByDay: errs, WindowDays: windowDays}, nil
}

// window loads the records created from the start of the first day of
// the window up to the end of today.
func (s *Stats) window(ctx context.Context, days int) ([]model.Annotation, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, -(days - 1))
	until := today.AddDate(0, 0, 1)

	recs, err := s.annotations.CreatedSince(ctx, from)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, r := range recs {
		if r.CreatedAt.Before(until) {
			out = append(out, r)
		}
	}
	return out, nil
}

func bucket(recs []model.Annotation, value func(model.Annotation) int) map[string]int {
	out := make(map[string]int)
	for _, r := range recs {
		out[r.CreatedAt.UTC().Format(model.DateLayout)] += value(r)
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
