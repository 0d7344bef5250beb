package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/annotation-tracker/internal/model"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

type statsFixture struct {
	annotations *repository.AnnotationRepo
	users       *repository.UserRepo
	stats       *Stats
	seq         int
}

func newStatsFixture(t *testing.T, today time.Time) *statsFixture {
	db := newTestDB(t)
	f := &statsFixture{
		annotations: repository.NewAnnotationRepo(db),
		users:       repository.NewUserRepo(db),
	}
	f.stats = NewStats(f.annotations, f.users).WithClock(func() time.Time { return today })
	return f
}

func (f *statsFixture) add(t *testing.T, owner int64, at time.Time, errs int) {
	t.Helper()
	f.seq++
	rec := &model.Annotation{
		ID:          ident6(f.seq),
		AnnotatorID: owner,
		SrcText:     "text " + ident6(f.seq),
		Omission:    errs,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	require.NoError(t, f.annotations.Insert(context.Background(), rec))
}

func (f *statsFixture) user(t *testing.T, id int64) {
	t.Helper()
	name := ident6(int(id))
	require.NoError(t, f.users.Create(context.Background(), &model.Annotator{
		ID: id, Name: name, Email: name + "@example.com", PasswordHash: "x", Role: model.RoleAnnotator,
	}))
}

func ident6(n int) string { return fmt.Sprintf("%06d", 100000+n) }

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestDailyVolume_SparseAndSorted(t *testing.T) {
	f := newStatsFixture(t, day(2024, 1, 3, 15))
	f.add(t, 101, day(2024, 1, 3, 9), 0)
	f.add(t, 101, day(2024, 1, 1, 8), 0)
	f.add(t, 102, day(2024, 1, 1, 20), 0)

	got, err := f.stats.DailyVolume(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []model.DailyPoint{
		{Date: "2024-01-01", Count: 2},
		{Date: "2024-01-03", Count: 1},
	}, got)
}

func TestDailyVolume_WindowBounds(t *testing.T) {
	f := newStatsFixture(t, day(2024, 1, 10, 12))
	f.add(t, 101, day(2024, 1, 3, 23), 0)  // before the window
	f.add(t, 101, day(2024, 1, 4, 0), 0)   // first day of a 7-day window
	f.add(t, 101, day(2024, 1, 10, 23), 0) // later today
	f.add(t, 101, day(2024, 1, 11, 0), 0)  // tomorrow

	got, err := f.stats.DailyVolume(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []model.DailyPoint{
		{Date: "2024-01-04", Count: 1},
		{Date: "2024-01-10", Count: 1},
	}, got)

	got, err = f.stats.DailyVolume(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []model.DailyPoint{{Date: "2024-01-10", Count: 1}}, got)
}

func TestDailyErrorVolume_SumsErrorCounts(t *testing.T) {
	f := newStatsFixture(t, day(2024, 1, 3, 15))
	f.add(t, 101, day(2024, 1, 2, 9), 2)
	f.add(t, 102, day(2024, 1, 2, 10), 3)
	f.add(t, 102, day(2024, 1, 3, 10), 0)

	got, err := f.stats.DailyErrorVolume(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []model.DailyValue{
		{Date: "2024-01-02", Value: 5},
		{Date: "2024-01-03", Value: 0},
	}, got)
}

func TestSummary_RoundsAverage(t *testing.T) {
	f := newStatsFixture(t, day(2024, 1, 3, 15))
	ctx := context.Background()

	sum, err := f.stats.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)

	f.user(t, 101)
	f.user(t, 102)
	for i := 0; i < 5; i++ {
		f.add(t, 101, day(2024, 1, 1, i), 0)
	}

	sum, err = f.stats.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalAnnotations: 5, AnnotatorCount: 2, AnnotationsPerUser: 3}, sum)
}

func TestDashboard_DefaultsWindow(t *testing.T) {
	f := newStatsFixture(t, day(2024, 1, 3, 15))
	f.add(t, 101, day(2024, 1, 3, 9), 1)

	d, err := f.stats.Dashboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowDays, d.WindowDays)
	assert.Equal(t, 1, d.TotalAnnotations)
	assert.Len(t, d.AnnotationsByDay, 1)
	assert.Equal(t, []model.DailyValue{{Date: "2024-01-03", Value: 1}}, d.ErrorByDay)
}
