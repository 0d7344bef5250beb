package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/annotation-tracker/internal/database"
	"github.com/iliyamo/annotation-tracker/internal/ident"
	"github.com/iliyamo/annotation-tracker/internal/queue"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.AnnotationEvent
}

func (r *recorder) Publish(_ context.Context, ev queue.AnnotationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db     *sqlx.DB
	repo   *repository.AnnotationRepo
	events *recorder
	life   *Lifecycle
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	f := &fixture{
		db:     db,
		repo:   repository.NewAnnotationRepo(db),
		events: &recorder{},
		now:    time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
	}
	f.life = NewLifecycle(f.repo, ident.New(), f.events).WithClock(func() time.Time { return f.now })
	return f
}

var (
	alice = Actor{ID: 101, Email: "alice@example.com", Role: "annotator"}
	bob   = Actor{ID: 102, Email: "bob@example.com", Role: "annotator"}
	admin = Actor{ID: 900, Email: "root@example.com", Role: "admin"}
)
