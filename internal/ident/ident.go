// Package ident draws short, human-readable numeric identifiers for
// annotators and annotation records.
//
// A draw is checked against the store before use, but that check is not
// atomic with the insert that follows. The insert is the real guard: when
// it reports repository.ErrDuplicateID, Allocate draws again.
package ident

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/iliyamo/annotation-tracker/internal/metrics"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

// Kind selects the identifier range.
type Kind int

const (
	// KindAnnotator draws 3-digit account identifiers.
	KindAnnotator Kind = iota
	// KindAnnotation draws 6-digit record identifiers.
	KindAnnotation
)

// Range returns the inclusive bounds of the kind.
func (k Kind) Range() (lo, hi int64) {
	switch k {
	case KindAnnotator:
		return 100, 999
	default:
		return 100000, 999999
	}
}

func (k Kind) String() string {
	if k == KindAnnotator {
		return "annotator"
	}
	return "annotation"
}

// ExistsFunc reports whether an identifier is already taken.
type ExistsFunc func(ctx context.Context, id int64) (bool, error)

// InsertFunc persists a record under id. It must return
// repository.ErrDuplicateID when id was taken concurrently.
type InsertFunc func(ctx context.Context, id int64) error

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd func(n int64) int64
}

// New returns a Generator backed by the runtime's random source.
func New() *Generator {
	return &Generator{rnd: rand.Int64N}
}

// NewWithSource returns a Generator drawing from src, which must return
// a value in [0, n). Used to make collisions reproducible in tests.
func NewWithSource(src func(n int64) int64) *Generator {
	return &Generator{rnd: src}
}

func (g *Generator) draw(k Kind) int64 {
	lo, hi := k.Range()
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rnd(hi-lo+1)
}

// Generate draws until exists reports a free value. There is no retry
// cap; the loop ends on a free value, an exists error or ctx expiry.
func (g *Generator) Generate(ctx context.Context, k Kind, exists ExistsFunc) (int64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		id := g.draw(k)
		taken, err := exists(ctx, id)
		if err != nil {
			return 0, err
		}
		if !taken {
			return id, nil
		}
		metrics.IdentifierRetries.WithLabelValues(k.String()).Inc()
	}
}

// Allocate generates an identifier and inserts under it, drawing again
// whenever the insert loses a race for the same value.
func (g *Generator) Allocate(ctx context.Context, k Kind, exists ExistsFunc, insert InsertFunc) (int64, error) {
	for {
		id, err := g.Generate(ctx, k, exists)
		if err != nil {
			return 0, err
		}
		err = insert(ctx, id)
		if errors.Is(err, repository.ErrDuplicateID) {
			metrics.IdentifierRetries.WithLabelValues(k.String()).Inc()
			continue
		}
		if err != nil {
			return 0, err
		}
		return id, nil
	}
}

// FormatAnnotationID renders a record identifier as stored.
func FormatAnnotationID(id int64) string { return strconv.FormatInt(id, 10) }

// ValidAnnotationID reports whether s is a well-formed record identifier:
// exactly six ASCII digits within the annotation range.
func ValidAnnotationID(s string) bool {
	if len(s) != 6 {
		return false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return false
	}
	lo, hi := KindAnnotation.Range()
	return n >= lo && n <= hi
}
