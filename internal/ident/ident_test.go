package ident

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/annotation-tracker/internal/repository"
)

// sequence returns a source that yields the given offsets in order.
func sequence(offsets ...int64) func(int64) int64 {
	i := 0
	return func(n int64) int64 {
		v := offsets[i%len(offsets)]
		i++
		return v % n
	}
}

func TestKindRange(t *testing.T) {
	lo, hi := KindAnnotator.Range()
	assert.Equal(t, int64(100), lo)
	assert.Equal(t, int64(999), hi)

	lo, hi = KindAnnotation.Range()
	assert.Equal(t, int64(100000), lo)
	assert.Equal(t, int64(999999), hi)
}

func TestGenerate_SkipsTakenValues(t *testing.T) {
	g := NewWithSource(sequence(0, 0, 5))
	taken := map[int64]bool{100: true}

	calls := 0
	id, err := g.Generate(context.Background(), KindAnnotator, func(_ context.Context, id int64) (bool, error) {
		calls++
		return taken[id], nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(105), id)
	assert.Equal(t, 3, calls)
}

func TestGenerate_PropagatesExistsError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New().Generate(context.Background(), KindAnnotation, func(context.Context, int64) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Generate(ctx, KindAnnotator, func(context.Context, int64) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAllocate_RetriesOnDuplicateID(t *testing.T) {
	g := NewWithSource(sequence(1, 2))
	free := func(context.Context, int64) (bool, error) { return false, nil }

	var tried []int64
	id, err := g.Allocate(context.Background(), KindAnnotation, free, func(_ context.Context, id int64) error {
		tried = append(tried, id)
		if len(tried) == 1 {
			return repository.ErrDuplicateID
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100002), id)
	assert.Equal(t, []int64{100001, 100002}, tried)
}

func TestAllocate_DoesNotRetryOtherErrors(t *testing.T) {
	free := func(context.Context, int64) (bool, error) { return false, nil }
	calls := 0
	_, err := New().Allocate(context.Background(), KindAnnotation, free, func(context.Context, int64) error {
		calls++
		return repository.ErrConflict
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 1, calls)
}

func TestAllocate_ConcurrentCallersNeverShareAnID(t *testing.T) {
	g := New()
	var mu sync.Mutex
	issued := map[int64]bool{}

	exists := func(_ context.Context, id int64) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		return issued[id], nil
	}
	insert := func(_ context.Context, id int64) error {
		mu.Lock()
		defer mu.Unlock()
		if issued[id] {
			return repository.ErrDuplicateID
		}
		issued[id] = true
		return nil
	}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Allocate(context.Background(), KindAnnotator, exists, insert)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, issued, workers)
}

func TestValidAnnotationID(t *testing.T) {
	cases := map[string]bool{
		"100000":  true,
		"999999":  true,
		"482913":  true,
		"099999":  false,
		"12345":   false,
		"1234567": false,
		"12a456":  false,
		"":        false,
		"+12345":  false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidAnnotationID(in), in)
	}
}
