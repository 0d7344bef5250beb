package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/iliyamo/annotation-tracker/internal/model"
)

// Lister supplies the records of a snapshot in export order.
type Lister interface {
	ListAll(ctx context.Context) ([]model.Annotation, error)
}

// Snapshotter periodically writes every record to timestamped files.
type Snapshotter struct {
	src       Lister
	dir       string
	formats   []Format
	now       func() time.Time
	scheduler *gocron.Scheduler
}

// NewSnapshotter validates the formats up front so a bad setting fails
// at startup rather than on the first run.
func NewSnapshotter(src Lister, dir string, formatNames []string) (*Snapshotter, error) {
	if len(formatNames) == 0 {
		return nil, errors.New("no export formats configured")
	}
	formats := make([]Format, 0, len(formatNames))
	for _, name := range formatNames {
		f, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return &Snapshotter{
		src:     src,
		dir:     dir,
		formats: formats,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start schedules RunOnce on the cron expression and returns immediately.
func (s *Snapshotter) Start(schedule string) error {
	s.scheduler = gocron.NewScheduler(time.UTC)
	_, err := s.scheduler.Cron(schedule).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		paths, err := s.RunOnce(ctx)
		switch {
		case errors.Is(err, ErrNoData):
			logger.Info.Println("export: store is empty, nothing written")
		case err != nil:
			logger.Error.Printf("export: snapshot failed: %v", err)
		default:
			logger.Info.Printf("export: wrote %v", paths)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler.
func (s *Snapshotter) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce writes one file per configured format and returns their paths.
func (s *Snapshotter) RunOnce(ctx context.Context) ([]string, error) {
	recs, err := s.src.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNoData
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", s.dir, err)
	}

	stamp := s.now().Format("20060102-150405")
	paths := make([]string, 0, len(s.formats))
	for _, f := range s.formats {
		path := filepath.Join(s.dir, "annotations-"+stamp+f.Extension)
		if err := writeFile(path, f, recs); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, f Format, recs []model.Annotation) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Write(out, recs); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
