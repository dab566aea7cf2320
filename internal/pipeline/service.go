package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"booksdash/internal/dataset"
	"booksdash/internal/warehouse"
)

type Config struct {
	DatasetDir    string
	WarehousePath string
	SkipDownload  bool
	Force         bool
}

// Downloader fetches raw dataset files from the mirror.
type Downloader interface {
	DownloadFile(ctx context.Context, name, destPath string) error
}

type Service struct {
	downloader Downloader
	repo       warehouse.Writer
	cfg        Config
}

func NewService(downloader Downloader, repo warehouse.Writer, cfg Config) *Service {
	return &Service{
		downloader: downloader,
		repo:       repo,
		cfg:        cfg,
	}
}

// Run executes the full prepare pipeline: download, parse, aggregate,
// persist, export. The run is recorded in the warehouse runs table and
// finalized even when a stage fails.
func (s *Service) Run(ctx context.Context) (err error) {
	if !s.cfg.Force && OutputsReady(s.cfg.DatasetDir) {
		log.Println("Dataset artifacts already present. Use -force to recompute.")
		return nil
	}

	run := &warehouse.Run{
		Status:        "RUNNING",
		StartedAt:     time.Now(),
		DatasetDir:    s.cfg.DatasetDir,
		WarehousePath: s.cfg.WarehousePath,
	}
	runID, rErr := s.repo.CreateRun(ctx, run)
	if rErr != nil {
		return rErr
	}
	run.ID = runID

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if err != nil && run.Error == "" {
			run.Error = err.Error()
		}

		if run.Error != "" {
			run.Status = "FAILED"
		} else {
			run.Status = "COMPLETED"
		}
		if updateErr := s.repo.UpdateRun(ctx, run); updateErr != nil {
			log.Printf("Failed to update run %s: %v", run.ID, updateErr)
		}
	}()

	if !s.cfg.SkipDownload {
		log.Println("Downloading raw dataset files...")
		if err = s.downloader.DownloadFile(ctx, MetadataFile, MetadataPath(s.cfg.DatasetDir)); err != nil {
			return err
		}
		if err = s.downloader.DownloadFile(ctx, ReviewsFile, ReviewsPath(s.cfg.DatasetDir)); err != nil {
			return err
		}
	}

	meta, reviews, err := s.parse()
	if err != nil {
		return err
	}
	run.MetadataRows = len(meta)
	run.ReviewRows = len(reviews)
	log.Printf("Parsed %d metadata rows, %d review rows", len(meta), len(reviews))

	agg := Aggregate(meta, reviews)
	run.CleanRows = len(agg.Reviews)
	log.Printf("Aggregated %d scorecard years, %d genre rows, %d clean reviews",
		len(agg.Scorecard), len(agg.Genres), len(agg.Reviews))

	if err = s.persist(ctx, agg); err != nil {
		return err
	}

	if err = Export(s.cfg.DatasetDir, agg); err != nil {
		return err
	}
	log.Printf("Exported %d CSV artifacts to %s", len(Artifacts), s.cfg.DatasetDir)

	return nil
}

func (s *Service) parse() ([]dataset.Metadata, []dataset.Review, error) {
	mf, err := os.Open(MetadataPath(s.cfg.DatasetDir))
	if err != nil {
		return nil, nil, fmt.Errorf("open metadata csv: %w", err)
	}
	defer mf.Close()

	meta, err := dataset.ReadMetadata(mf)
	if err != nil {
		return nil, nil, err
	}

	rf, err := os.Open(ReviewsPath(s.cfg.DatasetDir))
	if err != nil {
		return nil, nil, fmt.Errorf("open reviews csv: %w", err)
	}
	defer rf.Close()

	reviews, err := dataset.ReadReviews(rf)
	if err != nil {
		return nil, nil, err
	}
	return meta, reviews, nil
}

func (s *Service) persist(ctx context.Context, agg Aggregates) error {
	steps := []struct {
		table string
		fn    func() error
	}{
		{"scorecard", func() error { return s.repo.ReplaceScorecard(ctx, agg.Scorecard) }},
		{"genres", func() error { return s.repo.ReplaceGenres(ctx, agg.Genres) }},
		{"formats", func() error { return s.repo.ReplaceFormats(ctx, agg.Formats) }},
		{"top_books", func() error { return s.repo.ReplaceTopBooks(ctx, agg.TopBooks) }},
		{"top_authors", func() error { return s.repo.ReplaceTopAuthors(ctx, agg.TopAuthors) }},
		{"top_publishers", func() error { return s.repo.ReplaceTopPublishers(ctx, agg.TopPublishers) }},
		{"reviews_clean", func() error { return s.repo.ReplaceReviews(ctx, agg.Reviews) }},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("persist %s: %w", step.table, err)
		}
		log.Printf("Persisted table %s", step.table)
	}
	return nil
}
