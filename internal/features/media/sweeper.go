package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"media-store/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// OrphanSweeper periodically removes chunk sets whose metadata record is
// gone. Orphans appear when a process dies between writing chunks and
// committing the record; hard delete never leaves them (chunks go first),
// but a crashed upload can.
type OrphanSweeper struct {
	MediaRepo MediaRepository
	ChunkRepo ChunkRepository
	Logger    *zap.Logger
	Config    *config.Config

	scheduler *cron.Cron
}

func NewOrphanSweeper(mediaRepo MediaRepository, chunkRepo ChunkRepository, logger *zap.Logger, cfg *config.Config) *OrphanSweeper {
	return &OrphanSweeper{
		MediaRepo: mediaRepo,
		ChunkRepo: chunkRepo,
		Logger:    logger,
		Config:    cfg,
	}
}

// Sweep scans every file_id holding chunks and removes the sets with no
// metadata record. Returns the number of orphaned sets removed.
func (s *OrphanSweeper) Sweep(ctx context.Context) (int64, error) {
	fileIDs, err := s.ChunkRepo.DistinctFileIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("media: listing chunk file ids: %w", err)
	}

	var removed int64
	for _, fileID := range fileIDs {
		_, err := s.MediaRepo.Get(ctx, fileID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return removed, fmt.Errorf("media: checking record %s: %w", fileID.Hex(), err)
		}

		chunks, err := s.ChunkRepo.DeleteAll(ctx, fileID)
		if err != nil {
			return removed, fmt.Errorf("media: removing orphaned chunks for %s: %w", fileID.Hex(), err)
		}
		removed++
		s.Logger.Warn("removed orphaned chunk set",
			zap.String("file_id", fileID.Hex()), zap.Int64("chunks", chunks))
	}

	return removed, nil
}

func (s *OrphanSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		s.Logger.Error("orphan sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.Logger.Info("orphan sweep complete", zap.Int64("removed_sets", removed))
	}
}

// RegisterOrphanSweeper schedules the sweep on the configured cron
// expression and ties the scheduler to the application lifecycle.
func RegisterOrphanSweeper(lc fx.Lifecycle, s *OrphanSweeper) error {
	if s.Config.SweepSchedule == "" {
		s.Logger.Info("SWEEP_SCHEDULE not set, orphan sweep disabled")
		return nil
	}
	if _, err := cron.ParseStandard(s.Config.SweepSchedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.Config.SweepSchedule, err)
	}

	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(s.Config.SweepSchedule, s.run); err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.scheduler.Start()
			s.Logger.Info("orphan sweep scheduled", zap.String("schedule", s.Config.SweepSchedule))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := s.scheduler.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})

	return nil
}
