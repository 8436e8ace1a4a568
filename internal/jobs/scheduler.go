package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"dogify/api/internal/storage"
)

const sweepBatchSize = 100

// Scheduler runs the hourly orphan-blob sweep. Entries that still fail
// to delete stay queued for the next pass.
type Scheduler struct {
	cron    *cron.Cron
	orphans *OrphanQueue
	store   storage.ObjectStore
	log     zerolog.Logger
}

func NewScheduler(orphans *OrphanQueue, store storage.ObjectStore, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		orphans: orphans,
		store:   store,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if s.orphans == nil || s.store == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	entries, err := s.orphans.pending(ctx, sweepBatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("orphan sweep: read queue failed")
		return
	}

	removed := 0
	for _, entry := range entries {
		if err := s.store.Remove(ctx, entry.Key); err != nil {
			s.log.Warn().Err(err).Str("key", entry.Key).Msg("orphan sweep: remove failed, keeping queued")
			continue
		}
		if err := s.orphans.ack(ctx, entry.StreamID); err != nil {
			s.log.Warn().Err(err).Str("key", entry.Key).Msg("orphan sweep: ack failed")
			continue
		}
		removed++
	}

	if len(entries) > 0 {
		s.log.Info().Int("queued", len(entries)).Int("removed", removed).Msg("orphan sweep complete")
	}
}
