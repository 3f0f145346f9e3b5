package bootstrap

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
)

// Resyncer refreshes every open project view.
type Resyncer interface {
	ResyncAll(ctx context.Context) int
}

// Scheduler re-queries open views on a cron schedule, covering change
// notifications that were lost.
type Scheduler struct {
	c   *cron.Cron
	log *logging.Logger
}

func NewScheduler() *Scheduler {
	return &Scheduler{c: cron.New(), log: logging.Named("scheduler")}
}

// Start registers the resync job. An empty spec disables it.
func (s *Scheduler) Start(spec string, r Resyncer) error {
	if spec == "" {
		s.log.LogInfo("start", "view resync disabled")
		return nil
	}

	_, err := s.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n := r.ResyncAll(ctx)
		s.log.LogInfof("resync", "refreshed %d open views", n)
	})
	if err != nil {
		return err
	}

	s.log.LogInfof("start", "view resync scheduled (%s)", spec)
	s.c.Start()
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}
