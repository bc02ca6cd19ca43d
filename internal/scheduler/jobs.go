package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/gocampaign/internal/logger"
)

// Job is one periodic unit of work. The context carries the per-run timeout
// and is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler runs registered jobs on fixed intervals. Jobs added after Start
// are picked up immediately.
type Scheduler struct {
	cron       *cron.Cron
	log        logger.Logger
	runTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a Scheduler. runTimeout bounds each job run.
func New(runTimeout time.Duration, log logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:       cron.New(),
		log:        log,
		runTimeout: runTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// AddEvery registers a job to run at a fixed interval.
func (s *Scheduler) AddEvery(name string, interval time.Duration, job Job) {
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.runTimeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Error("scheduled job failed",
				logger.String("job", name),
				logger.Duration("elapsed", time.Since(start)),
				logger.Error(err))
			return
		}

		s.log.Debug("scheduled job completed",
			logger.String("job", name),
			logger.Duration("elapsed", time.Since(start)))
	}))

	s.log.Info("scheduled job registered",
		logger.String("job", name),
		logger.Duration("interval", interval))
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
