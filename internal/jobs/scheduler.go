package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single job run
const jobTimeout = 5 * time.Minute

// Scheduler runs periodic maintenance jobs on cron schedules
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler pinned to UTC
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Register adds a job on a standard 5-field cron expression. The expression
// is validated up front so a typo fails at startup, not at first fire.
func (s *Scheduler) Register(name, cronExpr string, fn func(ctx context.Context) error) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q for job %s: %w", cronExpr, name, err)
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			log.Printf("▶️  [SCHEDULER] Running job: %s", name)
			start := time.Now()
			if err := fn(ctx); err != nil {
				log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", name, err)
				return
			}
			log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", name, time.Since(start))
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}

	log.Printf("✅ [SCHEDULER] Registered job: %s (%s)", name, cronExpr)
	return nil
}

// Start begins firing registered jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
	for _, job := range s.scheduler.Jobs() {
		if next, err := job.NextRun(); err == nil {
			log.Printf("⏰ [SCHEDULER] Job '%s' next run at %s", job.Name(), next.Format(time.RFC3339))
		}
	}
}

// Stop shuts the scheduler down and waits for running jobs
func (s *Scheduler) Stop() {
	log.Println("🛑 [SCHEDULER] Stopping job scheduler...")
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️  [SCHEDULER] Shutdown error: %v", err)
		return
	}
	log.Println("✅ [SCHEDULER] Job scheduler stopped")
}
