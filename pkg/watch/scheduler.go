package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
)

// RunFunc performs one generation run
type RunFunc func(ctx context.Context) (*models.RunRecord, error)

// Scheduler regenerates sitemaps periodically. Runs never overlap: a run
// that outlasts the interval pushes the next one back.
type Scheduler struct {
	interval time.Duration
	run      RunFunc
	log      *logrus.Entry

	mu      sync.Mutex
	job     gocron.Job
	runs    int
	failed  int
	lastRun *models.RunRecord
}

// NewScheduler creates a new watch scheduler
func NewScheduler(interval time.Duration, run RunFunc, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		interval: interval,
		run:      run,
		log:      log.WithField("component", "watch"),
	}
}

// Run starts the first generation immediately and then every interval,
// blocking until ctx is cancelled and the in-flight run has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %v", s.interval)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.tick, ctx),
		gocron.WithName("generate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("create scheduled job: %w", err)
	}
	s.mu.Lock()
	s.job = job
	s.mu.Unlock()

	s.log.Infof("Starting watch mode with interval %s", FormatInterval(s.interval))
	scheduler.Start()

	<-ctx.Done()
	s.log.Info("Watch scheduler shutting down...")
	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	record, err := s.run(ctx)

	s.mu.Lock()
	s.runs++
	if err != nil {
		s.failed++
	}
	if record != nil {
		s.lastRun = record
	}
	job := s.job
	s.mu.Unlock()

	if err != nil {
		s.log.Errorf("Scheduled run failed: %v", err)
	}
	if job == nil || ctx.Err() != nil {
		return
	}
	if next, nerr := job.NextRun(); nerr == nil && !next.IsZero() {
		s.log.Infof("Next run in %v (at %s)", time.Until(next).Round(time.Second), next.Format("15:04:05"))
	}
}

// Status contains counters for the runs performed by a Scheduler
type Status struct {
	Runs    int
	Failed  int
	LastRun *models.RunRecord
}

// GetStatus returns the current run counters
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Runs: s.runs, Failed: s.failed, LastRun: s.lastRun}
}

// FormatInterval formats a duration for display
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a duration string with support for days
func ParseInterval(s string) (time.Duration, error) {
	// Try standard parsing first
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	// Check for day suffix
	var days int
	var remaining string
	n, _ := fmt.Sscanf(s, "%dd%s", &days, &remaining)
	if n >= 1 {
		d = time.Duration(days) * 24 * time.Hour
		if remaining != "" {
			extra, err := time.ParseDuration(remaining)
			if err != nil {
				return 0, fmt.Errorf("invalid interval format: %s", s)
			}
			d += extra
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid interval format: %s (examples: 30m, 1h, 24h, 7d)", s)
}
