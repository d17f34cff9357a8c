package background

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"stockdesk/internal/jobs"
)

// JobScheduler runs the service's periodic jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	stats     *jobs.StatsRefreshService
	interval  time.Duration
	logger    *zap.Logger
	jobJobs   map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with the stats refresh registered
func NewJobScheduler(stats *jobs.StatsRefreshService, statsInterval time.Duration, logger *zap.Logger) (*JobScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if statsInterval <= 0 {
		statsInterval = 10 * time.Minute
	}

	js := &JobScheduler{
		scheduler: scheduler,
		stats:     stats,
		interval:  statsInterval,
		logger:    logger,
		jobJobs:   make(map[string]gocron.Job),
	}
	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Int("jobs", len(js.jobJobs)))
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	statsJob, err := js.scheduler.NewJob(
		gocron.DurationJob(js.interval),
		gocron.NewTask(js.stats.ScheduledRefresh, context.Background()),
		gocron.WithName("variant-stats-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	js.jobJobs["variant-stats-refresh"] = statsJob
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn any, params ...any) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	js.jobJobs[name] = job
	js.logger.Info("added custom job", zap.String("name", name), zap.Duration("interval", interval))
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobJobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobJobs, name)
		return err
	}
	return nil
}

// RunNow triggers a registered job outside its schedule
func (js *JobScheduler) RunNow(name string) bool {
	js.mu.RLock()
	job, ok := js.jobJobs[name]
	js.mu.RUnlock()
	if !ok {
		return false
	}
	if err := job.RunNow(); err != nil {
		js.logger.Warn("failed to run job", zap.String("name", name), zap.Error(err))
		return false
	}
	return true
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]any {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make([]map[string]any, 0, len(js.jobJobs))
	for name, job := range js.jobJobs {
		entry := map[string]any{"name": name}
		if next, err := job.NextRun(); err == nil {
			entry["next_run"] = next
		}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			entry["last_run"] = last
		}
		jobs = append(jobs, entry)
	}
	return map[string]any{
		"total_jobs": len(js.jobJobs),
		"jobs":       jobs,
	}
}
