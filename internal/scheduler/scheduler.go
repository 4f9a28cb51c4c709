package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"dreambid/internal/auction"
	"dreambid/internal/cleanup"
	"dreambid/internal/config"

	"github.com/robfig/cron/v3"
)

const (
	JobReconcile          = "reconcile_auctions"
	JobActivityCleanup    = "activity_cleanup"
	JobDormantUserCleanup = "dormant_user_cleanup"
)

// Reconciler advances auction statuses; Run never returns an error
type Reconciler interface {
	Run(ctx context.Context) int64
}

// Cleaner runs the retention jobs
type Cleaner interface {
	RunActivityCleanup(ctx context.Context, config cleanup.CleanupConfig) (*cleanup.CleanupResult, error)
	RunDormantUserCleanup(ctx context.Context, config cleanup.CleanupConfig) (*cleanup.CleanupResult, error)
}

// JobInfo describes a registered job
type JobInfo struct {
	Name    string    `json:"name"`
	Spec    string    `json:"spec"`
	NextRun time.Time `json:"next_run"`
	PrevRun time.Time `json:"prev_run"`
}

// Scheduler owns every timer-driven job in the process
type Scheduler struct {
	cron       *cron.Cron
	config     *config.Config
	reconciler Reconciler
	cleaner    Cleaner

	mu        sync.Mutex
	entries   map[string]cron.EntryID
	specs     map[string]string
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.Config, reconciler Reconciler, cleaner Cleaner) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		config:     cfg,
		reconciler: reconciler,
		cleaner:    cleaner,
		entries:    make(map[string]cron.EntryID),
		specs:      make(map[string]string),
	}
}

// Start registers the jobs, runs one reconcile immediately and starts the timers
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Scheduler.Enabled {
		log.Println("Scheduler: Disabled in configuration")
		return nil
	}

	interval := s.config.Scheduler.ReconcileInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	if err := s.add(JobReconcile, fmt.Sprintf("@every %s", interval), s.runReconcile); err != nil {
		return err
	}

	activitySpec := parseDailyRunTime(s.config.Scheduler.ActivityCleanupTime)
	if err := s.add(JobActivityCleanup, activitySpec, s.runActivityCleanup); err != nil {
		return err
	}

	if s.config.Scheduler.DormantUserCleanupEnabled {
		spec := s.config.Scheduler.DormantUserCleanupCron
		if _, err := cron.ParseStandard(spec); err != nil {
			log.Printf("Scheduler: Invalid dormant user cleanup spec '%s' (%v), using default 0 3 * * 0", spec, err)
			spec = "0 3 * * 0"
		}
		if err := s.add(JobDormantUserCleanup, spec, s.runDormantUserCleanup); err != nil {
			return err
		}
	}

	// Bring statuses up to date before the first tick.
	s.runReconcile()

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started (reconcile every %s, activity cleanup cron: %s)", interval, activitySpec)

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// Jobs lists the registered jobs ordered by name
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobInfo, 0, len(s.entries))
	for name, id := range s.entries {
		entry := s.cron.Entry(id)
		jobs = append(jobs, JobInfo{
			Name:    name,
			Spec:    s.specs[name],
			NextRun: entry.Next,
			PrevRun: entry.Prev,
		})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// RunReconcileNow runs the reconciler immediately (for manual trigger)
func (s *Scheduler) RunReconcileNow(ctx context.Context) int64 {
	log.Println("Scheduler: Manual trigger - reconciling auction statuses...")
	return s.reconciler.Run(ctx)
}

// RunActivityCleanupNow purges activity older than days (for manual trigger)
func (s *Scheduler) RunActivityCleanupNow(ctx context.Context, days int) (*cleanup.CleanupResult, error) {
	log.Printf("Scheduler: Manual trigger - activity cleanup older than %d days...", days)
	return s.cleaner.RunActivityCleanup(ctx, cleanup.CleanupConfig{RetentionDays: days})
}

// RunDormantUserCleanupNow purges inactive users older than days (for manual trigger)
func (s *Scheduler) RunDormantUserCleanupNow(ctx context.Context, days int) (*cleanup.CleanupResult, error) {
	log.Printf("Scheduler: Manual trigger - dormant user cleanup older than %d days...", days)
	return s.cleaner.RunDormantUserCleanup(ctx, cleanup.CleanupConfig{RetentionDays: days})
}

func (s *Scheduler) add(name, spec string, job func()) error {
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%s): %w", name, spec, err)
	}
	s.entries[name] = id
	s.specs[name] = spec
	return nil
}

func (s *Scheduler) runReconcile() {
	s.reconciler.Run(context.Background())
}

func (s *Scheduler) runActivityCleanup() {
	log.Println("Scheduler: Starting activity cleanup job...")
	result, err := s.cleaner.RunActivityCleanup(context.Background(), cleanup.CleanupConfig{
		RetentionDays: s.config.Retention.ActivityDays,
	})
	if err != nil {
		log.Printf("Scheduler: Activity cleanup failed: %v", err)
		return
	}
	log.Printf("Scheduler: Activity cleanup completed, %d records deleted", result.DeletedCount)
}

func (s *Scheduler) runDormantUserCleanup() {
	log.Println("Scheduler: Starting dormant user cleanup job...")
	result, err := s.cleaner.RunDormantUserCleanup(context.Background(), cleanup.CleanupConfig{
		RetentionDays: s.config.Retention.DormantUserDays,
	})
	if err != nil {
		log.Printf("Scheduler: Dormant user cleanup failed: %v", err)
		return
	}
	log.Printf("Scheduler: Dormant user cleanup completed, %d inactive users removed", result.DeletedCount)
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 2:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 02:00", timeStr)
	return "0 2 * * *"
}

var _ Reconciler = (*auction.Reconciler)(nil)
var _ Cleaner = (*cleanup.Service)(nil)
