// Package schedule runs periodic maintenance jobs for the board.
package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/ops"
)

// PurgeJobName identifies the scheduled purge of soft-deleted notices.
const PurgeJobName = "purge-deleted"

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

// Scheduler owns a cron dispatcher and the jobs registered on it.
type Scheduler struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// New builds a scheduler with the jobs enabled by cfg. A purge job is added
// when PurgeAfterDays is positive.
func New(database *sql.DB, cfg *config.Config) (*Scheduler, error) {
	logger := cronLogger{entry: logrus.WithField("component", "schedule")}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		jobs: make(map[string]cron.EntryID),
	}

	if cfg.PurgeAfterDays > 0 {
		days := cfg.PurgeAfterDays
		err := s.Add(PurgeJobName, cfg.PurgeSchedule, func(ctx context.Context) error {
			_, err := RunPurge(ctx, database, days)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers fn under name with a cron spec. Re-adding a name replaces
// the earlier entry.
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		log := logrus.WithField("job", name)
		if err := fn(ctx); err != nil {
			log.WithError(err).Error("scheduled job failed")
			return
		}
		log.WithField("elapsed", time.Since(start)).Debug("scheduled job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}

	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = id
	return nil
}

// Jobs returns the registered job names and their next run time.
func (s *Scheduler) Jobs() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time, len(s.jobs))
	for name, id := range s.jobs {
		out[name] = s.cron.Entry(id).Next
	}
	return out
}

// Start runs the dispatcher in its own goroutine.
func (s *Scheduler) Start() {
	logrus.WithField("jobs", len(s.jobs)).Info("scheduler started")
	s.cron.Start()
}

// Stop halts the dispatcher and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logrus.Warn("scheduler stopped before running jobs finished")
	}
}

// RunPurge hard-deletes notices soft-deleted more than days ago.
func RunPurge(ctx context.Context, database *sql.DB, days int) (*ops.PurgeOutput, error) {
	out, err := ops.Purge(ctx, database, ops.PurgeInput{OlderThanDays: &days})
	if err != nil {
		return nil, err
	}
	if out.Purged > 0 {
		logrus.WithFields(logrus.Fields{
			"purged":          out.Purged,
			"older_than_days": days,
		}).Info("purged deleted notices")
	}
	return out, nil
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.entry.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
