package app

import (
	"github.com/goliatone/go-taskboard/logging"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the background maintenance jobs
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
	jobs   []string
}

func NewScheduler(logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add registers job under name using a standard cron spec or a descriptor
// such as "@every 10m".
func (s *Scheduler) Add(name, spec string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return err
	}
	s.jobs = append(s.jobs, name)
	s.logger.Debug("job scheduled", "job", name, "spec", spec)
	return nil
}

// Jobs returns the names of the registered jobs
func (s *Scheduler) Jobs() []string {
	return append([]string{}, s.jobs...)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// cronLogger adapts our logger to cron.Logger
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
