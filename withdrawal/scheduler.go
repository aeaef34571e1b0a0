package withdrawal

import (
	"fmt"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/robfig/cron/v3"
)

// CronScheduler runs repeating tasks with robfig/cron. A run is skipped while the previous run
// of the same task is still going, so a task never overlaps itself.
type CronScheduler struct {
	mu      sync.Mutex
	logger  cron.Logger
	cron    *cron.Cron
	started bool
}

func NewCronScheduler(logger runtime.Logger) *CronScheduler {
	cl := cronLogger{logger: logger}
	return &CronScheduler{
		logger: cl,
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
	}
}

// ScheduleRepeating runs task every period, starting one period from now. Periods below one
// second are rounded up by cron.
func (s *CronScheduler) ScheduleRepeating(period time.Duration, task func()) error {
	if period <= 0 {
		return fmt.Errorf("invalid period %v", period)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Schedule(cron.Every(period), cron.FuncJob(task))
	if !s.started {
		s.cron.Start()
		s.started = true
	}
	return nil
}

// CancelAll removes every task and waits for a running one to return.
func (s *CronScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.cron.Entries() {
		s.cron.Remove(e.ID)
	}
	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
	}
}

type cronLogger struct {
	logger runtime.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Debug("cron: %s", msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Error("cron: %s: %v", msg, err)
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
