package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger fires registered jobs on some schedule.
type Trigger interface {
	Schedule(name, spec string, job func()) error
	Start()
	Stop()
}

var specParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronTrigger runs jobs on cron specs with a seconds field, in a fixed location.
type CronTrigger struct {
	Cron *cron.Cron
}

// NewCronTrigger creates a cron-backed trigger evaluated in loc.
func NewCronTrigger(loc *time.Location) *CronTrigger {
	if loc == nil {
		loc = time.Local
	}
	return &CronTrigger{
		Cron: cron.New(
			cron.WithParser(specParser),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
	}
}

func (t *CronTrigger) Schedule(name, spec string, job func()) error {
	if _, err := t.Cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("register %s job %q: %w", name, spec, err)
	}
	log.Printf("[INFO] scheduled %s job: %s", name, spec)
	return nil
}

// Start starts the cron scheduler.
func (t *CronTrigger) Start() {
	t.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (t *CronTrigger) Stop() {
	<-t.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// ManualTrigger records jobs and fires them only on demand.
type ManualTrigger struct {
	mu      sync.Mutex
	jobs    map[string]func()
	specs   map[string]string
	started bool
}

func NewManualTrigger() *ManualTrigger {
	return &ManualTrigger{jobs: map[string]func(){}, specs: map[string]string{}}
}

// Schedule validates spec with the same parser as CronTrigger.
func (t *ManualTrigger) Schedule(name, spec string, job func()) error {
	if _, err := specParser.Parse(spec); err != nil {
		return fmt.Errorf("register %s job %q: %w", name, spec, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[name] = job
	t.specs[name] = spec
	return nil
}

func (t *ManualTrigger) Start() {
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()
}

func (t *ManualTrigger) Stop() {
	t.mu.Lock()
	t.started = false
	t.mu.Unlock()
}

// Fire runs the named job synchronously. It reports false if the trigger is
// stopped or no such job exists.
func (t *ManualTrigger) Fire(name string) bool {
	t.mu.Lock()
	job, ok := t.jobs[name]
	started := t.started
	t.mu.Unlock()
	if !ok || !started {
		return false
	}
	job()
	return true
}

// Spec returns the spec registered under name.
func (t *ManualTrigger) Spec(name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.specs[name]
	return s, ok
}
