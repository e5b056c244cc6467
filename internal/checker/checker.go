package checker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one scheduled ingestion-and-check run.
type Job func(ctx context.Context) error

// Checker is responsible for periodically running a Job.
// It runs the job once on startup and then on every tick of its cron schedule.
// A tick that fires while the previous run is still going is skipped.
type Checker struct {
	job      Job
	schedule cron.Schedule
	spec     string
	cron     *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New creates a new Checker. spec accepts standard cron lines and descriptors such as "@every 1h".
func New(spec string, job Job) (*Checker, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid check schedule %q: %w", spec, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Checker{
		job:      job,
		schedule: sched,
		spec:     spec,
		cron:     cron.New(),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins the periodic checking process.
func (c *Checker) Start() {
	logrus.WithField("schedule", c.spec).Info("starting background checker")

	c.cron.Schedule(c.schedule, cron.FuncJob(c.tick))
	c.cron.Start()

	// Perform an initial run on startup
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.tick()
	}()
}

// Stop gracefully shuts down the checker, cancelling any in-flight run.
func (c *Checker) Stop() {
	logrus.Info("stopping background checker...")
	c.cancel()
	<-c.cron.Stop().Done()
	c.wg.Wait()
	logrus.Info("background checker stopped")
}

func (c *Checker) tick() {
	c.mu.Lock()
	if c.running || c.ctx.Err() != nil {
		c.mu.Unlock()
		logrus.Debug("previous run still in progress, skipping tick")
		return
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	if err := c.job(c.ctx); err != nil {
		logrus.WithError(err).Error("scheduled run failed")
	}
}
