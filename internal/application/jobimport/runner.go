package jobimport

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type jobRunner interface {
	Run(ctx context.Context, jobID string) error
}

type activeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Runner hosts each import run in its own goroutine for the lifetime of the
// process. Runs are detached from the request that started them.
type Runner struct {
	base   context.Context
	runner jobRunner
	logger zerolog.Logger

	mu      sync.Mutex
	running map[string]*activeRun
	// relaunch holds jobs to start again once their current run returns.
	relaunch map[string]bool
	wg       sync.WaitGroup
}

func NewRunner(base context.Context, runner jobRunner, logger zerolog.Logger) *Runner {
	return &Runner{
		base:     base,
		runner:   runner,
		logger:   logger.With().Str("component", "import_runner").Logger(),
		running:  make(map[string]*activeRun),
		relaunch: make(map[string]bool),
	}
}

// Launch starts a run for jobID. It returns false if one is already running.
func (r *Runner) Launch(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.running[jobID]; ok {
		return false
	}
	r.start(jobID)
	return true
}

// Resume starts a run for jobID now or, if a run is still winding down, as soon
// as it returns. It reports whether the run started immediately.
func (r *Runner) Resume(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.running[jobID]; ok {
		r.relaunch[jobID] = true
		return false
	}
	r.start(jobID)
	return true
}

// Cancel stops the run for jobID between rows and drops any pending relaunch.
// It reports whether a run was found.
func (r *Runner) Cancel(jobID string) bool {
	r.mu.Lock()
	delete(r.relaunch, jobID)
	run, ok := r.running[jobID]
	r.mu.Unlock()

	if ok {
		run.cancel()
	}
	return ok
}

// WaitFor blocks until the current run for jobID has returned.
func (r *Runner) WaitFor(ctx context.Context, jobID string) error {
	r.mu.Lock()
	run, ok := r.running[jobID]
	r.mu.Unlock()

	if !ok {
		return nil
	}
	select {
	case <-run.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) IsRunning(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.running[jobID]
	return ok
}

// Wait blocks until every launched run has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// start must be called with r.mu held.
func (r *Runner) start(jobID string) {
	ctx, cancel := context.WithCancel(r.base)
	run := &activeRun{cancel: cancel, done: make(chan struct{})}
	r.running[jobID] = run
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer r.finish(jobID, run)

		if err := r.runner.Run(ctx, jobID); err != nil {
			r.logger.Error().Err(err).Str("import_job_id", jobID).Msg("import run failed")
		}
	}()
}

func (r *Runner) finish(jobID string, run *activeRun) {
	run.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.running, jobID)
	close(run.done)

	if !r.relaunch[jobID] {
		return
	}
	delete(r.relaunch, jobID)
	if r.base.Err() != nil {
		return
	}
	r.logger.Info().Str("import_job_id", jobID).Msg("import run relaunched")
	r.start(jobID)
}
