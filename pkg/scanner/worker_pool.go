package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/cuin/pkg/analyzer"
	"github.com/gnana997/cuin/pkg/util"
)

// WorkerPool manages a pool of goroutines for parallel file analysis.
//
// **Architecture:**
//   - Buffered channel for job distribution
//   - Separate result and error channels
//   - Graceful shutdown support
//
// **Usage:**
//
//	pool := NewWorkerPool(numWorkers, fn, logger)
//	pool.Start()
//	defer pool.Stop()
//
//	for _, file := range files {
//	    pool.Submit(FileJob{FilePath: file})
//	}
//	pool.FinishSubmitting()
//
//	// Collect len(files) results and errors
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup
	fn         FileFunc
	logger     *slog.Logger

	// Lifecycle management
	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	// Statistics
	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a new worker pool.
//
// numWorkers of 0 selects util.GetOptimalPoolSize(), which is also the
// parser pool size. Keep the two equal so workers never wait on parsers.
func NewWorkerPool(numWorkers int, fn FileFunc, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = util.GetOptimalPoolSize()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		fn:         fn,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns all worker goroutines. Must be called before submitting
// jobs.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("WorkerPool already started")
		return
	}

	wp.logger.Debug("Starting worker pool", "workers", wp.numWorkers)

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("Worker cancelled", "worker_id", id)
			return

		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

// processJob runs the file function on one job. A panic while analyzing
// a file is reported as that file's error.
func (wp *WorkerPool) processJob(workerID int, job FileJob) {
	usages, err := wp.run(job.FilePath)
	if err != nil {
		wp.logger.Debug("Analysis error", "worker_id", workerID, "file", job.FilePath, "error", err)
		wp.jobsFailed.Add(1)
		wp.errors <- FileError{FilePath: job.FilePath, Error: err}
		return
	}

	wp.jobsProcessed.Add(1)
	wp.results <- FileResult{
		FilePath: job.FilePath,
		Usages:   usages,
		JobID:    job.JobID,
	}
}

func (wp *WorkerPool) run(path string) (usages []analyzer.ComponentUsage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while analyzing %s: %v", path, r)
		}
	}()
	return wp.fn(path)
}

// Submit enqueues a job for processing. Blocks while the jobs channel is
// full.
func (wp *WorkerPool) Submit(job FileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}

	wp.jobsSubmitted.Add(1)

	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled")
	case wp.jobs <- job:
		return nil
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan FileResult {
	return wp.results
}

// Errors returns the errors channel.
func (wp *WorkerPool) Errors() <-chan FileError {
	return wp.errors
}

// FinishSubmitting closes the jobs channel so workers exit once it is
// drained. Safe to call more than once.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Wait blocks until all workers have finished.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop shuts the pool down: no new jobs are accepted, in-flight jobs
// complete, then the result and error channels are closed. Idempotent.
//
// Results must be drained concurrently, or Stop can block on a worker
// waiting to send.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}

	wp.FinishSubmitting()
	wp.wg.Wait()

	close(wp.results)
	close(wp.errors)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// Cancel aborts the pool: workers stop picking up jobs and pending Submit
// calls fail.
func (wp *WorkerPool) Cancel() {
	wp.cancel()
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
	}
}

// WorkerPoolStats contains statistics about the worker pool.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int // Current jobs in queue
}
