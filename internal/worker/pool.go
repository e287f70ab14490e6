// Package worker implements the bounded worker pool that carries ensemble
// inference. Artifact loading is disk- and CPU-heavy, so it runs here
// instead of on the request path where it would stall pending I/O.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/ensemble"
)

// Prometheus metrics
var (
	jobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xgoalpro_inference_jobs_total",
		Help: "Total number of inference jobs submitted",
	})

	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xgoalpro_inference_jobs_failed_total",
		Help: "Total number of inference jobs that returned an error",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xgoalpro_inference_queue_depth",
		Help: "Current depth of the inference queue",
	})

	inferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xgoalpro_inference_duration_seconds",
		Help:    "Duration of ensemble inference runs",
		Buckets: prometheus.DefBuckets,
	})
)

// ErrPoolStopped is returned to submitters once the pool is shut down.
var ErrPoolStopped = errors.New("inference pool stopped")

// Inferencer runs the ensemble over a raw feature vector.
type Inferencer interface {
	Predict(features []float64, sel ensemble.Selection) (homeXG, awayXG float64, err error)
}

// Outcome is the result of one inference job.
type Outcome struct {
	HomeXG float64
	AwayXG float64
	Err    error
}

// Job is one queued inference request.
type Job struct {
	Features  []float64
	Selection ensemble.Selection
	Result    chan Outcome
}

// PoolConfig configures the inference pool.
type PoolConfig struct {
	WorkerCount int
	QueueSize   int
	Predictor   Inferencer
	Logger      *zap.Logger
}

// Pool manages the inference workers.
type Pool struct {
	config PoolConfig
	jobs   chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.SugaredLogger
}

// NewPool creates an inference pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pool{
		config: cfg,
		jobs:   make(chan Job, cfg.QueueSize),
		logger: cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	go p.reportQueueDepth()

	p.logger.Infow("Inference pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
	)
}

// Stop drains queued jobs and shuts the workers down.
func (p *Pool) Stop() {
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
	p.logger.Info("Inference pool stopped")
}

// QueueDepth returns the current queue size.
func (p *Pool) QueueDepth() int {
	return len(p.jobs)
}

// Submit enqueues an inference job and returns the channel carrying its
// result. Once queued, a job is not tied to the submitter: it runs to
// completion even if the caller goes away, and the buffered result channel
// never blocks a worker.
func (p *Pool) Submit(features []float64, sel ensemble.Selection) <-chan Outcome {
	result := make(chan Outcome, 1)
	job := Job{Features: features, Selection: sel, Result: result}

	// Protect against sending on a closed channel after Stop.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue inference job (pool stopped)", "error", r)
			result <- Outcome{Err: ErrPoolStopped}
		}
	}()

	select {
	case p.jobs <- job:
		jobsSubmitted.Inc()
	case <-p.ctx.Done():
		result <- Outcome{Err: ErrPoolStopped}
	}
	return result
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		start := time.Now()
		homeXG, awayXG, err := p.config.Predictor.Predict(job.Features, job.Selection)
		inferenceDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			jobsFailed.Inc()
			p.logger.Warnw("Inference job failed", "worker", id, "error", err)
		}
		job.Result <- Outcome{HomeXG: homeXG, AwayXG: awayXG, Err: err}
	}
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobs)))
		case <-p.ctx.Done():
			return
		}
	}
}
