package eventbus

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// PoolConfig sizes a Pool. Zero fields take defaults: Workers = runtime.NumCPU(),
// MaxWorkers = 2*Workers, QueueSize = 50, KeepAlive = 60s.
type PoolConfig struct {
	Workers    int
	MaxWorkers int
	QueueSize  int
	KeepAlive  time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MaxWorkers < c.Workers {
		c.MaxWorkers = 2 * c.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 50
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 60 * time.Second
	}
	return c
}

// Pool is a bounded worker pool. Core workers live until Shutdown; when the queue
// is full, extra workers up to MaxWorkers are spawned and exit after KeepAlive idle.
type Pool struct {
	cfg    PoolConfig
	logger *slog.Logger
	tasks  chan func()

	mu      sync.Mutex
	running int
	closed  bool
	wg      sync.WaitGroup
}

// NewPool starts the core workers.
func NewPool(cfg PoolConfig, logger *slog.Logger) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:    cfg,
		logger: logger,
		tasks:  make(chan func(), cfg.QueueSize),
	}
	p.mu.Lock()
	for i := 0; i < cfg.Workers; i++ {
		p.startWorker(nil, true)
	}
	p.mu.Unlock()
	return p
}

// Config returns the effective pool sizing.
func (p *Pool) Config() PoolConfig {
	return p.cfg
}

// Submit schedules task. It returns false when the pool is shut down or both the
// queue and the worker limit are exhausted; the task is then not run.
func (p *Pool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
	}
	if p.running < p.cfg.MaxWorkers {
		p.startWorker(task, false)
		return true
	}
	return false
}

// must hold p.mu
func (p *Pool) startWorker(first func(), core bool) {
	p.running++
	p.wg.Add(1)
	go p.work(first, core)
}

func (p *Pool) work(first func(), core bool) {
	defer func() {
		p.mu.Lock()
		p.running--
		p.mu.Unlock()
		p.wg.Done()
	}()
	if first != nil {
		p.run(first)
	}
	if core {
		for task := range p.tasks {
			p.run(task)
		}
		return
	}
	idle := time.NewTimer(p.cfg.KeepAlive)
	defer idle.Stop()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(task)
			idle.Reset(p.cfg.KeepAlive)
		case <-idle.C:
			return
		}
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", "panic", r)
		}
	}()
	task()
}

// Shutdown stops intake and waits for queued tasks to finish or ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
