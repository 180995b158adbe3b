package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"MarketSim/internal/domain/models"
	domrepo "MarketSim/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	ProcessBatch(ctx context.Context, ticks []*models.PriceTick) error
}

// TickPipeline decouples the price book from slow downstream sinks. Enqueue never
// blocks: when the buffer is full the tick is dropped and counted.
type TickPipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	bufSize   int
	batchSize int
	bufCh     chan *models.PriceTick

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}

	maxAttempts int
	maxBackoff  time.Duration
	sleep       func(time.Duration)
}

type PipelineOption func(*TickPipeline)

// WithBufferSize sets the queue capacity between the book and the sink.
func WithBufferSize(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatchSize caps how many queued ticks go to the sink in one write.
func WithBatchSize(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithMaxAttempts sets how often a batch is written before it is dropped.
func WithMaxAttempts(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithMaxBackoff caps the retry delay after a failed write.
func WithMaxBackoff(d time.Duration) PipelineOption {
	return func(p *TickPipeline) {
		if d > 0 {
			p.maxBackoff = d
		}
	}
}

func NewTickPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		proc:        proc,
		metrics:     metrics,
		bufSize:     1000,
		batchSize:   100,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
		maxAttempts: 5,
		maxBackoff:  2 * time.Second,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.PriceTick, p.bufSize)
	return p
}

// Observe matches market.Observer so the pipeline can subscribe to the price book.
func (p *TickPipeline) Observe(t models.PriceTick) {
	_ = p.Enqueue(&t)
}

// Enqueue validates and buffers a tick without blocking.
func (p *TickPipeline) Enqueue(t *models.PriceTick) error {
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	select {
	case p.bufCh <- t:
		p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return fmt.Errorf("pipeline buffer full, dropped %s tick", t.Symbol)
	}
}

// Len reports the number of queued ticks.
func (p *TickPipeline) Len() int { return len(p.bufCh) }

// Start launches the background flusher. Each wakeup takes whatever is queued,
// up to the batch size, and writes it in one call. A failed batch is retried
// with exponential backoff and dropped after maxAttempts.
func (p *TickPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.stopCh:
				p.drain(ctx)
				return
			case <-ctx.Done():
				return
			case t := <-p.bufCh:
				p.flush(ctx, p.fill([]*models.PriceTick{t}))
			}
		}
	}()
}

func (p *TickPipeline) flush(ctx context.Context, batch []*models.PriceTick) {
	backoff := 50 * time.Millisecond
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := p.proc.ProcessBatch(ctx, batch)
		if err == nil {
			p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("pipeline_flush")
		if attempt >= p.maxAttempts || ctx.Err() != nil {
			p.metrics.RecordError("pipeline_batch_drop")
			return
		}
		p.sleep(backoff)
		if backoff < p.maxBackoff {
			backoff *= 2
		}
	}
}

// fill tops batch up from the queue without blocking.
func (p *TickPipeline) fill(batch []*models.PriceTick) []*models.PriceTick {
	for len(batch) < p.batchSize {
		select {
		case t := <-p.bufCh:
			batch = append(batch, t)
		default:
			return batch
		}
	}
	return batch
}

// Stop flushes what is queued, one attempt per batch, and stops the flusher.
func (p *TickPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.done
}

func (p *TickPipeline) drain(ctx context.Context) {
	for {
		batch := p.fill(nil)
		if len(batch) == 0 {
			return
		}
		if err := p.proc.ProcessBatch(ctx, batch); err != nil {
			p.metrics.RecordError("pipeline_drain")
		}
	}
}

func validateTick(t *models.PriceTick) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if math.IsNaN(t.Price) || t.Price < 1 {
		return fmt.Errorf("price below floor")
	}
	return nil
}
