package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	domrepo "github.com/MetaStark/vision-IoS-sub013/internal/domain/repository"
)

// PublishPipeline sits between the synthesizer and the broker. It validates
// sealed vectors, fans them out to in-process stream subscribers, and buffers
// toward the broker when it is unavailable. Buffered vectors are flushed in
// the background with backoff; the append-only store remains the source of
// truth, so a dropped broker message is a latency problem, not a data loss.
type PublishPipeline struct {
	downstream domrepo.Publisher
	metrics    domrepo.Metrics

	bufSize int
	bufCh   chan *models.StateVector
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex

	subMu sync.RWMutex
	subs  map[int]chan *models.StateVector
	nextS int
}

type PipelineOption func(*PublishPipeline)

// WithBufferSize sets the retry buffer size used when the broker is down.
func WithBufferSize(n int) PipelineOption {
	return func(p *PublishPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewPublishPipeline creates a pipeline in front of the given publisher.
func NewPublishPipeline(downstream domrepo.Publisher, metrics domrepo.Metrics, opts ...PipelineOption) *PublishPipeline {
	p := &PublishPipeline{
		downstream: downstream,
		metrics:    metrics,
		bufSize:    1000,
		stopCh:     make(chan struct{}),
		subs:       make(map[int]chan *models.StateVector),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.StateVector, p.bufSize)
	return p
}

var _ domrepo.Publisher = (*PublishPipeline)(nil)

// Start launches background flushing of buffered vectors.
func (p *PublishPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case v := <-p.bufCh:
				if v == nil {
					continue
				}
				if err := p.downstream.Publish(ctx, v); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- v:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *PublishPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Publish validates and forwards a sealed vector, buffering on broker errors.
// Stream subscribers receive the vector regardless of broker health.
func (p *PublishPipeline) Publish(ctx context.Context, v *models.StateVector) error {
	start := time.Now()
	if err := validateVector(v); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	p.fanOut(v)

	if err := p.downstream.Publish(ctx, v); err != nil {
		p.metrics.RecordError("pipeline_publish")
		select {
		case p.bufCh <- v:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
	return nil
}

func (p *PublishPipeline) Close() error {
	p.Stop()
	p.subMu.Lock()
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
	p.subMu.Unlock()
	return p.downstream.Close()
}

// Subscribe registers an in-process listener for sealed vectors. The
// returned cancel func must be called when the listener goes away. Slow
// listeners miss vectors rather than stalling the pipeline.
func (p *PublishPipeline) Subscribe(buffer int) (<-chan *models.StateVector, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan *models.StateVector, buffer)

	p.subMu.Lock()
	id := p.nextS
	p.nextS++
	p.subs[id] = ch
	p.subMu.Unlock()

	cancel := func() {
		p.subMu.Lock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
		}
		p.subMu.Unlock()
	}
	return ch, cancel
}

func (p *PublishPipeline) fanOut(v *models.StateVector) {
	p.subMu.RLock()
	defer p.subMu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- v:
		default:
			p.metrics.RecordError("pipeline_subscriber_lag")
		}
	}
}

// validateVector rejects vectors that escaped sealing. Only sealed vectors
// may leave the process.
func validateVector(v *models.StateVector) error {
	if v == nil {
		return fmt.Errorf("vector nil")
	}
	if v.AssetID == "" {
		return fmt.Errorf("asset empty")
	}
	if v.Timestamp.IsZero() {
		return fmt.Errorf("timestamp zero")
	}
	if v.Digest == "" || v.Signature == "" {
		return fmt.Errorf("vector not sealed")
	}
	return nil
}
