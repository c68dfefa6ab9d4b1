package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

type recordingPublisher struct {
	mu   sync.Mutex
	seen []*models.StateVector
	fail bool
}

func (r *recordingPublisher) Publish(_ context.Context, v *models.StateVector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("broker down")
	}
	r.seen = append(r.seen, v)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

type nopMetrics struct{}

func (nopMetrics) RecordTick(string, string)       {}
func (nopMetrics) RecordEvent(string, string)      {}
func (nopMetrics) RecordDegradedFields(string, int) {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLatency(string, float64)   {}

func sealedVector(asset string) *models.StateVector {
	return &models.StateVector{
		ID:        "v-1",
		AssetID:   asset,
		Timestamp: time.Now(),
		Digest:    "aa",
		Signature: "bb",
	}
}

func TestPipelineForwardsSealedVectors(t *testing.T) {
	down := &recordingPublisher{}
	p := NewPublishPipeline(down, nopMetrics{})

	if err := p.Publish(context.Background(), sealedVector("BTC-USD")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if down.count() != 1 {
		t.Fatalf("expected 1 delivered, got %d", down.count())
	}
}

func TestPipelineRejectsUnsealedVector(t *testing.T) {
	down := &recordingPublisher{}
	p := NewPublishPipeline(down, nopMetrics{})

	v := sealedVector("BTC-USD")
	v.Signature = ""
	if err := p.Publish(context.Background(), v); err == nil {
		t.Fatal("expected error for unsealed vector")
	}
	if down.count() != 0 {
		t.Fatalf("unsealed vector reached downstream")
	}
}

func TestPipelineBuffersWhenBrokerDown(t *testing.T) {
	down := &recordingPublisher{fail: true}
	p := NewPublishPipeline(down, nopMetrics{}, WithBufferSize(4))
	p.Start(context.Background())
	defer p.Stop()

	if err := p.Publish(context.Background(), sealedVector("BTC-USD")); err == nil {
		t.Fatal("expected downstream error")
	}

	down.mu.Lock()
	down.fail = false
	down.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for down.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("buffered vector never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPipelineSubscribersReceiveFanOut(t *testing.T) {
	down := &recordingPublisher{}
	p := NewPublishPipeline(down, nopMetrics{})

	ch, cancel := p.Subscribe(4)
	defer cancel()

	v := sealedVector("ETH-USD")
	if err := p.Publish(context.Background(), v); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.AssetID != "ETH-USD" {
			t.Fatalf("unexpected asset %s", got.AssetID)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive vector")
	}
}
