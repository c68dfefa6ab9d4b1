package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/services/verify"
	applogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
)

// Scheduler drives periodic synthesis, one worker goroutine per asset.
// Within an asset ticks run sequentially, which keeps the per-asset history
// strictly ordered; across assets ticks are fully independent.
type Scheduler struct {
	synth    *Synthesizer
	assets   []string
	interval time.Duration
	logger   *applogger.Logger

	audit      AuditPublisher
	auditEvery int

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// SetAuditSampling routes every n-th successful tick per asset into the
// replay-audit queue. n <= 0 disables sampling.
func (s *Scheduler) SetAuditSampling(pub AuditPublisher, n int) {
	s.audit = pub
	s.auditEvery = n
}

func NewScheduler(synth *Synthesizer, assets []string, interval time.Duration, logger *applogger.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scheduler{synth: synth, assets: assets, interval: interval, logger: logger}
}

// Start launches the per-asset loops. Idempotent per process lifecycle;
// call Stop before starting again.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	for _, asset := range s.assets {
		s.wg.Add(1)
		go s.runAsset(ctx, asset)
	}
	s.logger.Info("synthesis scheduler started",
		applogger.Strings("assets", s.assets),
		applogger.Duration("interval_ms", s.interval),
	)
}

// Stop cancels all loops and waits for in-flight ticks to finish. A tick
// abandoned before signing leaves no trace; a sealed tick completes its
// persist/publish before the worker exits.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runAsset(ctx context.Context, assetID string) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	ok := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			vec, err := s.synth.Tick(ctx, assetID)
			if err != nil {
				s.logTickError(assetID, err)
				continue
			}
			ok++
			if s.audit != nil && s.auditEvery > 0 && ok%s.auditEvery == 0 {
				if aerr := EnqueueAudit(ctx, s.audit, assetID, vec.Timestamp, vec.MappingVersion); aerr != nil {
					s.logger.Warn("audit enqueue failed", applogger.String("asset", assetID), applogger.Error(aerr))
				}
			}
		}
	}
}

func (s *Scheduler) logTickError(assetID string, err error) {
	var stale *ErrStaleSnapshot
	if errors.As(err, &stale) {
		// Upstream has not advanced; quiet skip.
		s.logger.Debug("tick skipped", applogger.String("asset", assetID), applogger.Error(err))
		return
	}
	var signing *verify.SigningError
	if errors.As(err, &signing) {
		s.logger.Error("tick failed closed: signing fault",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
		return
	}
	s.logger.Error("tick failed", applogger.String("asset", assetID), applogger.Error(err))
}
