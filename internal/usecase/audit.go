package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/services/verify"
	applogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
	"github.com/MetaStark/vision-IoS-sub013/pkg/queue"
)

// AuditJobType is the queue message type for replay audits.
const AuditJobType = "replay_audit"

// AuditRequest asks the audit worker to re-derive one published vector and
// compare digests.
type AuditRequest struct {
	AssetID   string    `json:"asset_id"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// AuditPublisher enqueues replay audits; satisfied by queue.RedisQueue.
type AuditPublisher interface {
	Publish(ctx context.Context, msgType string, payload interface{}) error
}

// EnqueueAudit samples a sealed vector into the audit queue.
func EnqueueAudit(ctx context.Context, pub AuditPublisher, assetID string, ts time.Time, version string) error {
	return pub.Publish(ctx, AuditJobType, AuditRequest{AssetID: assetID, Timestamp: ts, Version: version})
}

// AuditWorker consumes replay-audit jobs: it reruns the pipeline on the
// recorded inputs and verifies the digest reproduces. A mismatch is counted
// and logged as an integrity violation; it is never corrected in place.
type AuditWorker struct {
	synth  *Synthesizer
	logger *applogger.Logger
}

func NewAuditWorker(synth *Synthesizer, logger *applogger.Logger) *AuditWorker {
	return &AuditWorker{synth: synth, logger: logger}
}

var _ queue.Job = (*AuditWorker)(nil)

func (w *AuditWorker) Type() string { return AuditJobType }

// Handle runs one audit. Integrity violations are terminal for the message:
// retrying cannot make a mismatching digest match, so the violation is
// recorded and the message is consumed.
func (w *AuditWorker) Handle(ctx context.Context, payload []byte) error {
	var req AuditRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decode audit request: %w", err)
	}

	replayed, err := w.synth.Replay(ctx, req.AssetID, req.Timestamp, req.Version)
	if err != nil {
		var ierr *verify.IntegrityError
		if errors.As(err, &ierr) {
			w.logger.Error("audit found integrity violation",
				applogger.String("asset", req.AssetID),
				applogger.String("vector", ierr.VectorID),
				applogger.String("recorded", ierr.RecordedDigest),
				applogger.String("replayed", ierr.ReplayDigest),
			)
			return nil
		}
		return fmt.Errorf("audit replay %s@%s: %w", req.AssetID, req.Timestamp.UTC().Format(time.RFC3339Nano), err)
	}

	w.logger.Debug("audit passed",
		applogger.String("asset", req.AssetID),
		applogger.String("vector", replayed.ID),
		applogger.String("digest", replayed.Digest),
	)
	return nil
}
