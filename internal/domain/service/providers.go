package service

import (
	"context"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

// SnapshotProvider is the upstream indicator/regime collaborator. Latest
// serves the live tick; At refetches the exact historical inputs recorded on
// a vector for replay.
type SnapshotProvider interface {
	Latest(ctx context.Context, assetID string) (*models.IndicatorSnapshot, error)
	At(ctx context.Context, assetID, marketSnapshotID, indicatorSetID string) (*models.IndicatorSnapshot, error)
}

// SafetyProvider supplies the current operational safety level.
type SafetyProvider interface {
	Current(ctx context.Context) (models.SafetyLevel, error)
}

// Signer is the external signing authority. It receives a content digest and
// returns the signature and signer identity; raw key material never enters
// this process.
type Signer interface {
	Sign(ctx context.Context, digest string) (signature, signerID string, err error)
}
