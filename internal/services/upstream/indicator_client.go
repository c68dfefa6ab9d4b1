package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	domsvc "github.com/MetaStark/vision-IoS-sub013/internal/domain/service"
)

// HTTPSnapshotProvider fetches indicator snapshots from the upstream
// indicator/regime service.
type HTTPSnapshotProvider struct {
	base *serviceBase
}

func NewHTTPSnapshotProvider(baseURL string, timeout time.Duration) *HTTPSnapshotProvider {
	return &HTTPSnapshotProvider{base: newServiceBase(baseURL, timeout)}
}

var _ domsvc.SnapshotProvider = (*HTTPSnapshotProvider)(nil)

// Latest fetches the current snapshot for one asset.
func (p *HTTPSnapshotProvider) Latest(ctx context.Context, assetID string) (*models.IndicatorSnapshot, error) {
	var snap models.IndicatorSnapshot
	err := p.base.getJSON(ctx, "/snapshot/latest", map[string][]string{
		"asset": {assetID},
	}, &snap)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return &snap, nil
}

// At refetches the exact historical snapshot identified by the two recorded
// upstream ids. The provider guarantees id-addressed reads are immutable,
// which is what makes replay byte-exact.
func (p *HTTPSnapshotProvider) At(ctx context.Context, assetID, marketSnapshotID, indicatorSetID string) (*models.IndicatorSnapshot, error) {
	var snap models.IndicatorSnapshot
	err := p.base.getJSON(ctx, "/snapshot/at", map[string][]string{
		"asset":           {assetID},
		"market_snapshot": {marketSnapshotID},
		"indicator_set":   {indicatorSetID},
	}, &snap)
	if err != nil {
		return nil, fmt.Errorf("historical snapshot: %w", err)
	}
	return &snap, nil
}
