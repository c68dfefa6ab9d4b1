package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	domsvc "github.com/MetaStark/vision-IoS-sub013/internal/domain/service"
)

// HTTPSafetyProvider reads the current operational safety level from the
// safety-level collaborator.
type HTTPSafetyProvider struct {
	base *serviceBase
}

func NewHTTPSafetyProvider(baseURL string, timeout time.Duration) *HTTPSafetyProvider {
	return &HTTPSafetyProvider{base: newServiceBase(baseURL, timeout)}
}

var _ domsvc.SafetyProvider = (*HTTPSafetyProvider)(nil)

type safetyResponse struct {
	Level string `json:"level"`
}

// Current returns the level as reported. Undeclared values are passed
// through untouched; the degradation machine maps them to the terminal
// behavior.
func (p *HTTPSafetyProvider) Current(ctx context.Context) (models.SafetyLevel, error) {
	var sr safetyResponse
	if err := p.base.getJSON(ctx, "/safety/current", nil, &sr); err != nil {
		return "", fmt.Errorf("current safety level: %w", err)
	}
	if sr.Level == "" {
		return "", fmt.Errorf("safety provider returned empty level")
	}
	return models.SafetyLevel(sr.Level), nil
}
