// Package upstream holds the HTTP clients for the indicator/regime and
// safety-level collaborators.
package upstream

import (
	"context"
	"fmt"
	"time"

	xhttp "github.com/MetaStark/vision-IoS-sub013/pkg/http"
)

// serviceBase centralizes client construction and JSON request handling for
// the collaborator clients.
type serviceBase struct {
	baseURL string
	client  *xhttp.Client
}

func newServiceBase(baseURL string, timeout time.Duration) *serviceBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &serviceBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (b *serviceBase) getJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("upstream http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		QueryParams: query,
	}, dest)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

func (b *serviceBase) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("upstream http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}
