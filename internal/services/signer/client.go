// Package signer is the client for the external signing authority.
package signer

import (
	"context"
	"fmt"
	"time"

	domsvc "github.com/MetaStark/vision-IoS-sub013/internal/domain/service"
	xhttp "github.com/MetaStark/vision-IoS-sub013/pkg/http"
)

// HTTPSigner ships content digests to the signing authority and returns the
// signature plus signer identity. Key material stays on the authority side.
type HTTPSigner struct {
	baseURL string
	client  *xhttp.Client
}

func NewHTTPSigner(baseURL string, timeout time.Duration) *HTTPSigner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSigner{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

var _ domsvc.Signer = (*HTTPSigner)(nil)

type signRequest struct {
	Digest string `json:"digest"`
}

type signResponse struct {
	Signature string `json:"signature"`
	SignerID  string `json:"signer_id"`
}

// Sign requests a signature over the digest. Any transport or authority
// fault surfaces as an error; the caller fails the tick closed. No retries
// here: retry policy belongs to the orchestration layer.
func (s *HTTPSigner) Sign(ctx context.Context, digest string) (string, string, error) {
	if s.client == nil || s.baseURL == "" {
		return "", "", fmt.Errorf("signer client not initialized")
	}
	var resp signResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     s.baseURL + "/sign",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    signRequest{Digest: digest},
	}, &resp)
	if err != nil {
		return "", "", fmt.Errorf("sign request: %w", err)
	}
	if resp.Signature == "" || resp.SignerID == "" {
		return "", "", fmt.Errorf("authority returned incomplete signature")
	}
	return resp.Signature, resp.SignerID, nil
}
