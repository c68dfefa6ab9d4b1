package verify

import (
	"context"
	"fmt"
	"time"

	domsvc "github.com/MetaStark/vision-IoS-sub013/internal/domain/service"
	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

// SigningError marks a tick that failed closed because the signing authority
// was unreachable, timed out or rejected the digest. No vector exists for
// such a tick.
type SigningError struct {
	AssetID string
	Err     error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed for %s: %v", e.AssetID, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// IntegrityError marks a replay whose re-derived digest does not match the
// recorded one: either tampering or a nondeterministic mapping bug. Never
// auto-corrected.
type IntegrityError struct {
	VectorID       string
	RecordedDigest string
	ReplayDigest   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("replay digest mismatch for vector %s: recorded %s, replayed %s",
		e.VectorID, e.RecordedDigest, e.ReplayDigest)
}

// Assembler finalizes a composed vector: canonical digest, external
// signature, signer identity. The signing call is the only blocking step of
// a tick and runs under a bounded timeout.
type Assembler struct {
	signer  domsvc.Signer
	timeout time.Duration
}

func NewAssembler(signer domsvc.Signer, timeout time.Duration) *Assembler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Assembler{signer: signer, timeout: timeout}
}

// Seal computes the digest over the canonical bytes and requests a
// signature. On any signing fault the vector is left untouched and a typed
// SigningError is returned; an unsigned vector is never released.
func (a *Assembler) Seal(ctx context.Context, v *models.StateVector) error {
	digest := Digest(v)

	sctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	signature, signerID, err := a.signer.Sign(sctx, digest)
	if err != nil {
		return &SigningError{AssetID: v.AssetID, Err: err}
	}
	if signature == "" || signerID == "" {
		return &SigningError{AssetID: v.AssetID, Err: fmt.Errorf("empty signature from authority %q", signerID)}
	}

	v.Digest = digest
	v.Signature = signature
	v.SignerID = signerID
	return nil
}

// Verify recomputes the digest of a sealed vector and reports whether it
// still matches its recorded digest.
func Verify(v *models.StateVector) error {
	replayed := Digest(v)
	if replayed != v.Digest {
		return &IntegrityError{VectorID: v.ID, RecordedDigest: v.Digest, ReplayDigest: replayed}
	}
	return nil
}
