package verify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

func sampleVector() *models.StateVector {
	return &models.StateVector{
		ID:               "7b9d2c1e-0000-4000-8000-000000000001",
		AssetID:          "BTC-USD",
		Timestamp:        time.Date(2026, 8, 1, 12, 0, 0, 500, time.UTC),
		MarketSnapshotID: "ms-1",
		IndicatorSetID:   "is-1",
		Flow:             &models.FlowParams{Speed: 1.81, Direction: 0.7},
		Pulse:            &models.PulseParams{Amplitude: 0.4, Frequency: 1.2},
		Weather:          &models.WeatherParams{Density: 0.5, Turbulence: 0.3, Storm: 0},
		Force:            &models.ForceParams{Density: 0.5, Shock: 0},
		Visual: &models.VisualProps{
			Palette:    models.Palette{Primary: "#1faa59", Secondary: "#36c97d", Accent: "#b4f1c6", Background: "#06140b"},
			Label:      "Bull",
			Saturation: 1,
		},
		Events: []models.EventRecord{{
			ID:           "ev-random-1",
			Type:         models.EventVolumeSurge,
			Severity:     models.SeverityMedium,
			Timestamp:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			DurationHint: 5 * time.Second,
			Params:       map[string]string{"ratio": "3.5", "strength": "0.5"},
		}},
		SafetyLevel:    models.SafetyNormal,
		DegradedFields: nil,
		MappingVersion: "vmap-1.0.0",
	}
}

func TestCanonicalBytesDeterministic(t *testing.T) {
	a := CanonicalBytes(sampleVector())
	b := CanonicalBytes(sampleVector())
	if !bytes.Equal(a, b) {
		t.Fatalf("canonical bytes differ across runs")
	}
	if Digest(sampleVector()) != Digest(sampleVector()) {
		t.Fatalf("digest differs across runs")
	}
}

func TestCanonicalBytesExcludeAttribution(t *testing.T) {
	v := sampleVector()
	base := Digest(v)

	v.Digest = "aaaa"
	v.Signature = "bbbb"
	v.SignerID = "authority-1"
	if Digest(v) != base {
		t.Fatalf("digest covered the attribution block")
	}

	// Random event reference ids are excluded; event content is not.
	v.Events[0].ID = "ev-random-2"
	if Digest(v) != base {
		t.Fatalf("digest covered the event reference id")
	}
	v.Events[0].Severity = models.SeverityHigh
	if Digest(v) == base {
		t.Fatalf("digest missed an event content change")
	}
}

func TestCanonicalBytesSensitiveToContent(t *testing.T) {
	base := Digest(sampleVector())

	v := sampleVector()
	v.Flow.Speed = 1.82
	if Digest(v) == base {
		t.Fatalf("digest missed a flow change")
	}

	v = sampleVector()
	v.MappingVersion = "vmap-1.1.0"
	if Digest(v) == base {
		t.Fatalf("digest missed a version change")
	}

	v = sampleVector()
	v.Flow = nil
	if Digest(v) == base {
		t.Fatalf("digest missed a nulled dimension")
	}
}

func TestCanonicalDegradedFieldOrderIndependent(t *testing.T) {
	v1 := sampleVector()
	v1.DegradedFields = []string{"weather.storm", "force.shock"}
	v2 := sampleVector()
	v2.DegradedFields = []string{"force.shock", "weather.storm"}
	if Digest(v1) != Digest(v2) {
		t.Fatalf("degraded-field order leaked into the digest")
	}
}

type stubSigner struct {
	signature string
	signerID  string
	err       error
	gotDigest string
}

func (s *stubSigner) Sign(ctx context.Context, digest string) (string, string, error) {
	s.gotDigest = digest
	if s.err != nil {
		return "", "", s.err
	}
	return s.signature, s.signerID, nil
}

func TestSealAttachesSignature(t *testing.T) {
	signer := &stubSigner{signature: "sig-1", signerID: "authority-1"}
	a := NewAssembler(signer, time.Second)
	v := sampleVector()

	if err := a.Seal(context.Background(), v); err != nil {
		t.Fatalf("seal: %v", err)
	}
	if v.Digest == "" || v.Signature != "sig-1" || v.SignerID != "authority-1" {
		t.Fatalf("vector not sealed: %+v", v)
	}
	if signer.gotDigest != v.Digest {
		t.Fatalf("signed digest %s != attached digest %s", signer.gotDigest, v.Digest)
	}
	if err := Verify(v); err != nil {
		t.Fatalf("verify after seal: %v", err)
	}
}

func TestSealFailsClosed(t *testing.T) {
	signer := &stubSigner{err: errors.New("authority unreachable")}
	a := NewAssembler(signer, time.Second)
	v := sampleVector()

	err := a.Seal(context.Background(), v)
	var serr *SigningError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SigningError", err)
	}
	if v.Digest != "" || v.Signature != "" || v.SignerID != "" {
		t.Fatalf("vector partially sealed after failure: %+v", v)
	}
}

func TestSealRejectsEmptySignature(t *testing.T) {
	a := NewAssembler(&stubSigner{signature: "", signerID: "authority-1"}, time.Second)
	err := a.Seal(context.Background(), sampleVector())
	var serr *SigningError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SigningError for placeholder signature", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	a := NewAssembler(&stubSigner{signature: "sig", signerID: "auth"}, time.Second)
	v := sampleVector()
	if err := a.Seal(context.Background(), v); err != nil {
		t.Fatalf("seal: %v", err)
	}
	v.Force.Shock = 0.9
	var ierr *IntegrityError
	if err := Verify(v); !errors.As(err, &ierr) {
		t.Fatalf("err = %v, want IntegrityError", err)
	}
}
