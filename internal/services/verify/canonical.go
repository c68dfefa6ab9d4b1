// Package verify canonicalizes, digests and signs assembled state vectors.
package verify

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

// canonicalPrefix versions the canonical encoding itself, independently of
// the mapping version. Bump only if the byte layout below ever changes.
const canonicalPrefix = "svc1"

// CanonicalBytes serializes every content field of a state vector in a
// fixed order with a fixed number encoding, so the same logical state always
// yields the same byte sequence. Excluded: Digest, Signature and SignerID
// (the attribution block the digest protects), and the random reference ids
// of embedded events (their content is covered, their identity is not, so
// replay with fresh event ids reproduces the recorded digest).
func CanonicalBytes(v *models.StateVector) []byte {
	var b bytes.Buffer
	b.WriteString(canonicalPrefix)
	writeField(&b, "id", v.ID)
	writeField(&b, "asset", v.AssetID)
	writeField(&b, "ts", formatTime(v.Timestamp))
	writeField(&b, "market_snapshot", v.MarketSnapshotID)
	writeField(&b, "indicator_set", v.IndicatorSetID)

	if v.Flow == nil {
		writeField(&b, "flow", "null")
	} else {
		writeField(&b, "flow", "speed:"+formatFloat(v.Flow.Speed)+",direction:"+formatFloat(v.Flow.Direction))
	}
	if v.Pulse == nil {
		writeField(&b, "pulse", "null")
	} else {
		writeField(&b, "pulse", "amplitude:"+formatFloat(v.Pulse.Amplitude)+",frequency:"+formatFloat(v.Pulse.Frequency))
	}
	if v.Weather == nil {
		writeField(&b, "weather", "null")
	} else {
		writeField(&b, "weather", "density:"+formatFloat(v.Weather.Density)+
			",turbulence:"+formatFloat(v.Weather.Turbulence)+
			",storm:"+formatFloat(v.Weather.Storm))
	}
	if v.Force == nil {
		writeField(&b, "force", "null")
	} else {
		writeField(&b, "force", "density:"+formatFloat(v.Force.Density)+",shock:"+formatFloat(v.Force.Shock))
	}

	if v.Visual == nil {
		writeField(&b, "visual", "null")
	} else {
		writeField(&b, "visual", "primary:"+v.Visual.Palette.Primary+
			",secondary:"+v.Visual.Palette.Secondary+
			",accent:"+v.Visual.Palette.Accent+
			",background:"+v.Visual.Palette.Background+
			",label:"+v.Visual.Label+
			",saturation:"+formatFloat(v.Visual.Saturation)+
			",overlay:"+v.Visual.Overlay)
	}

	for _, ev := range v.Events {
		writeField(&b, "event", canonicalEvent(ev))
	}

	writeField(&b, "safety", string(v.SafetyLevel))

	degraded := append([]string(nil), v.DegradedFields...)
	sort.Strings(degraded)
	writeField(&b, "degraded", joinStrings(degraded))

	writeField(&b, "version", v.MappingVersion)
	return b.Bytes()
}

// Digest is the SHA-256 content digest of the canonical bytes, hex encoded.
func Digest(v *models.StateVector) string {
	sum := sha256.Sum256(CanonicalBytes(v))
	return hex.EncodeToString(sum[:])
}

func canonicalEvent(ev models.EventRecord) string {
	var b bytes.Buffer
	b.WriteString("type:" + string(ev.Type))
	b.WriteString(",severity:" + string(ev.Severity))
	b.WriteString(",ts:" + formatTime(ev.Timestamp))
	b.WriteString(",duration_ms:" + strconv.FormatInt(ev.DurationHint.Milliseconds(), 10))
	keys := make([]string, 0, len(ev.Params))
	for k := range ev.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("," + k + "=" + ev.Params[k])
	}
	return b.String()
}

func writeField(b *bytes.Buffer, name, value string) {
	b.WriteByte('\n')
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
}

// formatTime pins timestamps to UTC nanoseconds; no implementation-dependent
// formatting may leak into the canonical form.
func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UTC().UnixNano(), 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinStrings(ss []string) string {
	var b bytes.Buffer
	for i, s := range ss {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s)
	}
	return b.String()
}
