package detection

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/fingerprint"
)

// Analyzer collects Signals for capture requests. A nil Tracker skips
// timing analysis.
type Analyzer struct {
	Tracker TimingTracker
	Now     func() time.Time
}

func NewAnalyzer(tracker TimingTracker) *Analyzer {
	return &Analyzer{Tracker: tracker, Now: time.Now}
}

// Analyze inspects r and its raw body. clientKey identifies the client for
// timing purposes (the server passes a salted IP hash).
func (a *Analyzer) Analyze(ctx context.Context, r *http.Request, body []byte, clientKey string, c fingerprint.Components) Signals {
	sig := Signals{
		HeaderFingerprint: headerFingerprint(r.Header),
		Headers:           analyzeHeaders(r.Header),
		UserAgent:         analyzeUserAgent(r.UserAgent()),
		Consistency:       checkConsistency(r.Header, c),
		Payload:           PayloadSignals{Size: len(body), Entropy: payloadEntropy(body)},
	}
	if a.Tracker != nil && clientKey != "" {
		sig.Timing = a.timing(ctx, clientKey)
	}
	return sig
}

func (a *Analyzer) timing(ctx context.Context, key string) TimingSignals {
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}

	var sig TimingSignals
	last, ok, err := a.Tracker.LastRequest(ctx, key)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("timing lookup failed")
	} else if ok {
		gap := now.Sub(last)
		sig.HasPreviousRequest = true
		sig.IntervalMs = float64(gap.Nanoseconds()) / 1e6
		sig.IntervalPrecision = intervalPrecision(gap.Milliseconds())
	}

	if err := a.Tracker.RecordRequest(ctx, key, now); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("timing record failed")
	}
	return sig
}
