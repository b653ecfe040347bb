// Package detection derives server-side signals from a capture request and
// cross-checks them against the fingerprint the client reported.
package detection

// Signals is everything the server observed about one capture request.
type Signals struct {
	HeaderFingerprint string         `json:"header_fingerprint"`
	Headers           HeaderSignals  `json:"headers"`
	UserAgent         UASignals      `json:"user_agent"`
	Consistency       []string       `json:"consistency_flags"`
	Timing            TimingSignals  `json:"timing"`
	Payload           PayloadSignals `json:"payload"`
}

type HeaderSignals struct {
	MissingExpected   []string `json:"missing_expected"`
	AutomationHeaders []string `json:"automation_headers"`
	Names             []string `json:"names"`
	Count             int      `json:"count"`
}

type UASignals struct {
	Length             int      `json:"length"`
	AutomationKeywords []string `json:"automation_keywords"`
	Platform           string   `json:"platform"`
}

// TimingSignals describes the gap since the previous capture from the same
// client key.
type TimingSignals struct {
	IntervalMs         float64 `json:"interval_ms"`
	IntervalPrecision  int     `json:"interval_precision"`
	HasPreviousRequest bool    `json:"has_previous_request"`
}

type PayloadSignals struct {
	Size    int     `json:"size"`
	Entropy float64 `json:"entropy"`
}

// Suspicious reports whether any automation or consistency flag fired.
func (s Signals) Suspicious() bool {
	return len(s.Headers.AutomationHeaders) > 0 ||
		len(s.UserAgent.AutomationKeywords) > 0 ||
		len(s.Consistency) > 0
}
