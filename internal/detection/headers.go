package detection

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var expectedHeaders = []string{"User-Agent", "Accept", "Accept-Language", "Accept-Encoding"}

var automationKeywords = []string{"headless", "selenium", "webdriver", "puppeteer", "playwright"}

// presence of these headers alone is suspicious on a capture POST
var automationOnlyHeaders = []string{
	"Chrome-Proxy",
	"X-Devtools-Emulate-Network-Conditions-Client-Id",
}

func analyzeHeaders(h http.Header) HeaderSignals {
	sig := HeaderSignals{
		MissingExpected:   []string{},
		AutomationHeaders: []string{},
		Names:             sortedNames(h),
		Count:             len(h),
	}
	for _, name := range expectedHeaders {
		if h.Get(name) == "" {
			sig.MissingExpected = append(sig.MissingExpected, name)
		}
	}
	sig.AutomationHeaders = automationHeaders(h)
	return sig
}

func automationHeaders(h http.Header) []string {
	found := []string{}
	for _, name := range sortedNames(h) {
		for _, v := range h.Values(name) {
			if containsAny(strings.ToLower(v), automationKeywords) != "" {
				found = append(found, fmt.Sprintf("%s: %s", http.CanonicalHeaderKey(name), v))
				break
			}
		}
	}
	for _, name := range automationOnlyHeaders {
		if v := h.Get(name); v != "" {
			found = append(found, fmt.Sprintf("%s: %s", name, v))
		}
	}
	return found
}

// headerFingerprint hashes header names with a short value prefix. It is
// stable for one client stack and changes when the stack does.
func headerFingerprint(h http.Header) string {
	names := sortedNames(h)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		v := h.Get(name)
		if len(v) > 20 {
			v = v[:20] + "..."
		}
		parts = append(parts, name+":"+v)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:8])
}

func sortedNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)
	return names
}

func containsAny(s string, keywords []string) string {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return k
		}
	}
	return ""
}
