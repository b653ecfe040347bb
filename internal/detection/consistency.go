package detection

import (
	"net/http"
	"slices"
	"strings"

	"github.com/shortontech/devprint/internal/fingerprint"
)

// Consistency flags.
const (
	FlagUserAgentMismatch = "ua-mismatch"
	FlagPlatformMismatch  = "platform-mismatch"
	FlagLanguageMismatch  = "language-mismatch"
	FlagSoftwareRenderer  = "software-renderer"
	FlagNoCores           = "no-hardware-concurrency"
	FlagNoScreen          = "no-screen"
	FlagDeviceInfo        = "device-info-mismatch"
)

var softwareRenderers = []string{"swiftshader", "llvmpipe", "softpipe", "mesa offscreen", "microsoft basic render"}

// checkConsistency compares what the request says about the client with
// what the submitted fingerprint says.
func checkConsistency(h http.Header, c fingerprint.Components) []string {
	flags := []string{}
	headerUA := h.Get("User-Agent")

	if headerUA != "" && c.Browser.UserAgent != "" && headerUA != c.Browser.UserAgent {
		flags = append(flags, FlagUserAgentMismatch)
	}

	if fam := uaPlatform(strings.ToLower(headerUA)); fam != "" {
		if allowed := navigatorPlatform(c.Browser.Platform); allowed != nil && !slices.Contains(allowed, fam) {
			flags = append(flags, FlagPlatformMismatch)
		}
	}

	if al := h.Get("Accept-Language"); al != "" && c.Browser.Language != "" {
		if primaryTag(al) != primaryTag(c.Browser.Language) {
			flags = append(flags, FlagLanguageMismatch)
		}
	}

	if r := c.WebGL.UnmaskedRenderer; r.OK() && containsAny(strings.ToLower(r.Value), softwareRenderers) != "" {
		flags = append(flags, FlagSoftwareRenderer)
	}
	if c.Browser.HardwareConcurrency <= 0 {
		flags = append(flags, FlagNoCores)
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		flags = append(flags, FlagNoScreen)
	}
	return flags
}

// primaryTag returns the lowercased primary language subtag of the first
// entry, so "en-US,en;q=0.9" and "en-GB" both give "en".
func primaryTag(s string) string {
	first := strings.TrimSpace(strings.SplitN(s, ",", 2)[0])
	first = strings.SplitN(first, ";", 2)[0]
	first = strings.SplitN(first, "-", 2)[0]
	return strings.ToLower(first)
}

// DeviceInfoMismatch reports whether the summary a client claims for itself
// disagrees with the one derived from its user agent. Empty claimed fields
// are not compared.
func DeviceInfoMismatch(claimed, derived fingerprint.DeviceSummary) bool {
	if claimed.OS != "" && !strings.EqualFold(claimed.OS, derived.OS) {
		return true
	}
	if claimed.Browser != "" && !strings.EqualFold(claimed.Browser, derived.Browser) {
		return true
	}
	return claimed.IsMobile != derived.IsMobile || claimed.IsTablet != derived.IsTablet
}
