package fingerprint

import (
	"strings"

	"github.com/avct/uasurfer"
)

// DeviceSummary is a display-oriented reading of a user agent. It plays no
// part in hashing or comparison.
type DeviceSummary struct {
	IsMobile  bool   `json:"isMobile"`
	IsTablet  bool   `json:"isTablet"`
	IsDesktop bool   `json:"isDesktop"`
	OS        string `json:"os"`
	Browser   string `json:"browser"`
}

// Summarize classifies a user agent string.
func Summarize(userAgent string) DeviceSummary {
	ua := uasurfer.Parse(userAgent)

	s := DeviceSummary{
		OS:      osFamily(ua.OS.Name, ua.OS.Platform),
		Browser: browserFamily(userAgent),
	}
	switch ua.DeviceType {
	case uasurfer.DevicePhone, uasurfer.DeviceWearable:
		s.IsMobile = true
	case uasurfer.DeviceTablet:
		s.IsTablet = true
	}
	s.IsDesktop = !s.IsMobile && !s.IsTablet
	return s
}

// osFamily maps the parsed OS, falling back on the platform when the
// version token is too new for the parser (macOS 11 and later report as
// unknown).
func osFamily(name uasurfer.OSName, platform uasurfer.Platform) string {
	switch name {
	case uasurfer.OSWindows, uasurfer.OSWindowsPhone:
		return "Windows"
	case uasurfer.OSMacOSX:
		return "macOS"
	case uasurfer.OSiOS:
		return "iOS"
	case uasurfer.OSAndroid:
		return "Android"
	case uasurfer.OSLinux, uasurfer.OSChromeOS:
		return "Linux"
	}
	switch platform {
	case uasurfer.PlatformWindows, uasurfer.PlatformWindowsPhone:
		return "Windows"
	case uasurfer.PlatformMac:
		return "macOS"
	case uasurfer.PlatformiPad, uasurfer.PlatformiPhone, uasurfer.PlatformiPod:
		return "iOS"
	case uasurfer.PlatformLinux:
		return "Linux"
	default:
		return "Unknown"
	}
}

// browserFamily keeps Chromium forks apart; Edge and Opera both carry a
// Chrome token.
func browserFamily(ua string) string {
	lower := strings.ToLower(ua)
	edge := strings.Contains(lower, "edg/") || strings.Contains(lower, "edge/") ||
		strings.Contains(lower, "edga/") || strings.Contains(lower, "edgios/")
	opera := strings.Contains(lower, "opr/") || strings.Contains(lower, "opera")
	switch {
	case edge:
		return "Edge"
	case opera:
		return "Opera"
	case strings.Contains(lower, "firefox"):
		return "Firefox"
	case strings.Contains(lower, "chrome"), strings.Contains(lower, "crios"):
		return "Chrome"
	case strings.Contains(lower, "safari"):
		return "Safari"
	default:
		return "Unknown"
	}
}
