package detection

import "strings"

var uaAutomationKeywords = []string{
	"headless", "selenium", "webdriver", "puppeteer",
	"playwright", "phantom", "jsdom", "nightmare",
	"automated", "bot", "crawler",
}

func analyzeUserAgent(ua string) UASignals {
	lower := strings.ToLower(ua)
	sig := UASignals{
		Length:             len(ua),
		AutomationKeywords: []string{},
		Platform:           uaPlatform(lower),
	}
	for _, k := range uaAutomationKeywords {
		if strings.Contains(lower, k) {
			sig.AutomationKeywords = append(sig.AutomationKeywords, k)
		}
	}
	return sig
}

// uaPlatform maps a lowercased user agent to an OS family. iOS is checked
// first because its agents also say "Mac OS X".
func uaPlatform(lower string) string {
	switch {
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"):
		return "iOS"
	case strings.Contains(lower, "android"):
		return "Android"
	case strings.Contains(lower, "windows"):
		return "Windows"
	case strings.Contains(lower, "mac"):
		return "macOS"
	case strings.Contains(lower, "linux"), strings.Contains(lower, "cros"):
		return "Linux"
	}
	return ""
}

// navigatorPlatform maps navigator.platform to the same families. Android
// reports a Linux platform string, so Linux matches both.
func navigatorPlatform(p string) []string {
	lower := strings.ToLower(p)
	switch {
	case strings.HasPrefix(lower, "win"):
		return []string{"Windows"}
	case strings.HasPrefix(lower, "mac"):
		return []string{"macOS", "iOS"}
	case strings.HasPrefix(lower, "iphone"), strings.HasPrefix(lower, "ipad"), strings.HasPrefix(lower, "ipod"):
		return []string{"iOS"}
	case strings.HasPrefix(lower, "linux"), strings.HasPrefix(lower, "android"):
		return []string{"Linux", "Android"}
	}
	return nil
}
