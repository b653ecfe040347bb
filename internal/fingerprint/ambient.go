package fingerprint

import (
	"context"
	"fmt"
)

func collectScreen(ctx context.Context, r ScreenReader) DisplaySignal {
	if r == nil {
		return DisplaySignal{}
	}
	return r.Screen(ctx)
}

func collectPlatform(ctx context.Context, r NavigatorReader) PlatformSignal {
	if r == nil {
		return PlatformSignal{}
	}
	sig := r.Navigator(ctx)
	if len(sig.Languages) == 0 && sig.Language != "" {
		sig.Languages = []string{sig.Language}
	} else {
		sig.Languages = append([]string(nil), sig.Languages...)
	}
	return sig
}

func collectTimezone(ctx context.Context, r TimezoneReader) TimezoneSignal {
	if r == nil {
		return TimezoneSignal{}
	}
	return r.Timezone(ctx)
}

// collectPlugins lists legacy plugins as name::filename. A missing or
// failing registry yields an empty set.
func collectPlugins(ctx context.Context, r PluginRegistry) []string {
	out := []string{}
	if r == nil {
		return out
	}
	plugins, err := r.Plugins(ctx)
	if err != nil {
		probeFailure(ctx, CategoryPlugins, err)
		return out
	}
	for _, p := range plugins {
		out = append(out, fmt.Sprintf("%s::%s", p.Name, p.Filename))
	}
	return out
}
