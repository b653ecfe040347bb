package browser

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortontech/devprint/internal/fingerprint"
	"github.com/shortontech/devprint/pkg/config"
)

func TestIsUnsupported(t *testing.T) {
	assert.False(t, isUnsupported(nil))
	assert.False(t, isUnsupported(errors.New("eval: boom")))
	assert.True(t, isUnsupported(errors.New("eval js error: Error: unsupported: WEBGL_debug_renderer_info")))
}

// Drives a real Chromium when DEVPRINT_TEST_BROWSER is set.
func TestLiveCapture(t *testing.T) {
	if os.Getenv("DEVPRINT_TEST_BROWSER") == "" {
		t.Skip("DEVPRINT_TEST_BROWSER not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b, err := Launch(ctx, config.CaptureConfig{Headless: true, BrowserBin: os.Getenv("DEVPRINT_TEST_BROWSER_BIN")})
	require.NoError(t, err)
	defer b.Close()

	engine := fingerprint.NewEngine(b.Sources(), fingerprint.Options{AudioTimeout: 2 * time.Second})
	first, err := engine.Generate(ctx)
	require.NoError(t, err)

	assert.Len(t, first.Hash, 64)
	assert.True(t, first.Components.Canvas.Hash.OK(), "canvas should render in Chromium")
	assert.NotEmpty(t, first.Components.Browser.UserAgent)
	assert.Greater(t, first.Components.Screen.Width, 0)
	assert.NotEmpty(t, first.Components.Timezone.Timezone)

	second, err := engine.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Components.Canvas.Hash, second.Components.Canvas.Hash, "canvas is stable within a session")
	assert.GreaterOrEqual(t, fingerprint.Compare(first, second).Similarity, 70)
}
