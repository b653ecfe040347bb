package logging

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigureWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ConfigureWriter(&buf, "info", "json"))
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	log.Debug().Msg("hidden")
	log.Info().Str("hash", "abc").Msg("captured")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "captured", entry["message"])
	assert.Equal(t, "abc", entry["hash"])
	assert.Equal(t, "devprint", entry["service"])
}

func TestConfigureWriterRedirectsStdlog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ConfigureWriter(&buf, "debug", "json"))
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	stdlog.Print("from a library")
	assert.Contains(t, buf.String(), "from a library")
	assert.Contains(t, buf.String(), `"source":"stdlog"`)
}

func TestConfigureWriterRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, ConfigureWriter(&bytes.Buffer{}, "info", "xml"))
}
