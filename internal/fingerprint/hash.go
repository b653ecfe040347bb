package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// canonical is the stable subset of Components that feeds the hash. Field
// order is the serialized key order and must not change.
type canonical struct {
	CanvasHash    string   `json:"canvasHash"`
	WebGLRenderer string   `json:"webglRenderer"`
	AudioHash     string   `json:"audioHash"`
	ScreenRes     string   `json:"screenRes"`
	PixelRatio    float64  `json:"pixelRatio"`
	Timezone      string   `json:"timezone"`
	Platform      string   `json:"platform"`
	Cores         int      `json:"cores"`
	Memory        float64  `json:"memory"`
	Fonts         []string `json:"fonts"`
}

// Canonicalize serializes the hashed subset of c deterministically. User
// agent, languages, plugins and the raw canvas image are left out.
func Canonicalize(c Components) ([]byte, error) {
	fonts := append([]string{}, c.Fonts...)
	sort.Strings(fonts)

	doc := canonical{
		CanvasHash:    c.Canvas.Hash.String(),
		WebGLRenderer: c.WebGL.UnmaskedRenderer.String(),
		AudioHash:     c.Audio.Hash.String(),
		ScreenRes:     fmt.Sprintf("%dx%d", c.Screen.Width, c.Screen.Height),
		PixelRatio:    c.Screen.PixelRatio,
		Timezone:      c.Timezone.Timezone,
		Platform:      c.Browser.Platform,
		Cores:         c.Browser.HardwareConcurrency,
		Memory:        c.Browser.DeviceMemory,
		Fonts:         fonts,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("canonicalize components: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Hash returns the lowercase hex SHA-256 of the canonical form of c.
func Hash(c Components) (string, error) {
	b, err := Canonicalize(c)
	if err != nil {
		return "", err
	}
	return sha256Hex(string(b)), nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
