package fingerprint

// Breakdown lists the confidence points each category earned.
type Breakdown struct {
	Canvas   int `json:"canvas"`
	WebGL    int `json:"webgl"`
	Audio    int `json:"audio"`
	Screen   int `json:"screen"`
	Fonts    int `json:"fonts"`
	Cores    int `json:"cores"`
	Timezone int `json:"timezone"`
}

const (
	pointsCanvas   = 25
	pointsWebGL    = 20
	pointsAudio    = 15
	pointsScreen   = 10
	pointsFonts    = 15
	pointsCores    = 10
	pointsTimezone = 5

	maxConfidence = 100
)

// Score breaks down how much signal the capture carried. It says nothing
// about how unique the fingerprint is.
func Score(c Components) Breakdown {
	var b Breakdown
	if c.Canvas.Hash.OK() {
		b.Canvas = pointsCanvas
	}
	if c.WebGL.UnmaskedRenderer.OK() {
		b.WebGL = pointsWebGL
	}
	// A timed out render still proves an audio stack exists.
	if st := c.Audio.Hash.Status; st != StatusError && st != StatusUnsupported {
		b.Audio = pointsAudio
	}
	if c.Screen.Width > 0 {
		b.Screen = pointsScreen
	}
	if len(c.Fonts) > 0 {
		b.Fonts = pointsFonts
	}
	if c.Browser.HardwareConcurrency > 0 {
		b.Cores = pointsCores
	}
	if c.Timezone.Timezone != "" {
		b.Timezone = pointsTimezone
	}
	return b
}

// Total sums the breakdown, capped at 100.
func (b Breakdown) Total() int {
	t := b.Canvas + b.WebGL + b.Audio + b.Screen + b.Fonts + b.Cores + b.Timezone
	if t > maxConfidence {
		return maxConfidence
	}
	return t
}

// Confidence is Score(c).Total().
func Confidence(c Components) int {
	return Score(c).Total()
}
