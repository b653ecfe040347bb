package fingerprint

import (
	"context"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultAudioTimeout bounds the wait for the first processed buffer.
const DefaultAudioTimeout = time.Second

var probeTone = ToneGraph{
	Waveform:   "triangle",
	Frequency:  10000,
	BufferSize: 4096,
	Gain:       0,
}

// collectAudio renders one buffer of a muted synthetic tone and digests the
// summed amplitude. The context is closed on every exit path.
func collectAudio(ctx context.Context, p AudioProvider, timeout time.Duration) AudioSignal {
	if p == nil {
		return AudioSignal{Hash: Unsupported()}
	}
	if timeout <= 0 {
		timeout = DefaultAudioTimeout
	}
	ac, err := p.NewContext(ctx)
	if err != nil {
		return AudioSignal{Hash: probeFailure(ctx, CategoryAudio, err)}
	}
	defer func() {
		if err := ac.Close(); err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("audio context close failed")
		}
	}()

	buffers, err := ac.Render(ctx, probeTone)
	if err != nil {
		return AudioSignal{Hash: probeFailure(ctx, CategoryAudio, err)}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case samples, ok := <-buffers:
		if !ok {
			return AudioSignal{Hash: Failed()}
		}
		return AudioSignal{Hash: Value(AudioDigest(samples)), SampleRate: ac.SampleRate()}
	case <-timer.C:
		log.Ctx(ctx).Info().Dur("timeout", timeout).Msg("audio probe timed out")
		return AudioSignal{Hash: TimedOut(), SampleRate: ac.SampleRate()}
	case <-ctx.Done():
		return AudioSignal{Hash: TimedOut(), SampleRate: ac.SampleRate()}
	}
}

// AudioDigest folds a rendered buffer into the sum of absolute sample
// magnitudes and hashes its decimal text. Both the text and the hash follow
// the web client byte for byte, so a capture taken by devprint and one
// taken in the page agree on the same device.
func AudioDigest(samples []float32) string {
	var sum float64
	for _, s := range samples {
		sum += math.Abs(float64(s))
	}
	return strconv.FormatUint(uint64(murmurCodeUnits(jsNumber(sum))), 16)
}

// jsNumber formats f the way Number.prototype.toString does: shortest
// round-trip digits, exponent form outside [1e-6, 1e21).
func jsNumber(f float64) string {
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) || math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(exp)
	if n < 0 {
		return mant + "e-" + strconv.Itoa(-n)
	}
	return mant + "e+" + strconv.Itoa(n)
}

// murmurCodeUnits is the 32-bit MurmurHash3 mixing applied to one character
// per round instead of 4-byte blocks, with the character count as length.
// Block-wise implementations such as spaolacci/murmur3 give different
// digests for the same text.
func murmurCodeUnits(s string) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
	)
	var h uint32
	for i := 0; i < len(s); i++ {
		k := uint32(s[i]) * c1
		k = bits.RotateLeft32(k, 15) * c2
		h ^= k
		h = bits.RotateLeft32(h, 13)*5 + 0xe6546b64
	}
	h ^= uint32(len(s))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
