package fingerprint

import (
	"math"
	"sort"
)

// Comparison is the weighted similarity between two fingerprints.
type Comparison struct {
	Similarity         int        `json:"similarity"`
	MatchingComponents []Category `json:"matchingComponents"`
}

type comparator struct {
	category Category
	weight   int
	equal    func(a, b Components) bool
}

var comparators = []comparator{
	{CategoryCanvas, 30, func(a, b Components) bool { return a.Canvas.Hash == b.Canvas.Hash }},
	{CategoryWebGL, 25, func(a, b Components) bool { return a.WebGL.UnmaskedRenderer == b.WebGL.UnmaskedRenderer }},
	{CategoryAudio, 15, func(a, b Components) bool { return a.Audio.Hash == b.Audio.Hash }},
	{CategoryScreen, 15, func(a, b Components) bool {
		return a.Screen.Width == b.Screen.Width && a.Screen.Height == b.Screen.Height
	}},
	{CategoryTimezone, 10, func(a, b Components) bool { return a.Timezone.Timezone == b.Timezone.Timezone }},
	{CategoryPlatform, 5, func(a, b Components) bool { return a.Browser.Platform == b.Browser.Platform }},
}

// Compare scores how likely a and b come from the same device. Matching
// categories are listed in weight order. Acting on the score is left to
// the caller.
func Compare(a, b DeviceFingerprint) Comparison {
	var matched, total int
	out := Comparison{MatchingComponents: []Category{}}
	for _, c := range comparators {
		total += c.weight
		if c.equal(a.Components, b.Components) {
			matched += c.weight
			out.MatchingComponents = append(out.MatchingComponents, c.category)
		}
	}
	out.Similarity = int(math.Round(100 * float64(matched) / float64(total)))
	return out
}

// Match is one stored fingerprint that resembles a capture.
type Match struct {
	Fingerprint DeviceFingerprint
	Index       int // position in the candidates slice
	Comparison
}

// RankMatches compares fp against candidates and keeps those at or above
// min similarity, strongest first, newer first among ties. limit <= 0 keeps
// them all.
func RankMatches(fp DeviceFingerprint, candidates []DeviceFingerprint, min, limit int) []Match {
	out := make([]Match, 0, len(candidates))
	for i, c := range candidates {
		cmp := Compare(fp, c)
		if cmp.Similarity < min {
			continue
		}
		out = append(out, Match{Fingerprint: c, Index: i, Comparison: cmp})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Fingerprint.GeneratedAt.After(out[j].Fingerprint.GeneratedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
