package quiz

import "strings"

// Evaluate scores a single-question check. The selected option matches the
// stored answer under trimming and Unicode case folding; a match scores 100,
// anything else scores 0. Submitting never completes a video.
func Evaluate(selected, answer string) float64 {
	if strings.EqualFold(strings.TrimSpace(selected), strings.TrimSpace(answer)) {
		return 100
	}
	return 0
}
