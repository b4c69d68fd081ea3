package story

import (
	"fmt"
	"math"
	"strings"
)

const wordsPerSecond = 2.5

// EstimateDuration derives the display duration for narration text, one
// second per 2.5 words rounded up, formatted like "4s".
func EstimateDuration(text string) string {
	words := len(strings.Fields(text))
	seconds := int(math.Ceil(float64(words) / wordsPerSecond))
	return fmt.Sprintf("%ds", seconds)
}

// NormalizeMood trims a free-form mood label and substitutes fallback when
// the label is blank. The label is otherwise kept as written.
func NormalizeMood(mood, fallback string) string {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return fallback
	}
	return mood
}
