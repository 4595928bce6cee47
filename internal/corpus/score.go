package corpus

import "strings"

// PhraseDifficulty scores a phrase from 0 to 100 by length and grammar markers
func PhraseDifficulty(phrase string) float64 {
	score := len(strings.Split(phrase, " "))*10 + len(phrase)

	if strings.Contains(phrase, "of") || strings.Contains(phrase, "to") || strings.Contains(phrase, "for") {
		score += 5
	}
	if strings.Contains(phrase, "ing") || strings.Contains(phrase, "ed") || strings.Contains(phrase, "s ") {
		score += 3
	}

	if score > 100 {
		score = 100
	}
	return float64(score)
}
