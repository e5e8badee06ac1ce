// Package quiz parses LLM-authored exam blocks and grades free-text
// multiple-choice answers against the answer key.
package quiz

import (
	"regexp"
	"strconv"
	"strings"
)

var answerRe = regexp.MustCompile(`(?i)(\d+)\s*([a-d])`)

// ParseAnswers extracts "<number><letter>" pairs such as "1a 2 c, 3B" from text.
// Numbers outside 1..total are dropped, letters are upper-cased, and a later
// answer for the same question replaces an earlier one. An empty map means
// nothing recognisable was found.
func ParseAnswers(text string, total int) map[int]string {
	clean := strings.NewReplacer(",", " ", ";", " ").Replace(text)

	result := make(map[int]string)
	for _, m := range answerRe.FindAllStringSubmatch(clean, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > total {
			continue
		}
		result[n] = strings.ToUpper(m[2])
	}
	return result
}
