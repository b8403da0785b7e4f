package nlp

import (
	"regexp"
	"strconv"
	"strings"
)

var digitPattern = regexp.MustCompile(`\b(\d+)\b`)

type IndexExtractor struct {
	indexWords map[string]int
}

func NewIndexExtractor() *IndexExtractor {
	return &IndexExtractor{
		indexWords: map[string]int{
			// Ordinals
			"first":   0,
			"second":  1,
			"third":   2,
			"fourth":  3,
			"fifth":   4,
			"sixth":   5,
			"seventh": 6,
			"eighth":  7,
			"ninth":   8,
			"tenth":   9,

			// Cardinals
			"one":   0,
			"two":   1,
			"three": 2,
			"four":  3,
			"five":  4,
			"six":   5,
			"seven": 6,
			"eight": 7,
			"nine":  8,
			"ten":   9,
		},
	}
}

// ExtractIndex returns the zero-based index named in text. A digit
// sequence always wins over index words; "0" yields -1 which no list
// can contain.
func (ie *IndexExtractor) ExtractIndex(text string) (int, bool) {
	text = strings.ToLower(text)

	if m := digitPattern.FindStringSubmatch(text); len(m) > 1 {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return -1, true
		}
		return n - 1, true
	}

	for _, word := range strings.Fields(text) {
		if idx, ok := ie.indexWords[word]; ok {
			return idx, true
		}
	}

	return -1, false
}
