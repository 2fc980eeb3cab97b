package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	textElementRE = regexp.MustCompile(`<text start="([^"]*)" dur="([^"]*)">([^<]*)</text>`)
	numberPrefix  = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// parseCaptions turns a timedtext document into fragments in document order.
// Text is kept exactly as it appears, entities included.
func parseCaptions(doc, lang string) []Fragment {
	matches := textElementRE.FindAllStringSubmatch(doc, -1)
	fragments := make([]Fragment, 0, len(matches))
	for _, m := range matches {
		fragments = append(fragments, Fragment{
			Text:     m[3],
			Offset:   parseSeconds(m[1]),
			Duration: parseSeconds(m[2]),
			Lang:     lang,
		})
	}
	return fragments
}

// parseSeconds reads the leading number of s and ignores whatever follows.
// Values with no numeric prefix read as 0.
func parseSeconds(s string) float64 {
	prefix := numberPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return v
}
