package extract

import (
	"regexp"
	"strings"
	"sync"
)

var (
	tagRegexps   = make(map[string]*regexp.Regexp)
	tagRegexpsMu sync.Mutex
)

func tagRegexp(tag string) *regexp.Regexp {
	tagRegexpsMu.Lock()
	defer tagRegexpsMu.Unlock()
	re, ok := tagRegexps[tag]
	if !ok {
		re = regexp.MustCompile(`(?i)<` + regexp.QuoteMeta(tag) + `\b[^>]*>|</` + regexp.QuoteMeta(tag) + `>`)
		tagRegexps[tag] = re
	}
	return re
}

// BalancedRegion returns the span of doc starting at the first occurrence of
// startMarker and ending where the nesting depth of tag elements returns to
// zero. Product grids nest the same element arbitrarily deep, so matching the
// first closing tag would truncate early; counting open/close pairs does not.
//
// Returns "" when startMarker is absent. When the markup never closes the
// region, the scan terminates at end of input and everything from the marker
// onward is returned.
func BalancedRegion(doc, startMarker, tag string) string {
	start := strings.Index(doc, startMarker)
	if start == -1 {
		return ""
	}

	re := tagRegexp(tag)
	depth := 0
	end := len(doc)
	for _, loc := range re.FindAllStringIndex(doc[start:], -1) {
		if strings.HasPrefix(strings.ToLower(doc[start+loc[0]:start+loc[1]]), "</") {
			depth--
		} else {
			depth++
		}
		if depth == 0 {
			end = start + loc[1]
			break
		}
	}
	return doc[start:end]
}
