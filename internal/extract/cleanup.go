package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText strips markup from an HTML fragment and returns plain text:
// tags and comments removed, non-breaking spaces normalized, whitespace runs
// collapsed to a single space, result trimmed. Idempotent: cleaning
// already-clean text returns it unchanged.
//
// Entities other than &nbsp; are left encoded. Decoding &lt;b&gt; would mint
// tag-like text that a second pass strips, breaking idempotence.
func CleanText(fragment string) string {
	var b strings.Builder
	tz := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tz.Raw())
			b.WriteByte(' ')
		}
	}

	s := strings.ReplaceAll(b.String(), "&nbsp;", " ")
	s = strings.ReplaceAll(s, " ", " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
