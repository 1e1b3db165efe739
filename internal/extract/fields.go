package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rupeeRe    = regexp.MustCompile(`₹[<!>\s-]*([0-9]+(?:\.[0-9]+)?)`)
	nonNumeric = regexp.MustCompile(`[^\d.]`)
)

// Field applies re to block and returns the first capture group as clean
// text. Returns "" when re does not match or has no capture.
func Field(block string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(block)
	if len(m) < 2 {
		return ""
	}
	return CleanText(m[1])
}

// Amount applies re to block and parses the first capture group as a price,
// ignoring currency glyphs and separators. Returns nil when re does not
// match or the capture holds no digits.
func Amount(block string, re *regexp.Regexp) *float64 {
	raw := Field(block, re)
	if raw == "" {
		return nil
	}
	digits := nonNumeric.ReplaceAllString(raw, "")
	if digits == "" {
		return nil
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Rupees returns every ₹-prefixed amount in block, in document order.
// Markup and comment fragments between the glyph and the digits are
// tolerated (sources interleave them for hydration).
func Rupees(block string) []float64 {
	var out []float64
	for _, m := range rupeeRe.FindAllStringSubmatch(block, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// FirstRupee returns the first ₹-prefixed amount in block, nil when absent.
func FirstRupee(block string) *float64 {
	all := Rupees(block)
	if len(all) == 0 {
		return nil
	}
	return &all[0]
}

// AbsoluteURL prefixes base onto href unless href is already absolute.
func AbsoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return base + href
}
