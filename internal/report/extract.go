// Package report isolates the HTML document lw-scanner produces and rewrites
// it so it can be served under a content security policy that forbids
// inline styles.
package report

import (
	"regexp"
	"strings"
)

const (
	doctypeMarker = "<!DOCTYPE html>"
	htmlClose     = "</html>"
)

var inlineStyleBlock = regexp.MustCompile(`(?s)<style>(.*?)</style>`)

// ExtractHTML returns the document starting at the first doctype marker and
// ending after the last closing html tag, together with whatever preceded
// it. ok is false when raw contains no document at all.
func ExtractHTML(raw string) (html, preamble string, ok bool) {
	start := strings.Index(raw, doctypeMarker)
	if start == -1 {
		return "", raw, false
	}

	end := strings.LastIndex(raw, htmlClose)
	if end < start {
		// Truncated report: keep everything after the marker.
		return raw[start:], raw[:start], true
	}
	return raw[start : end+len(htmlClose)], raw[:start], true
}

// ExtractCSS concatenates the bodies of every <style> block in raw, each
// followed by a newline. It scans the whole text, including anything ahead
// of the HTML document.
func ExtractCSS(raw string) string {
	var css strings.Builder
	for _, m := range inlineStyleBlock.FindAllStringSubmatch(raw, -1) {
		css.WriteString(m[1])
		css.WriteString("\n")
	}
	return css.String()
}
