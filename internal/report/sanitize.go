package report

import (
	"os"
	"regexp"
	"strings"

	"github.com/gounthar/lacework-security-scanner-plugin/internal/scanner"
)

// StylesheetLink references the externalized stylesheet from the report head.
const StylesheetLink = `<link rel="stylesheet" type="text/css" href="` + scanner.StylesheetName + `">`

var styleElement = regexp.MustCompile(`(?s)<style.*?(/>|</style>)`)

// Sanitize drops every style element from html and links the external
// stylesheet instead. The link goes before the last </head>; documents
// without a head get it before the last </body>, or at the very end.
func Sanitize(html string) string {
	html = styleElement.ReplaceAllString(html, "")

	if i := strings.LastIndex(html, "</head>"); i != -1 {
		return html[:i] + StylesheetLink + html[i:]
	}
	if i := strings.LastIndex(html, "</body>"); i != -1 {
		return html[:i] + StylesheetLink + html[i:]
	}
	return html + StylesheetLink
}

// WriteFile stores text as UTF-8, replacing any existing file.
func WriteFile(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

// CopyFile copies src to dst, replacing dst.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
