package contact

import "strings"

// htmlEscaper replaces & < > " ' / with entities. strings.Replacer makes a
// single pass, so entities it emits are never escaped again.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Sanitize escapes HTML-significant characters. It is not idempotent and
// must be applied exactly once, at ingestion.
func Sanitize(s string) string {
	return htmlEscaper.Replace(s)
}
