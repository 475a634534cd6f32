package site

import (
	"bytes"
	"html/template"
	"strings"
	"unicode"
)

// DefaultTruncateLength is the truncation limit used when a template
// doesn't pass one explicitly.
const DefaultTruncateLength = 200

// truncate shortens a string to at most limit bytes, appending "..."
// when anything was cut. The limit defaults to DefaultTruncateLength.
// Slicing is byte-based and can split a multi-byte character, which
// matches how the site has always rendered truncated descriptions.
func truncate(v any, limit ...int) string {
	s := asString(v)
	if s == "" {
		return ""
	}
	n := DefaultTruncateLength
	if len(limit) > 0 {
		n = limit[0]
	}
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// markdown converts a markdown string to HTML. On conversion failure
// the input is escaped and returned as-is rather than failing the page.
func (b *Builder) markdown(v any) template.HTML {
	var buf bytes.Buffer
	s := asString(v)
	if err := b.md.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

// safeHTML marks a trusted string as safe for direct HTML output.
func safeHTML(v any) template.HTML {
	return template.HTML(asString(v))
}

// slugify lowercases a string and collapses every non-alphanumeric run
// into a single dash, for use in anchors and output filenames.
func slugify(v any) string {
	var builder strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(asString(v)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			builder.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(builder.String(), "-")
}
