// Package ssml builds the markup documents handed to the synthesis engine.
package ssml

import (
	"encoding/xml"
	"html"
	"regexp"
	"strings"
)

const (
	rootOpen  = "<speak>"
	rootClose = "</speak>"
)

var (
	openRootPattern = regexp.MustCompile(`^<speak(?:\s[^>]*)?>`)
	rootTagPattern  = regexp.MustCompile(`</?speak(?:\s[^>]*)?/?>`)
	tagPattern      = regexp.MustCompile(`<[/!?]?[A-Za-z][^<>]*>`)
	entityPattern   = regexp.MustCompile(`^&(?:amp|lt|gt|quot|apos|#[0-9]{1,7}|#x[0-9A-Fa-f]{1,6});`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// Directives are the process-wide prosody and pause settings. An empty field
// is not configured.
type Directives struct {
	Rate          string `mapstructure:"prosody_rate"`
	Pitch         string `mapstructure:"prosody_pitch"`
	BreakTime     string `mapstructure:"break_time"`
	BreakStrength string `mapstructure:"break_strength"`
}

// Enabled reports whether any directive is configured.
func (d Directives) Enabled() bool {
	return d.hasProsody() || d.hasBreak()
}

func (d Directives) hasProsody() bool { return d.Rate != "" || d.Pitch != "" }
func (d Directives) hasBreak() bool   { return d.BreakTime != "" || d.BreakStrength != "" }

// Compose applies d to text. With no directives the text is returned as is.
// Otherwise an existing <speak> root is unwrapped, the content is wrapped in
// a prosody element when rate or pitch is set, a break element is appended
// when time or strength is set, and the result is wrapped in a single
// <speak> root.
//
// Stray root tags inside the content are dropped. A bare '&' or a '<' that
// does not open a tag is escaped, so text such as "Tom & Jerry" still yields
// a well-formed document.
func Compose(text string, d Directives) string {
	if !d.Enabled() {
		return text
	}

	inner := text
	if body, ok := unwrapRoot(text); ok {
		inner = body
	}
	inner = escapeContent(rootTagPattern.ReplaceAllString(inner, ""))

	var b strings.Builder
	b.Grow(len(inner) + 96)
	b.WriteString(rootOpen)
	if d.hasProsody() {
		b.WriteString("<prosody")
		writeAttr(&b, "rate", d.Rate)
		writeAttr(&b, "pitch", d.Pitch)
		b.WriteByte('>')
		b.WriteString(inner)
		b.WriteString("</prosody>")
	} else {
		b.WriteString(inner)
	}
	if d.hasBreak() {
		b.WriteString("<break")
		writeAttr(&b, "time", d.BreakTime)
		writeAttr(&b, "strength", d.BreakStrength)
		b.WriteString("/>")
	}
	b.WriteString(rootClose)
	return b.String()
}

// IsDocument reports whether s, ignoring surrounding whitespace, begins with
// the <speak> root tag. Documents go to the engine's markup entry point.
func IsDocument(s string) bool {
	return openRootPattern.MatchString(strings.TrimSpace(s))
}

// StripTags reduces a markup document to its spoken text: tags are removed,
// entities decoded and whitespace runs collapsed. Plain text is returned
// unchanged.
func StripTags(s string) string {
	if !IsDocument(s) {
		return s
	}
	out := tagPattern.ReplaceAllString(s, " ")
	out = html.UnescapeString(out)
	return strings.TrimSpace(spacePattern.ReplaceAllString(out, " "))
}

// unwrapRoot returns the content of a complete <speak>...</speak> document.
func unwrapRoot(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	open := openRootPattern.FindString(trimmed)
	if open == "" || !strings.HasSuffix(trimmed, rootClose) {
		return "", false
	}
	if len(trimmed) < len(open)+len(rootClose) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(open) : len(trimmed)-len(rootClose)]), true
}

// escapeContent escapes the characters of s that cannot appear raw in XML
// character data. Tags and the predefined or numeric entities are kept.
func escapeContent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range tagPattern.FindAllStringIndex(s, -1) {
		escapeBare(&b, s[last:loc[0]])
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	escapeBare(&b, s[last:])
	return b.String()
}

func escapeBare(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '<':
			b.WriteString("&lt;")
		case '&':
			if ent := entityPattern.FindString(s[i:]); ent != "" {
				b.WriteString(ent)
				i += len(ent) - 1
			} else {
				b.WriteString("&amp;")
			}
		default:
			b.WriteByte(c)
		}
	}
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(b, []byte(value))
	b.WriteByte('"')
}
