// Package text rewrites spoken-form artifacts in synthesis input: clock
// times and numeric literals become words in the request language.
package text

import (
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	timePattern   = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)
	// tagPattern matches markup tags; their names and attribute values are
	// never rewritten.
	tagPattern = regexp.MustCompile(`<[/!?]?[A-Za-z][^>]*>`)
)

const logPrefixRunes = 50

// Normalizer converts times and numbers to words. It is stateless and safe
// for concurrent use.
type Normalizer struct {
	log *slog.Logger
}

// NewNormalizer returns a Normalizer that reports token failures to log.
// A nil logger discards them.
func NewNormalizer(log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{log: log}
}

var discardNormalizer = NewNormalizer(nil)

// Normalize converts times and numbers in s to words in lang without
// logging.
func Normalize(s, lang string) string {
	return discardNormalizer.Normalize(s, lang)
}

// Normalize rewrites "H:MM" clock times first, then the remaining numeric
// literals. A token that cannot be converted keeps its original text; the
// other tokens are still converted. Text inside markup tags is left as is.
func (n *Normalizer) Normalize(s, lang string) string {
	lang = BaseLanguage(lang)

	out := mapTextContent(s, func(seg string) string {
		return n.numbers(n.times(seg, lang), lang)
	})

	if out != s {
		n.log.Info("normalized text",
			slog.String("language", lang),
			slog.String("before", Prefix(s, logPrefixRunes)),
			slog.String("after", Prefix(out, logPrefixRunes)),
		)
	}
	return out
}

func (n *Normalizer) times(s, lang string) string {
	return timePattern.ReplaceAllStringFunc(s, func(match string) string {
		h, m, _ := strings.Cut(match, ":")
		hours, err := strconv.Atoi(h)
		if err != nil {
			n.warnToken("time", match, err)
			return match
		}
		minutes, err := strconv.Atoi(m)
		if err != nil {
			n.warnToken("time", match, err)
			return match
		}
		spoken, err := SpellClock(hours, minutes, lang)
		if err != nil {
			n.warnToken("time", match, err)
			return match
		}
		return spoken
	})
}

func (n *Normalizer) numbers(s, lang string) string {
	return numberPattern.ReplaceAllStringFunc(s, func(token string) string {
		spoken, err := spellNumber(token, lang)
		if err != nil {
			n.warnToken("number", token, err)
			return token
		}
		return spoken
	})
}

// spellNumber treats a comma as the decimal separator. A literal with a
// separator is a real number, otherwise an integer.
func spellNumber(token, lang string) (string, error) {
	literal := strings.ReplaceAll(token, ",", ".")
	if strings.Contains(literal, ".") {
		d, err := ParseDecimal(literal)
		if err != nil {
			return "", err
		}
		return SpellDecimal(d, lang)
	}
	v, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return "", err
	}
	return SpellInt(v, lang)
}

func (n *Normalizer) warnToken(kind, token string, err error) {
	n.log.Warn("failed to convert "+kind+", keeping original",
		slog.String("token", token),
		slog.String("error", err.Error()),
	)
}

// mapTextContent applies fn to the text between markup tags.
func mapTextContent(s string, fn func(string) string) string {
	locs := tagPattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return fn(s)
	}
	var b strings.Builder
	b.Grow(len(s) * 2)
	prev := 0
	for _, loc := range locs {
		b.WriteString(fn(s[prev:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		prev = loc[1]
	}
	b.WriteString(fn(s[prev:]))
	return b.String()
}

// Prefix returns at most n runes of s, with "..." appended when truncated.
func Prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}
