package text

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedLanguage is returned when no number speller exists for a
// language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// speller renders non-negative numbers as words in one language.
type speller interface {
	cardinal(n uint64) string
	decimal(d Decimal) string
	minus() string
}

var spellers = map[string]speller{
	"en": enSpeller{},
	"ru": ruSpeller,
	"uk": ukSpeller,
	"de": deSpeller{},
	"es": esSpeller{},
	"fr": frSpeller{},
}

// BaseLanguage reduces a language tag to the code used for spelling:
// lower-cased, region stripped ("en_US" -> "en"), and Silero's "ua" mapped
// to "uk".
func BaseLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "ua" {
		return "uk"
	}
	return lang
}

// Supported reports whether numbers can be spelled in lang.
func Supported(lang string) bool {
	_, ok := spellers[BaseLanguage(lang)]
	return ok
}

func lookupSpeller(lang string) (speller, error) {
	sp, ok := spellers[BaseLanguage(lang)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return sp, nil
}

// SpellInt renders n as words in lang.
func SpellInt(n int64, lang string) (string, error) {
	sp, err := lookupSpeller(lang)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return sp.minus() + " " + sp.cardinal(uint64(-n)), nil
	}
	return sp.cardinal(uint64(n)), nil
}

// Decimal is a parsed real-number literal. Frac holds the fractional digits
// without trailing zeros, but at least one digit.
type Decimal struct {
	Negative bool
	Int      uint64
	Frac     string
}

// ParseDecimal parses "[-]digits.digits".
func ParseDecimal(s string) (Decimal, error) {
	var d Decimal
	if strings.HasPrefix(s, "-") {
		d.Negative = true
		s = s[1:]
	}
	whole, frac, ok := strings.Cut(s, ".")
	if !ok || whole == "" || frac == "" {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	n, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return Decimal{}, fmt.Errorf("invalid decimal %q", s)
		}
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}
	d.Int = n
	d.Frac = frac
	return d, nil
}

// SpellDecimal renders d as words in lang.
func SpellDecimal(d Decimal, lang string) (string, error) {
	sp, err := lookupSpeller(lang)
	if err != nil {
		return "", err
	}
	out := sp.decimal(d)
	if d.Negative {
		out = sp.minus() + " " + out
	}
	return out, nil
}

// Plural selects the noun form that agrees with n under Russian and
// Ukrainian rules: one for 1, 21, 31...; few for 2-4, 22-24...; many
// otherwise (including 11-19).
func Plural(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	n10, n100 := n%10, n%100
	switch {
	case n10 == 1 && n100 != 11:
		return one
	case n10 >= 2 && n10 <= 4 && (n100 < 10 || n100 >= 20):
		return few
	default:
		return many
	}
}

// groups splits n into base-1000 groups, least significant first.
func groups(n uint64) []int {
	if n == 0 {
		return []int{0}
	}
	var out []int
	for n > 0 {
		out = append(out, int(n%1000))
		n /= 1000
	}
	return out
}

// spellDigits renders each fractional digit with words[digit].
func spellDigits(frac string, words func(int) string) string {
	parts := make([]string, 0, len(frac))
	for _, r := range frac {
		parts = append(parts, words(int(r-'0')))
	}
	return strings.Join(parts, " ")
}
