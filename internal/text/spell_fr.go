package text

import "strings"

var (
	frUnits = [17]string{
		"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf",
		"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize",
	}
	frTens   = [7]string{"", "", "vingt", "trente", "quarante", "cinquante", "soixante"}
	frScales = [][2]string{
		{"million", "millions"},
		{"milliard", "milliards"},
		{"billion", "billions"},
		{"billiard", "billiards"},
		{"trillion", "trillions"},
	}
)

type frSpeller struct{}

func (frSpeller) minus() string { return "moins" }

func (frSpeller) cardinal(n uint64) string {
	if n == 0 {
		return frUnits[0]
	}
	gs := groups(n)
	var parts []string
	for i := len(gs) - 1; i >= 0; i-- {
		g := gs[i]
		if g == 0 {
			continue
		}
		switch {
		case i == 0:
			parts = append(parts, frBelowThousand(g, true))
		case i == 1 && g == 1:
			parts = append(parts, "mille")
		case i == 1:
			// "mille" is invariable and blocks the plural of cent/vingt.
			parts = append(parts, frBelowThousand(g, false)+" mille")
		case g == 1:
			parts = append(parts, "un "+frScales[i-2][0])
		default:
			parts = append(parts, frBelowThousand(g, true)+" "+frScales[i-2][1])
		}
	}
	return strings.Join(parts, " ")
}

func (s frSpeller) decimal(d Decimal) string {
	return s.cardinal(d.Int) + " virgule " + spellDigits(d.Frac, func(i int) string { return frUnits[i] })
}

// frBelowThousand spells 1..999. plural controls the trailing "s" of
// "deux cents" and "quatre-vingts", which is dropped before "mille".
func frBelowThousand(n int, plural bool) string {
	h, r := n/100, n%100
	var out string
	switch {
	case h == 1:
		out = "cent"
	case h > 1:
		out = frUnits[h] + " cent"
		if r == 0 && plural {
			out += "s"
		}
	}
	if r == 0 {
		return out
	}
	rest := frBelowHundred(r)
	if r == 80 && !plural {
		rest = "quatre-vingt"
	}
	if out == "" {
		return rest
	}
	return out + " " + rest
}

func frBelowHundred(n int) string {
	switch {
	case n < 17:
		return frUnits[n]
	case n < 20:
		return "dix-" + frUnits[n-10]
	}
	t, u := n/10, n%10
	switch t {
	case 7:
		if u == 1 {
			return "soixante et onze"
		}
		return "soixante-" + frBelowHundred(n-60)
	case 8:
		if u == 0 {
			return "quatre-vingts"
		}
		return "quatre-vingt-" + frBelowHundred(u)
	case 9:
		return "quatre-vingt-" + frBelowHundred(n-80)
	}
	switch u {
	case 0:
		return frTens[t]
	case 1:
		return frTens[t] + " et un"
	default:
		return frTens[t] + "-" + frUnits[u]
	}
}
