package text

import "strings"

var (
	deOnes = [20]string{
		"null", "eins", "zwei", "drei", "vier", "fünf", "sechs", "sieben", "acht", "neun",
		"zehn", "elf", "zwölf", "dreizehn", "vierzehn", "fünfzehn", "sechzehn",
		"siebzehn", "achtzehn", "neunzehn",
	}
	deTens = [10]string{
		"", "", "zwanzig", "dreißig", "vierzig", "fünfzig", "sechzig", "siebzig", "achtzig", "neunzig",
	}
	deScales = [][2]string{
		{"Million", "Millionen"},
		{"Milliarde", "Milliarden"},
		{"Billion", "Billionen"},
		{"Billiarde", "Billiarden"},
		{"Trillion", "Trillionen"},
	}
)

type deSpeller struct{}

func (deSpeller) minus() string { return "minus" }

func (deSpeller) cardinal(n uint64) string {
	if n == 0 {
		return deOnes[0]
	}
	gs := groups(n)
	var parts []string
	for i := len(gs) - 1; i >= 2; i-- {
		g := gs[i]
		if g == 0 {
			continue
		}
		switch {
		case g == 1:
			parts = append(parts, "eine "+deScales[i-2][0])
		case g%100 == 1:
			parts = append(parts, deBelowThousand(g, false)+"e "+deScales[i-2][1])
		default:
			parts = append(parts, deBelowThousand(g, false)+" "+deScales[i-2][1])
		}
	}

	var low string
	if len(gs) > 1 && gs[1] > 0 {
		low = deBelowThousand(gs[1], false) + "tausend"
	}
	if gs[0] > 0 {
		low += deBelowThousand(gs[0], true)
	}
	if low != "" {
		parts = append(parts, low)
	}
	return strings.Join(parts, " ")
}

func (s deSpeller) decimal(d Decimal) string {
	return s.cardinal(d.Int) + " Komma " + spellDigits(d.Frac, func(i int) string { return deOnes[i] })
}

// deBelowThousand spells 1..999; final selects "eins" over the compound
// form "ein" for a trailing one.
func deBelowThousand(n int, final bool) string {
	var out string
	if h := n / 100; h > 0 {
		if h == 1 {
			out = "einhundert"
		} else {
			out = deOnes[h] + "hundert"
		}
	}
	if r := n % 100; r > 0 {
		out += deBelowHundred(r, final)
	}
	return out
}

func deBelowHundred(n int, final bool) string {
	if n == 1 && !final {
		return "ein"
	}
	if n < 20 {
		return deOnes[n]
	}
	t, u := n/10, n%10
	if u == 0 {
		return deTens[t]
	}
	unit := deOnes[u]
	if u == 1 {
		unit = "ein"
	}
	return unit + "und" + deTens[t]
}
