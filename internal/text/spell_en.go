package text

import "strings"

var (
	enOnes = [20]string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	enTens = [10]string{
		"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
	}
	enScales = []string{
		"", "thousand", "million", "billion", "trillion", "quadrillion", "quintillion",
	}
)

type enSpeller struct{}

func (enSpeller) minus() string { return "minus" }

// cardinal uses British "and" placement: 105 -> "one hundred and five",
// 1005 -> "one thousand and five".
func (enSpeller) cardinal(n uint64) string {
	if n < 20 {
		return enOnes[n]
	}
	gs := groups(n)
	parts := make([]string, 0, len(gs)*2)
	for i := len(gs) - 1; i >= 0; i-- {
		g := gs[i]
		if g == 0 {
			continue
		}
		leadingAnd := i == 0 && g < 100 && len(gs) > 1
		words := enBelowThousand(g)
		if leadingAnd {
			words = "and " + words
		}
		if enScales[i] != "" {
			words += " " + enScales[i]
		}
		parts = append(parts, words)
	}
	return strings.Join(parts, " ")
}

func (s enSpeller) decimal(d Decimal) string {
	return s.cardinal(d.Int) + " point " + spellDigits(d.Frac, func(i int) string { return enOnes[i] })
}

func enBelowThousand(n int) string {
	if n < 100 {
		return enBelowHundred(n)
	}
	out := enOnes[n/100] + " hundred"
	if r := n % 100; r > 0 {
		out += " and " + enBelowHundred(r)
	}
	return out
}

func enBelowHundred(n int) string {
	if n < 20 {
		return enOnes[n]
	}
	out := enTens[n/10]
	if u := n % 10; u > 0 {
		out += "-" + enOnes[u]
	}
	return out
}
