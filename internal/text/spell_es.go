package text

import "strings"

var (
	esUnits = [30]string{
		"cero", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
		"diez", "once", "doce", "trece", "catorce", "quince", "dieciséis", "diecisiete",
		"dieciocho", "diecinueve", "veinte", "veintiuno", "veintidós", "veintitrés",
		"veinticuatro", "veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve",
	}
	esTens = [10]string{
		"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa",
	}
	esHundreds = [10]string{
		"", "ciento", "doscientos", "trescientos", "cuatrocientos", "quinientos",
		"seiscientos", "setecientos", "ochocientos", "novecientos",
	}
	// Long scale: each step is a factor of one million.
	esScales = [][2]string{
		{"millón", "millones"},
		{"billón", "billones"},
		{"trillón", "trillones"},
	}
)

type esSpeller struct{}

func (esSpeller) minus() string { return "menos" }

func (esSpeller) cardinal(n uint64) string {
	if n == 0 {
		return esUnits[0]
	}
	var parts []string
	var millions []int
	for m := n; m > 0; m /= 1_000_000 {
		millions = append(millions, int(m%1_000_000))
	}
	for i := len(millions) - 1; i >= 1; i-- {
		g := millions[i]
		if g == 0 {
			continue
		}
		if g == 1 {
			parts = append(parts, "un "+esScales[i-1][0])
		} else {
			parts = append(parts, esApocope(esBelowMillion(g))+" "+esScales[i-1][1])
		}
	}
	if millions[0] > 0 {
		parts = append(parts, esBelowMillion(millions[0]))
	}
	return strings.Join(parts, " ")
}

func (s esSpeller) decimal(d Decimal) string {
	return s.cardinal(d.Int) + " coma " + spellDigits(d.Frac, func(i int) string { return esUnits[i] })
}

func esBelowMillion(n int) string {
	th, r := n/1000, n%1000
	var parts []string
	switch {
	case th == 1:
		parts = append(parts, "mil")
	case th > 1:
		parts = append(parts, esApocope(esBelowThousand(th))+" mil")
	}
	if r > 0 {
		parts = append(parts, esBelowThousand(r))
	}
	return strings.Join(parts, " ")
}

func esBelowThousand(n int) string {
	if n == 100 {
		return "cien"
	}
	h, r := n/100, n%100
	if h == 0 {
		return esBelowHundred(r)
	}
	if r == 0 {
		return esHundreds[h]
	}
	return esHundreds[h] + " " + esBelowHundred(r)
}

func esBelowHundred(n int) string {
	if n < 30 {
		return esUnits[n]
	}
	t, u := n/10, n%10
	if u == 0 {
		return esTens[t]
	}
	return esTens[t] + " y " + esUnits[u]
}

// esApocope shortens a trailing "uno" before a noun: "veintiuno mil" is
// spoken "veintiún mil".
func esApocope(s string) string {
	switch {
	case strings.HasSuffix(s, "veintiuno"):
		return strings.TrimSuffix(s, "veintiuno") + "veintiún"
	case strings.HasSuffix(s, "uno"):
		return strings.TrimSuffix(s, "uno") + "un"
	default:
		return s
	}
}
