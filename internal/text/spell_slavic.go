package text

import (
	"strconv"
	"strings"
)

// forms holds the one/few/many noun forms selected by Plural.
type forms [3]string

func (f forms) of(n int64) string { return Plural(n, f[0], f[1], f[2]) }

// slavicSpeller spells Russian and Ukrainian numbers. Numerals are masculine
// by default; thousands and the fractional parts of decimals agree with
// feminine nouns.
type slavicSpeller struct {
	zero      string
	onesMasc  [10]string
	onesFem   [3]string
	teens     [10]string
	tens      [10]string
	hundreds  [10]string
	scales    []forms // thousand, million, ...
	minusWord string
	comma     string
	whole     forms
	fracUnits []forms // tenths, hundredths, thousandths
}

var ruSpeller = &slavicSpeller{
	zero:     "ноль",
	onesMasc: [10]string{"", "один", "два", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"},
	onesFem:  [3]string{"", "одна", "две"},
	teens: [10]string{
		"десять", "одиннадцать", "двенадцать", "тринадцать", "четырнадцать",
		"пятнадцать", "шестнадцать", "семнадцать", "восемнадцать", "девятнадцать",
	},
	tens: [10]string{
		"", "", "двадцать", "тридцать", "сорок", "пятьдесят",
		"шестьдесят", "семьдесят", "восемьдесят", "девяносто",
	},
	hundreds: [10]string{
		"", "сто", "двести", "триста", "четыреста", "пятьсот",
		"шестьсот", "семьсот", "восемьсот", "девятьсот",
	},
	scales: []forms{
		{"тысяча", "тысячи", "тысяч"},
		{"миллион", "миллиона", "миллионов"},
		{"миллиард", "миллиарда", "миллиардов"},
		{"триллион", "триллиона", "триллионов"},
		{"квадриллион", "квадриллиона", "квадриллионов"},
		{"квинтиллион", "квинтиллиона", "квинтиллионов"},
	},
	minusWord: "минус",
	comma:     "запятая",
	whole:     forms{"целая", "целых", "целых"},
	fracUnits: []forms{
		{"десятая", "десятых", "десятых"},
		{"сотая", "сотых", "сотых"},
		{"тысячная", "тысячных", "тысячных"},
	},
}

var ukSpeller = &slavicSpeller{
	zero:     "нуль",
	onesMasc: [10]string{"", "один", "два", "три", "чотири", "п'ять", "шість", "сім", "вісім", "дев'ять"},
	onesFem:  [3]string{"", "одна", "дві"},
	teens: [10]string{
		"десять", "одинадцять", "дванадцять", "тринадцять", "чотирнадцять",
		"п'ятнадцять", "шістнадцять", "сімнадцять", "вісімнадцять", "дев'ятнадцять",
	},
	tens: [10]string{
		"", "", "двадцять", "тридцять", "сорок", "п'ятдесят",
		"шістдесят", "сімдесят", "вісімдесят", "дев'яносто",
	},
	hundreds: [10]string{
		"", "сто", "двісті", "триста", "чотириста", "п'ятсот",
		"шістсот", "сімсот", "вісімсот", "дев'ятсот",
	},
	scales: []forms{
		{"тисяча", "тисячі", "тисяч"},
		{"мільйон", "мільйони", "мільйонів"},
		{"мільярд", "мільярди", "мільярдів"},
		{"трильйон", "трильйони", "трильйонів"},
		{"квадрильйон", "квадрильйони", "квадрильйонів"},
		{"квінтильйон", "квінтильйони", "квінтильйонів"},
	},
	minusWord: "мінус",
	comma:     "кома",
	whole:     forms{"ціла", "цілих", "цілих"},
	fracUnits: []forms{
		{"десята", "десятих", "десятих"},
		{"сота", "сотих", "сотих"},
		{"тисячна", "тисячних", "тисячних"},
	},
}

func (s *slavicSpeller) minus() string { return s.minusWord }

func (s *slavicSpeller) cardinal(n uint64) string {
	return s.spell(n, false)
}

func (s *slavicSpeller) spell(n uint64, feminine bool) string {
	if n == 0 {
		return s.zero
	}
	gs := groups(n)
	parts := make([]string, 0, len(gs)*4)
	for i := len(gs) - 1; i >= 0; i-- {
		g := gs[i]
		if g == 0 {
			continue
		}
		fem := feminine
		if i == 1 {
			fem = true
		} else if i > 1 {
			fem = false
		}
		parts = append(parts, s.triplet(g, fem)...)
		if i > 0 {
			parts = append(parts, s.scales[i-1].of(int64(g)))
		}
	}
	return strings.Join(parts, " ")
}

func (s *slavicSpeller) triplet(n int, feminine bool) []string {
	var out []string
	if h := n / 100; h > 0 {
		out = append(out, s.hundreds[h])
	}
	r := n % 100
	switch {
	case r >= 10 && r < 20:
		out = append(out, s.teens[r-10])
	default:
		if t := r / 10; t > 0 {
			out = append(out, s.tens[t])
		}
		if u := r % 10; u > 0 {
			if feminine && u <= 2 {
				out = append(out, s.onesFem[u])
			} else {
				out = append(out, s.onesMasc[u])
			}
		}
	}
	return out
}

// decimal renders "2.5" as "две целых пять десятых". Fractions longer than
// the known units fall back to "<int> запятая <digits>".
func (s *slavicSpeller) decimal(d Decimal) string {
	if len(d.Frac) > len(s.fracUnits) {
		return s.cardinal(d.Int) + " " + s.comma + " " + spellDigits(d.Frac, s.digit)
	}
	frac, _ := strconv.ParseUint(d.Frac, 10, 64)
	unit := s.fracUnits[len(d.Frac)-1]
	return s.spell(d.Int, true) + " " + s.whole.of(int64(d.Int%100)) + " " +
		s.spell(frac, true) + " " + unit.of(int64(frac))
}

func (s *slavicSpeller) digit(i int) string {
	if i == 0 {
		return s.zero
	}
	return s.onesMasc[i]
}
