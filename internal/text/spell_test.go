package text

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestSpellInt(t *testing.T) {
	tests := []struct {
		lang string
		n    int64
		want string
	}{
		{"en", 0, "zero"},
		{"en", 13, "thirteen"},
		{"en", 21, "twenty-one"},
		{"en", 105, "one hundred and five"},
		{"en", 1005, "one thousand and five"},
		{"en", 2345, "two thousand three hundred and forty-five"},
		{"en", 1_000_000, "one million"},
		{"en", -7, "minus seven"},
		{"ru", 1, "один"},
		{"ru", 2, "два"},
		{"ru", 1000, "одна тысяча"},
		{"ru", 2000, "две тысячи"},
		{"ru", 5000, "пять тысяч"},
		{"ru", 21, "двадцать один"},
		{"ru", 2_000_000, "два миллиона"},
		{"ru", -3, "минус три"},
		{"uk", 2000, "дві тисячі"},
		{"uk", 5, "п'ять"},
		{"de", 1, "eins"},
		{"de", 21, "einundzwanzig"},
		{"de", 101, "einhunderteins"},
		{"de", 1000, "eintausend"},
		{"de", 1_000_000, "eine Million"},
		{"de", 3_000_000, "drei Millionen"},
		{"es", 1, "uno"},
		{"es", 100, "cien"},
		{"es", 101, "ciento uno"},
		{"es", 35, "treinta y cinco"},
		{"es", 21000, "veintiún mil"},
		{"es", 1_000_000, "un millón"},
		{"es", -2, "menos dos"},
		{"fr", 21, "vingt et un"},
		{"fr", 71, "soixante et onze"},
		{"fr", 80, "quatre-vingts"},
		{"fr", 99, "quatre-vingt-dix-neuf"},
		{"fr", 200, "deux cents"},
		{"fr", 200_000, "deux cent mille"},
		{"fr", 1000, "mille"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+itoa(tt.n), func(t *testing.T) {
			got, err := SpellInt(tt.n, tt.lang)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SpellInt(%d, %q) = %q, want %q", tt.n, tt.lang, got, tt.want)
			}
		})
	}
}

func TestSpellIntUnsupported(t *testing.T) {
	_, err := SpellInt(5, "tlh")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    Decimal
		wantErr bool
	}{
		{in: "3.14", want: Decimal{Int: 3, Frac: "14"}},
		{in: "-0.50", want: Decimal{Negative: true, Int: 0, Frac: "5"}},
		{in: "7.000", want: Decimal{Int: 7, Frac: "0"}},
		{in: "7", wantErr: true},
		{in: ".5", wantErr: true},
		{in: "1.x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimal(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimal(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSpellDecimal(t *testing.T) {
	tests := []struct {
		lang string
		in   string
		want string
	}{
		{"en", "3.14", "three point one four"},
		{"en", "-0.5", "minus zero point five"},
		{"ru", "1.5", "одна целая пять десятых"},
		{"ru", "2.25", "две целых двадцать пять сотых"},
		{"ru", "0.0001", "ноль запятая ноль ноль ноль один"},
		{"uk", "1.5", "одна ціла п'ять десятих"},
		{"de", "2.5", "zwei Komma fünf"},
		{"fr", "1.5", "un virgule cinq"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.in, func(t *testing.T) {
			d, err := ParseDecimal(tt.in)
			if err != nil {
				t.Fatalf("ParseDecimal: %v", err)
			}
			got, err := SpellDecimal(d, tt.lang)
			if err != nil {
				t.Fatalf("SpellDecimal: %v", err)
			}
			if got != tt.want {
				t.Errorf("SpellDecimal(%q, %q) = %q, want %q", tt.in, tt.lang, got, tt.want)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "one"}, {21, "one"}, {101, "one"},
		{2, "few"}, {4, "few"}, {22, "few"}, {34, "few"},
		{0, "many"}, {5, "many"}, {11, "many"}, {12, "many"}, {14, "many"}, {111, "many"}, {112, "many"},
	}
	for _, tt := range tests {
		if got := Plural(tt.n, "one", "few", "many"); got != tt.want {
			t.Errorf("Plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := map[string]string{
		"en":    "en",
		"en_US": "en",
		"ru-RU": "ru",
		"UA":    "uk",
		" de ":  "de",
	}
	for in, want := range tests {
		if got := BaseLanguage(in); got != want {
			t.Errorf("BaseLanguage(%q) = %q, want %q", in, got, want)
		}
	}
	if !Supported("ua") || Supported("xx") {
		t.Fatal("Supported mismatch")
	}
}

func TestSpellClock(t *testing.T) {
	tests := []struct {
		h, m int
		lang string
		want string
	}{
		{9, 5, "en", "nine hours five minutes"},
		{1, 0, "en", "one hour"},
		{0, 1, "en", "zero hours one minute"},
		{1, 1, "ru", "один час одна минута"},
		{4, 32, "ru", "четыре часа тридцать две минуты"},
		{12, 12, "ru", "двенадцать часов двенадцать минут"},
		{21, 0, "ru", "двадцать один час"},
		{3, 45, "uk", "три години сорок п'ять хвилин"},
	}
	for _, tt := range tests {
		got, err := SpellClock(tt.h, tt.m, tt.lang)
		if err != nil {
			t.Fatalf("SpellClock(%d, %d, %q): %v", tt.h, tt.m, tt.lang, err)
		}
		if got != tt.want {
			t.Errorf("SpellClock(%d, %d, %q) = %q, want %q", tt.h, tt.m, tt.lang, got, tt.want)
		}
	}
}

func TestPluralMatchesLastTwoDigits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.Int64Range(0, 1_000_000).Draw(rt, "n")
		if Plural(n, "a", "b", "c") != Plural(n%100, "a", "b", "c") {
			rt.Fatalf("Plural(%d) differs from Plural(%d)", n, n%100)
		}
	})
}

func TestSpellIntAlwaysSucceedsForSupportedLanguages(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lang := rapid.SampledFrom([]string{"en", "ru", "uk", "de", "es", "fr"}).Draw(rt, "lang")
		n := rapid.Int64().Draw(rt, "n")
		got, err := SpellInt(n, lang)
		if err != nil {
			rt.Fatalf("SpellInt(%d, %q): %v", n, lang, err)
		}
		if got == "" {
			rt.Fatalf("SpellInt(%d, %q) returned empty string", n, lang)
		}
	})
}
