package model

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

const testCatalog = `
stt_models:
  en:
    latest:
      jit: https://models.silero.ai/models/en/en_v6.jit
tts_models:
  en:
    v3_en:
      latest:
        example: 'Can you can a canned can into an un-canned can?'
        package: 'https://models.silero.ai/models/tts/en/v3_en.pt'
        sample_rate: [8000, 24000, 48000]
    lj_16khz:
      latest:
        jit: 'https://models.silero.ai/models/tts/en/v1_lj_16000.jit'
        sample_rate: 16000
  ru:
    v4_ru:
      latest:
        package: 'https://models.silero.ai/models/tts/ru/v4_ru.pt'
        sample_rate: [8000, 24000, 48000]
  multi:
    multi_v2:
      latest:
        package: 'https://models.silero.ai/models/tts/multi/v2_multi.pt'
        sample_rate: [8000, 16000]
`

func mustParse(t *testing.T, data string) *Catalog {
	t.Helper()
	c, err := ParseCatalog([]byte(data))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	return c
}

func TestParseCatalog(t *testing.T) {
	c := mustParse(t, testCatalog)

	if got := c.Languages(); !slices.Equal(got, []string{"en", "multi", "ru"}) {
		t.Fatalf("Languages = %v", got)
	}
	if got := c.Models("en"); !slices.Equal(got, []string{"lj_16khz", "v3_en"}) {
		t.Errorf("Models(en) = %v", got)
	}
	if got := c.Models("xx"); len(got) != 0 {
		t.Errorf("Models(xx) = %v", got)
	}
	v3 := c.TTSModels["en"]["v3_en"].Latest
	if !slices.Equal(v3.SampleRate, SampleRates{8000, 24000, 48000}) {
		t.Errorf("v3_en sample rates = %v", v3.SampleRate)
	}
	lj := c.TTSModels["en"]["lj_16khz"].Latest
	if !slices.Equal(lj.SampleRate, SampleRates{16000}) {
		t.Errorf("scalar sample rate = %v", lj.SampleRate)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	for name, data := range map[string]string{
		"not yaml":       ":\t:bad yaml:::",
		"no tts section": "stt_models:\n  en: {}\n",
		"bad rate":       "tts_models:\n  en:\n    m:\n      latest:\n        sample_rate: {a: 1}\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	c := mustParse(t, testCatalog)

	rel, err := c.Resolve("en", "v3_en")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rel.Package != "https://models.silero.ai/models/tts/en/v3_en.pt" {
		t.Errorf("package = %q", rel.Package)
	}

	rel, err = c.Resolve("de", "multi_v2")
	if err != nil {
		t.Fatalf("Resolve multi_v2: %v", err)
	}
	if !strings.HasSuffix(rel.Package, "v2_multi.pt") {
		t.Errorf("multi package = %q", rel.Package)
	}
}

func TestResolveErrors(t *testing.T) {
	c := mustParse(t, testCatalog)

	tests := []struct {
		name, lang, model string
		contains          string
		noPackage         bool
	}{
		{"unknown language", "xx", "v3_en", "available: en, multi, ru", false},
		{"unknown model", "ru", "v9_ru", "available: v4_ru", false},
		{"jit only", "en", "lj_16khz", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Resolve(tt.lang, tt.model)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.noPackage != errors.Is(err, ErrNoPackage) {
				t.Errorf("ErrNoPackage mismatch: %v", err)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not mention %q", err, tt.contains)
			}
		})
	}
}

func TestCatalogLanguage(t *testing.T) {
	if got := CatalogLanguage("ru", "multi_v2"); got != "multi" {
		t.Errorf("multi_v2 section = %q", got)
	}
	if got := CatalogLanguage("ua", "v4_ua"); got != "ua" {
		t.Errorf("v4_ua section = %q", got)
	}
}

func TestSampleRatesSupports(t *testing.T) {
	rates := SampleRates{8000, 24000, 48000}
	if !rates.Supports(48000) || rates.Supports(22050) {
		t.Error("Supports mismatch")
	}
	if !(SampleRates{}).Supports(12345) {
		t.Error("empty list should support any rate")
	}
}
