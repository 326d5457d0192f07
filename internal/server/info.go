package server

import (
	"runtime/debug"

	"github.com/example/go-wyoming-silero/internal/tts"
	"github.com/example/go-wyoming-silero/internal/wyoming"
)

var sileroAttribution = wyoming.Attribution{
	Name: "Silero",
	URL:  "https://github.com/snakers4/silero-models",
}

// AdvertisedLanguage maps Silero language codes to the tags clients expect.
func AdvertisedLanguage(lang string) string {
	if lang == "ua" {
		return "uk"
	}
	return lang
}

// BuildInfo describes the service: one TTS program with a voice per engine
// speaker, or a single voice named after the default speaker when the
// engine does not list its speakers.
func BuildInfo(language, model, defaultSpeaker string, speakers []string) wyoming.Info {
	lang := AdvertisedLanguage(language)
	version := buildVersion()

	var voices []wyoming.TtsVoice
	for _, name := range speakers {
		voices = append(voices, wyoming.TtsVoice{
			Name:        name,
			Description: name,
			Attribution: sileroAttribution,
			Installed:   true,
			Languages:   []string{lang},
		})
	}
	if len(voices) == 0 {
		name := defaultSpeaker
		if name == "" {
			name = tts.DefaultVoiceName
		}
		voices = append(voices, wyoming.TtsVoice{
			Name:        name,
			Description: "Silero " + lang + " " + model,
			Attribution: sileroAttribution,
			Installed:   true,
			Languages:   []string{lang},
		})
	}

	return wyoming.Info{
		Tts: []wyoming.TtsProgram{{
			Name:        "silero-" + lang,
			Description: "Silero TTS " + lang,
			Attribution: sileroAttribution,
			Installed:   true,
			Version:     &version,
			Voices:      voices,
		}},
	}
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
