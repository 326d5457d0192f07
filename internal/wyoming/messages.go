package wyoming

import "fmt"

// Event types handled by a text-to-speech service.
const (
	TypeDescribe   = "describe"
	TypeInfo       = "info"
	TypeSynthesize = "synthesize"
	TypeAudioStart = "audio-start"
	TypeAudioChunk = "audio-chunk"
	TypeAudioStop  = "audio-stop"
)

type Attribution struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type TtsVoice struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Attribution Attribution `json:"attribution"`
	Installed   bool        `json:"installed"`
	Version     *string     `json:"version"`
	Languages   []string    `json:"languages"`
}

type TtsProgram struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Attribution Attribution `json:"attribution"`
	Installed   bool        `json:"installed"`
	Version     *string     `json:"version"`
	Voices      []TtsVoice  `json:"voices"`
}

// Info is the capability description sent in reply to describe.
type Info struct {
	Asr    []any        `json:"asr"`
	Tts    []TtsProgram `json:"tts"`
	Handle []any        `json:"handle"`
	Intent []any        `json:"intent"`
	Wake   []any        `json:"wake"`
}

func (i Info) Event() (Event, error) {
	if i.Asr == nil {
		i.Asr = []any{}
	}
	if i.Handle == nil {
		i.Handle = []any{}
	}
	if i.Intent == nil {
		i.Intent = []any{}
	}
	if i.Wake == nil {
		i.Wake = []any{}
	}
	if i.Tts == nil {
		i.Tts = []TtsProgram{}
	}
	return NewEvent(TypeInfo, i, nil)
}

func InfoFromEvent(ev Event) (Info, error) {
	if ev.Type != TypeInfo {
		return Info{}, fmt.Errorf("expected %s event, got %s", TypeInfo, ev.Type)
	}
	var info Info
	err := ev.Decode(&info)
	return info, err
}

// DescribeEvent returns a capability query.
func DescribeEvent() Event {
	return Event{Type: TypeDescribe}
}

// SynthesizeVoice selects a voice for a synthesis request.
type SynthesizeVoice struct {
	Name     string `json:"name,omitempty"`
	Language string `json:"language,omitempty"`
	Speaker  string `json:"speaker,omitempty"`
}

type Synthesize struct {
	Text  string           `json:"text"`
	Voice *SynthesizeVoice `json:"voice,omitempty"`
}

func (s Synthesize) Event() (Event, error) {
	return NewEvent(TypeSynthesize, s, nil)
}

func SynthesizeFromEvent(ev Event) (Synthesize, error) {
	if ev.Type != TypeSynthesize {
		return Synthesize{}, fmt.Errorf("expected %s event, got %s", TypeSynthesize, ev.Type)
	}
	var s Synthesize
	err := ev.Decode(&s)
	return s, err
}

// RequestedSpeaker returns the voice name, falling back to the speaker field.
func (s Synthesize) RequestedSpeaker() string {
	if s.Voice == nil {
		return ""
	}
	if s.Voice.Name != "" {
		return s.Voice.Name
	}
	return s.Voice.Speaker
}

// RequestedLanguage returns the voice language, if any.
func (s Synthesize) RequestedLanguage() string {
	if s.Voice == nil {
		return ""
	}
	return s.Voice.Language
}

// AudioFormat describes raw PCM. Width is in bytes per sample.
type AudioFormat struct {
	Rate     int `json:"rate"`
	Width    int `json:"width"`
	Channels int `json:"channels"`
}

type AudioStart struct {
	AudioFormat
	Timestamp *int64 `json:"timestamp,omitempty"`
}

func (a AudioStart) Event() (Event, error) {
	return NewEvent(TypeAudioStart, a, nil)
}

func AudioStartFromEvent(ev Event) (AudioStart, error) {
	if ev.Type != TypeAudioStart {
		return AudioStart{}, fmt.Errorf("expected %s event, got %s", TypeAudioStart, ev.Type)
	}
	var a AudioStart
	err := ev.Decode(&a)
	return a, err
}

type AudioChunk struct {
	AudioFormat
	Timestamp *int64 `json:"timestamp,omitempty"`
	Audio     []byte `json:"-"`
}

func (a AudioChunk) Event() (Event, error) {
	return NewEvent(TypeAudioChunk, a, a.Audio)
}

func AudioChunkFromEvent(ev Event) (AudioChunk, error) {
	if ev.Type != TypeAudioChunk {
		return AudioChunk{}, fmt.Errorf("expected %s event, got %s", TypeAudioChunk, ev.Type)
	}
	var a AudioChunk
	if err := ev.Decode(&a); err != nil {
		return AudioChunk{}, err
	}
	a.Audio = ev.Payload
	return a, nil
}

type AudioStop struct {
	Timestamp *int64 `json:"timestamp,omitempty"`
}

func (a AudioStop) Event() (Event, error) {
	return NewEvent(TypeAudioStop, a, nil)
}
