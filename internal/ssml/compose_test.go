package ssml

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name string
		text string
		d    Directives
		want string
	}{
		{
			name: "no directives returns input unchanged",
			text: "  Hello <b>world</b> ",
			want: "  Hello <b>world</b> ",
		},
		{
			name: "no directives keeps existing document",
			text: "<speak>Hi</speak>",
			want: "<speak>Hi</speak>",
		},
		{
			name: "rate only",
			text: "Hello",
			d:    Directives{Rate: "fast"},
			want: `<speak><prosody rate="fast">Hello</prosody></speak>`,
		},
		{
			name: "rate before pitch",
			text: "Hello",
			d:    Directives{Pitch: "high", Rate: "110%"},
			want: `<speak><prosody rate="110%" pitch="high">Hello</prosody></speak>`,
		},
		{
			name: "break appended not wrapped",
			text: "Hello",
			d:    Directives{BreakStrength: "strong", BreakTime: "500ms"},
			want: `<speak>Hello<break time="500ms" strength="strong"/></speak>`,
		},
		{
			name: "prosody and break",
			text: "Hello",
			d:    Directives{Rate: "slow", BreakTime: "1s"},
			want: `<speak><prosody rate="slow">Hello</prosody><break time="1s"/></speak>`,
		},
		{
			name: "existing root is unwrapped",
			text: "  <speak> Hi <break time=\"2s\"/> there </speak>\n",
			d:    Directives{Pitch: "low"},
			want: `<speak><prosody pitch="low">Hi <break time="2s"/> there</prosody></speak>`,
		},
		{
			name: "root with attributes is unwrapped",
			text: `<speak version="1.1">Hi</speak>`,
			d:    Directives{BreakTime: "1s"},
			want: `<speak>Hi<break time="1s"/></speak>`,
		},
		{
			name: "attribute values escaped",
			text: "Hi",
			d:    Directives{Rate: `a"b<c&`},
			want: `<speak><prosody rate="a&#34;b&lt;c&amp;">Hi</prosody></speak>`,
		},
		{
			name: "bare ampersand escaped",
			text: "Tom & Jerry",
			d:    Directives{Rate: "fast"},
			want: `<speak><prosody rate="fast">Tom &amp; Jerry</prosody></speak>`,
		},
		{
			name: "less-than outside a tag escaped",
			text: "if a < b then",
			d:    Directives{BreakTime: "1s"},
			want: `<speak>if a &lt; b then<break time="1s"/></speak>`,
		},
		{
			name: "entities and tags kept",
			text: `<speak>R&amp;D &#233; <say-as interpret-as="cardinal">5</say-as> & more</speak>`,
			d:    Directives{BreakTime: "1s"},
			want: `<speak>R&amp;D &#233; <say-as interpret-as="cardinal">5</say-as> &amp; more<break time="1s"/></speak>`,
		},
		{
			name: "unknown named entity escaped",
			text: "a&nbsp;b",
			d:    Directives{BreakTime: "1s"},
			want: `<speak>a&amp;nbsp;b<break time="1s"/></speak>`,
		},
		{
			name: "adjacent documents merged into one root",
			text: "<speak>a</speak> <speak>b</speak>",
			d:    Directives{BreakTime: "1s"},
			want: `<speak>a b<break time="1s"/></speak>`,
		},
		{
			name: "root tags inside plain text dropped",
			text: "hello <speak>there</speak>",
			d:    Directives{Pitch: "low"},
			want: `<speak><prosody pitch="low">hello there</prosody></speak>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(tt.text, tt.d)
			if got != tt.want {
				t.Errorf("Compose(%q) = %q, want %q", tt.text, got, tt.want)
			}
			if tt.d.Enabled() {
				if err := wellFormed(got); err != nil {
					t.Errorf("Compose(%q) = %q is not well formed: %v", tt.text, got, err)
				}
			}
		})
	}
}

func TestIsDocument(t *testing.T) {
	tests := map[string]bool{
		"<speak>hi</speak>":         true,
		"  \n<speak>hi</speak>":     true,
		`<speak xml:lang="en">x`:    true,
		"hello <speak>":             false,
		"<speaker>x</speaker>":      false,
		"plain text":                false,
		"":                          false,
		"<prosody>x</prosody>":      false,
		"<speak\tversion='1'>x":     true,
		"<speak/>":                  false,
		"<SPEAK>shouting</SPEAK>":   false,
		"<speak>unterminated start": true,
	}
	for in, want := range tests {
		if got := IsDocument(in); got != want {
			t.Errorf("IsDocument(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain <b> text", "plain <b> text"},
		{`<speak><prosody rate="fast">Hello</prosody><break time="1s"/></speak>`, "Hello"},
		{"<speak>Tom &amp; Jerry <break/> again</speak>", "Tom & Jerry again"},
	}
	for _, tt := range tests {
		if got := StripTags(tt.in); got != tt.want {
			t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDirectivesEnabled(t *testing.T) {
	if (Directives{}).Enabled() {
		t.Fatal("zero Directives should be disabled")
	}
	for _, d := range []Directives{{Rate: "x"}, {Pitch: "x"}, {BreakTime: "x"}, {BreakStrength: "x"}} {
		if !d.Enabled() {
			t.Errorf("%+v should be enabled", d)
		}
	}
}

func TestComposeProducesSingleWellFormedRoot(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		body := rapid.StringMatching(`[A-Za-z0-9 .,!?&<]{0,40}`).Draw(rt, "body")
		wrapped := rapid.Bool().Draw(rt, "wrapped")
		attr := rapid.StringMatching(`[A-Za-z0-9%+.<&"' -]{0,8}`)
		d := Directives{
			Rate:          attr.Draw(rt, "rate"),
			Pitch:         attr.Draw(rt, "pitch"),
			BreakTime:     attr.Draw(rt, "break_time"),
			BreakStrength: attr.Draw(rt, "break_strength"),
		}

		input := body
		if wrapped {
			input = "<speak>" + body + "</speak>"
		}
		got := Compose(input, d)

		if !d.Enabled() {
			if got != input {
				rt.Fatalf("disabled directives changed %q to %q", input, got)
			}
			return
		}
		if strings.Count(got, "<speak>") != 1 || strings.Count(got, "</speak>") != 1 {
			rt.Fatalf("root not present exactly once: %q", got)
		}
		if !strings.HasPrefix(got, "<speak>") || !strings.HasSuffix(got, "</speak>") {
			rt.Fatalf("root does not enclose document: %q", got)
		}
		if err := wellFormed(got); err != nil {
			rt.Fatalf("document %q is not well formed: %v", got, err)
		}
		want := body
		if wrapped {
			want = strings.TrimSpace(body)
		}
		if content := charData(got); content != want {
			rt.Fatalf("content of %q = %q, want %q", got, content, want)
		}
	})
}

func TestComposeIsStableOnItsOwnOutput(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		body := rapid.StringMatching(`[a-z ]{1,20}`).Draw(rt, "body")
		d := Directives{BreakTime: rapid.StringMatching(`[0-9]{1,4}ms`).Draw(rt, "time")}
		once := Compose(body, d)
		twice := Compose(once, d)
		if strings.Count(twice, "<speak>") != 1 {
			rt.Fatalf("double wrapped: %q", twice)
		}
	})
}

func wellFormed(doc string) error {
	dec := xml.NewDecoder(strings.NewReader(doc))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if depth != 0 {
				return errors.New("unbalanced elements")
			}
			return nil
		}
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
}

// charData concatenates the decoded character data of doc.
func charData(doc string) string {
	var b strings.Builder
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err != nil {
			return b.String()
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
}
