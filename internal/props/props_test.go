package props

import (
	"errors"
	"strings"
	"testing"
)

const sampleJSON = `{
  "title": "Morning news",
  "postMeta": {"author": "desk"},
  "templateStyle": {"themePreset": "dark", "textColor": "#ff0000"},
  "media": [
    {
      "image": {"url": "https://example.com/a.jpg", "animation": {"effect": "zoom-in"}},
      "script": {"text": "hello <h>world</h>", "animation": {"in": "typing", "out": "fadeOut"}},
      "voice": "https://example.com/a.mp3",
      "transition": {"effect": "fade"}
    },
    {
      "script": {"url": "https://example.com/script.txt", "animation": {}},
      "audioDuration": 4.2
    }
  ]
}`

func TestParseJSON(t *testing.T) {
	p, err := Parse([]byte(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(p.Media) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(p.Media))
	}
	if p.Media[1].AudioDuration == nil || *p.Media[1].AudioDuration != 4.2 {
		t.Errorf("expected audioDuration 4.2, got %v", p.Media[1].AudioDuration)
	}
	if err := NewValidator().Validate(p); err != nil {
		t.Errorf("expected valid props, got %v", err)
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
title: yaml
media:
  - script:
      text: one [SEPT] two
      animation:
        in: word-by-word-fade
    audioDuration: 2
`
	p, err := Parse([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Media[0].Script.Animation.In != "word-by-word-fade" {
		t.Errorf("unexpected in animation %q", p.Media[0].Script.Animation.In)
	}
	if FormatFromPath("x.yml") != FormatYAML || FormatFromPath("x.json") != FormatJSON {
		t.Error("unexpected format detection")
	}
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	p := &VideoProps{Media: []Scene{{
		Image:      &Image{URL: "a.jpg", Animation: ImageAnimation{Effect: "spin", Filter: "vintage"}},
		Script:     Script{Text: "x", Animation: ScriptAnimation{In: "sparkle", Out: "explode", Highlight: "rainbow"}},
		Transition: &Transition{Effect: "cube"},
	}}}

	err := NewValidator().Validate(p)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	want := map[string]bool{
		"media[0].image.animation.effect":    false,
		"media[0].image.animation.filter":    false,
		"media[0].script.animation.in":       false,
		"media[0].script.animation.out":      false,
		"media[0].script.animation.highlight": false,
		"media[0].transition.effect":         false,
	}
	for _, f := range verr.Fields {
		if f.Tag != "oneof" {
			t.Errorf("unexpected tag %q on %s", f.Tag, f.Field)
		}
		want[f.Field] = true
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected error on %s", field)
		}
	}
}

func TestValidateScriptAndImage(t *testing.T) {
	tests := []struct {
		name  string
		scene Scene
		field string
		tag   string
	}{
		{"missing script", Scene{Script: Script{}}, "media[0].script.text", "required_without"},
		{"bad script url", Scene{Script: Script{URL: "not a url"}}, "media[0].script.url", "url"},
		{"empty image url", Scene{Image: &Image{}, Script: Script{Text: "x"}}, "media[0].image.url", "required"},
		{"negative audio", Scene{Script: Script{Text: "x"}, AudioDuration: ptr(-1)}, "media[0].audioDuration", "gte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator().Validate(&VideoProps{Media: []Scene{tt.scene}})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Field != tt.field || verr.Fields[0].Tag != tt.tag {
				t.Errorf("unexpected fields: %+v", verr.Fields)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidator().Validate(&VideoProps{Media: []Scene{{Script: Script{}}}})
	if err == nil || !strings.Contains(err.Error(), "either 'text' or 'url'") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestCheckRenderable(t *testing.T) {
	if err := CheckRenderable(&VideoProps{}); !errors.Is(err, ErrNoScenes) {
		t.Errorf("expected ErrNoScenes, got %v", err)
	}
	err := CheckRenderable(&VideoProps{Media: []Scene{{Script: Script{Text: "a"}}, {}}})
	if !errors.Is(err, ErrMissingScript) || !strings.Contains(err.Error(), "scene 2") {
		t.Errorf("expected ErrMissingScript for scene 2, got %v", err)
	}
	if err := CheckRenderable(&VideoProps{Media: []Scene{{Script: Script{URL: "https://x"}}}}); err != nil {
		t.Errorf("expected renderable, got %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	p := &VideoProps{
		PostMeta:      &PostMeta{Author: "me"},
		TemplateStyle: &TemplateStyle{},
		Media: []Scene{{
			Image:      &Image{URL: "a.jpg"},
			Script:     Script{Text: "x"},
			Transition: &Transition{},
		}},
	}
	ApplyDefaults(p)

	s := p.Media[0]
	if s.Image.Animation.Effect != "none" || s.Image.Animation.Filter != "none" {
		t.Errorf("unexpected image defaults: %+v", s.Image.Animation)
	}
	if s.Script.Animation.In != "none" || s.Script.Animation.Out != "none" || s.Script.Animation.Highlight != "yellow-box" {
		t.Errorf("unexpected script defaults: %+v", s.Script.Animation)
	}
	if s.Transition.Effect != "none" {
		t.Errorf("unexpected transition default %q", s.Transition.Effect)
	}
	if p.PostMeta.Author != "me" || p.PostMeta.Time != DefaultTime || p.PostMeta.ViewCount != DefaultViewCount {
		t.Errorf("unexpected post meta: %+v", p.PostMeta)
	}
	if p.TemplateStyle.ThemePreset != DefaultTheme || p.TemplateStyle.Layout != DefaultLayout {
		t.Errorf("unexpected template defaults: %+v", p.TemplateStyle)
	}
}

func TestMetaDefaults(t *testing.T) {
	m := (&VideoProps{}).Meta()
	if m.Author != DefaultAuthor || m.Time != DefaultTime || m.ViewCount != DefaultViewCount {
		t.Errorf("unexpected meta: %+v", m)
	}
}

func TestNeedsEnrichment(t *testing.T) {
	tests := []struct {
		name  string
		scene Scene
		audio bool
		text  bool
	}{
		{"voice without duration", Scene{Voice: "a.mp3"}, true, false},
		{"voice with duration", Scene{Voice: "a.mp3", AudioDuration: ptr(1)}, false, false},
		{"remote script", Scene{Script: Script{URL: "https://x"}}, false, true},
		{"remote script with text", Scene{Script: Script{URL: "https://x", Text: "t"}}, false, false},
	}
	for _, tt := range tests {
		if got := tt.scene.NeedsAudioDuration(); got != tt.audio {
			t.Errorf("%s: NeedsAudioDuration = %v", tt.name, got)
		}
		if got := tt.scene.NeedsScript(); got != tt.text {
			t.Errorf("%s: NeedsScript = %v", tt.name, got)
		}
		if got := tt.scene.NeedsEnrichment(); got != (tt.audio || tt.text) {
			t.Errorf("%s: NeedsEnrichment = %v", tt.name, got)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := &VideoProps{Media: []Scene{{Image: &Image{URL: "a"}, AudioDuration: ptr(1)}}}
	c := p.Clone()
	c.Media[0].Image.URL = "b"
	*c.Media[0].AudioDuration = 9
	if p.Media[0].Image.URL != "a" || *p.Media[0].AudioDuration != 1 {
		t.Error("clone shares state with the original")
	}
}

func TestResolveTheme(t *testing.T) {
	t1 := ResolveTheme(nil)
	if t1.Name != "original" || t1.HeaderColor != "#a5d8f3" {
		t.Errorf("unexpected default theme: %+v", t1)
	}

	t2 := ResolveTheme(&TemplateStyle{ThemePreset: "dark", TextColor: "#ff0000", Highlight: &HighlightStyle{BackgroundColor: "#00ff00"}})
	if t2.Name != "dark" || t2.TextColor != "#ff0000" || t2.HighlightBackground != "#00ff00" {
		t.Errorf("unexpected dark theme: %+v", t2)
	}

	t3 := ResolveTheme(&TemplateStyle{ThemePreset: "custom"})
	if t3.Name != "original" {
		t.Errorf("custom should start from original, got %s", t3.Name)
	}

	if len(ThemeNames()) != 11 {
		t.Errorf("expected 11 presets, got %d", len(ThemeNames()))
	}
}

func ptr(v float64) *float64 { return &v }
