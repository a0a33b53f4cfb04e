// Package props defines the declarative video description and its validation.
package props

import (
	"github.com/ivlev/scenevideo/internal/animation"
)

// VideoProps is the full input of one render.
type VideoProps struct {
	TemplateStyle *TemplateStyle `json:"templateStyle,omitempty" yaml:"templateStyle,omitempty"`
	Title         string         `json:"title,omitempty" yaml:"title,omitempty"`
	PostMeta      *PostMeta      `json:"postMeta,omitempty" yaml:"postMeta,omitempty"`
	Media         []Scene        `json:"media" yaml:"media" validate:"dive"`
}

// PostMeta is the byline shown in the post header.
type PostMeta struct {
	Author    string `json:"author,omitempty" yaml:"author,omitempty"`
	Time      string `json:"time,omitempty" yaml:"time,omitempty"`
	ViewCount string `json:"viewCount,omitempty" yaml:"viewCount,omitempty"`
}

// Scene is one narrated segment. Order in Media is timeline order.
type Scene struct {
	ID            string      `json:"id,omitempty" yaml:"id,omitempty"`
	Image         *Image      `json:"image,omitempty" yaml:"image,omitempty"`
	Script        Script      `json:"script" yaml:"script"`
	Voice         string      `json:"voice,omitempty" yaml:"voice,omitempty"`
	AudioDuration *float64    `json:"audioDuration,omitempty" yaml:"audioDuration,omitempty" validate:"omitempty,gte=0"`
	Transition    *Transition `json:"transition,omitempty" yaml:"transition,omitempty"`
}

type Image struct {
	URL       string         `json:"url" yaml:"url" validate:"required,min=1"`
	Animation ImageAnimation `json:"animation" yaml:"animation"`
}

type ImageAnimation struct {
	Effect string `json:"effect,omitempty" yaml:"effect,omitempty" validate:"omitempty,oneof=none zoom-in pan-right zoom-out"`
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty" validate:"omitempty,oneof=none grayscale sepia blur"`
}

type Script struct {
	Text      string          `json:"text,omitempty" yaml:"text,omitempty" validate:"required_without=URL"`
	URL       string          `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Animation ScriptAnimation `json:"animation" yaml:"animation"`
}

type ScriptAnimation struct {
	In          string `json:"in,omitempty" yaml:"in,omitempty" validate:"omitempty,oneof=none fadeIn typing slideUp word-by-word-fade"`
	Out         string `json:"out,omitempty" yaml:"out,omitempty" validate:"omitempty,oneof=none fadeOut slideDown"`
	Highlight   string `json:"highlight,omitempty" yaml:"highlight,omitempty" validate:"omitempty,oneof=none yellow-box red-box blue-box green-box underline bold italic glow strike outline"`
	InDuration  int    `json:"inDuration,omitempty" yaml:"inDuration,omitempty" validate:"gte=0"`
	OutDuration int    `json:"outDuration,omitempty" yaml:"outDuration,omitempty" validate:"gte=0"`
}

type Transition struct {
	Effect   string `json:"effect,omitempty" yaml:"effect,omitempty" validate:"omitempty,oneof=none slide-left slide-right fade wipe-up"`
	Duration int    `json:"duration,omitempty" yaml:"duration,omitempty" validate:"gte=0"`
}

// TemplateStyle customizes the phone-frame template.
type TemplateStyle struct {
	ThemePreset     string          `json:"themePreset,omitempty" yaml:"themePreset,omitempty" validate:"omitempty,oneof=original dark minimal retro neon nature newspaper comics tech romantic simple-black custom"`
	FontFamily      string          `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	TextColor       string          `json:"textColor,omitempty" yaml:"textColor,omitempty" validate:"omitempty,iscolor"`
	TitleColor      string          `json:"titleColor,omitempty" yaml:"titleColor,omitempty" validate:"omitempty,iscolor"`
	MetaColor       string          `json:"metaColor,omitempty" yaml:"metaColor,omitempty" validate:"omitempty,iscolor"`
	BackgroundColor string          `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty" validate:"omitempty,iscolor"`
	HeaderColor     string          `json:"headerColor,omitempty" yaml:"headerColor,omitempty" validate:"omitempty,iscolor"`
	HeaderTextColor string          `json:"headerTextColor,omitempty" yaml:"headerTextColor,omitempty" validate:"omitempty,iscolor"`
	Layout          string          `json:"layout,omitempty" yaml:"layout,omitempty" validate:"omitempty,oneof=text-middle text-top text-bottom"`
	TextAlign       string          `json:"textAlign,omitempty" yaml:"textAlign,omitempty" validate:"omitempty,oneof=left center right justify"`
	Highlight       *HighlightStyle `json:"highlight,omitempty" yaml:"highlight,omitempty"`
}

// HighlightStyle replaces the per-type highlight look for every span.
type HighlightStyle struct {
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty" validate:"omitempty,iscolor"`
	TextColor       string `json:"textColor,omitempty" yaml:"textColor,omitempty" validate:"omitempty,iscolor"`
}

const (
	DefaultAuthor    = "익명"
	DefaultTime      = "14:25"
	DefaultViewCount = "3,463,126"
	DefaultTheme     = "original"
	DefaultLayout    = "text-middle"
)

// Meta returns the post byline with defaults filled in.
func (p *VideoProps) Meta() PostMeta {
	m := PostMeta{}
	if p.PostMeta != nil {
		m = *p.PostMeta
	}
	if m.Author == "" {
		m.Author = DefaultAuthor
	}
	if m.Time == "" {
		m.Time = DefaultTime
	}
	if m.ViewCount == "" {
		m.ViewCount = DefaultViewCount
	}
	return m
}

// ApplyDefaults fills unset animation names in place.
func ApplyDefaults(p *VideoProps) {
	if p.PostMeta != nil {
		m := p.Meta()
		p.PostMeta = &m
	}
	if p.TemplateStyle != nil {
		if p.TemplateStyle.ThemePreset == "" {
			p.TemplateStyle.ThemePreset = DefaultTheme
		}
		if p.TemplateStyle.Layout == "" {
			p.TemplateStyle.Layout = DefaultLayout
		}
	}
	for i := range p.Media {
		s := &p.Media[i]
		if s.Image != nil {
			s.Image.Animation.Effect = orDefault(s.Image.Animation.Effect, animation.None)
			s.Image.Animation.Filter = orDefault(s.Image.Animation.Filter, animation.None)
		}
		s.Script.Animation.In = orDefault(s.Script.Animation.In, animation.None)
		s.Script.Animation.Out = orDefault(s.Script.Animation.Out, animation.None)
		s.Script.Animation.Highlight = orDefault(s.Script.Animation.Highlight, animation.DefaultHighlight)
		if s.Transition != nil {
			s.Transition.Effect = orDefault(s.Transition.Effect, animation.None)
		}
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// NeedsEnrichment reports whether the scene has data to fetch before rendering.
func (s *Scene) NeedsEnrichment() bool {
	return s.NeedsAudioDuration() || s.NeedsScript()
}

// NeedsAudioDuration reports whether a voice track has no known length.
func (s *Scene) NeedsAudioDuration() bool {
	return s.Voice != "" && s.AudioDuration == nil
}

// NeedsScript reports whether the script text must be fetched from its URL.
func (s *Scene) NeedsScript() bool {
	return s.Script.URL != "" && s.Script.Text == ""
}

// Clone returns a deep copy so enrichment never mutates the caller's props.
func (p *VideoProps) Clone() *VideoProps {
	out := *p
	if p.TemplateStyle != nil {
		ts := *p.TemplateStyle
		if ts.Highlight != nil {
			h := *ts.Highlight
			ts.Highlight = &h
		}
		out.TemplateStyle = &ts
	}
	if p.PostMeta != nil {
		m := *p.PostMeta
		out.PostMeta = &m
	}
	out.Media = make([]Scene, len(p.Media))
	for i, s := range p.Media {
		if s.Image != nil {
			img := *s.Image
			s.Image = &img
		}
		if s.AudioDuration != nil {
			d := *s.AudioDuration
			s.AudioDuration = &d
		}
		if s.Transition != nil {
			tr := *s.Transition
			s.Transition = &tr
		}
		out.Media[i] = s
	}
	return &out
}
