package props

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var themesYAML []byte

// Theme is a fully resolved set of template colors.
type Theme struct {
	Name                string `yaml:"-" json:"name"`
	FontFamily          string `yaml:"fontFamily" json:"fontFamily"`
	PageColor           string `yaml:"pageColor" json:"pageColor"`
	BackgroundColor     string `yaml:"backgroundColor" json:"backgroundColor"`
	HeaderColor         string `yaml:"headerColor" json:"headerColor"`
	HeaderTextColor     string `yaml:"headerTextColor" json:"headerTextColor"`
	TextColor           string `yaml:"textColor" json:"textColor"`
	TitleColor          string `yaml:"titleColor" json:"titleColor"`
	MetaColor           string `yaml:"metaColor" json:"metaColor"`
	Layout              string `yaml:"layout" json:"layout"`
	TextAlign           string `yaml:"textAlign" json:"textAlign"`
	HighlightBackground string `yaml:"highlightBackground,omitempty" json:"highlightBackground,omitempty"`
	HighlightText       string `yaml:"highlightText,omitempty" json:"highlightText,omitempty"`
}

var presets map[string]Theme

func init() {
	if err := yaml.Unmarshal(themesYAML, &presets); err != nil {
		panic(fmt.Sprintf("props: embedded themes: %v", err))
	}
	for name, t := range presets {
		t.Name = name
		presets[name] = t
	}
}

// ThemeNames lists the built-in presets, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveTheme starts from the named preset (original for unknown names
// and custom) and applies the explicit overrides of ts.
func ResolveTheme(ts *TemplateStyle) Theme {
	t := presets[DefaultTheme]
	if ts == nil {
		return t
	}
	if p, ok := presets[ts.ThemePreset]; ok {
		t = p
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.FontFamily, ts.FontFamily)
	set(&t.TextColor, ts.TextColor)
	set(&t.TitleColor, ts.TitleColor)
	set(&t.MetaColor, ts.MetaColor)
	set(&t.BackgroundColor, ts.BackgroundColor)
	set(&t.HeaderColor, ts.HeaderColor)
	set(&t.HeaderTextColor, ts.HeaderTextColor)
	set(&t.Layout, ts.Layout)
	set(&t.TextAlign, ts.TextAlign)
	if ts.Highlight != nil {
		set(&t.HighlightBackground, ts.Highlight.BackgroundColor)
		set(&t.HighlightText, ts.Highlight.TextColor)
	}
	return t
}
