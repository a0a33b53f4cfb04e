package animation

// DefaultHighlight applies to <h> spans without a type attribute.
const DefaultHighlight = "yellow-box"

var highlightStyles = map[string]struct {
	description string
	decl        map[string]string
}{
	None: {"no highlight", map[string]string{}},
	"yellow-box": {"yellow box", box("#ffeb3b", "#333333")},
	"red-box":    {"red box", box("#f44336", "#ffffff")},
	"blue-box":   {"blue box", box("#2196f3", "#ffffff")},
	"green-box":  {"green box", box("#4caf50", "#ffffff")},
	"underline": {"underline", map[string]string{
		"textDecoration":          "underline",
		"textDecorationColor":     "#2196f3",
		"textDecorationThickness": "3px",
		"textUnderlineOffset":     "4px",
		"fontWeight":              "bold",
	}},
	"bold":   {"bold", map[string]string{"fontWeight": "bold", "color": "#333333"}},
	"italic": {"italic", map[string]string{"fontStyle": "italic", "color": "#666666"}},
	"glow": {"glow", map[string]string{
		"textShadow": "0 0 10px #ffeb3b, 0 0 20px #ffeb3b, 0 0 30px #ffeb3b",
		"fontWeight": "bold",
		"color":      "#ffffff",
	}},
	"strike": {"strikethrough", map[string]string{
		"textDecoration":          "line-through",
		"textDecorationColor":     "#f44336",
		"textDecorationThickness": "2px",
		"color":                   "#999999",
	}},
	"outline": {"outlined text", map[string]string{
		"textShadow": "1px 1px 0 #000000, -1px -1px 0 #000000, 1px -1px 0 #000000, -1px 1px 0 #000000",
		"color":      "#ffffff",
		"fontWeight": "bold",
	}},
}

func box(bg, fg string) map[string]string {
	return map[string]string{
		"backgroundColor": bg,
		"padding":         "4px 8px",
		"borderRadius":    "4px",
		"color":           fg,
		"fontWeight":      "bold",
	}
}

func highlightEntries() []Entry {
	entries := make([]Entry, 0, len(highlightStyles))
	for name, hs := range highlightStyles {
		decl := hs.decl
		entries = append(entries, Entry{
			Category: CategoryHighlight,
			Name:     name,
			Fn: func(Params) Style {
				return Style{Decl: decl}
			},
			Meta: Metadata{Description: hs.description},
		})
	}
	return entries
}
