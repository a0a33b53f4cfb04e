package animation

var imageFilters = []struct {
	name, css, description string
}{
	{None, "none", "no filter"},
	{"grayscale", "grayscale(100%)", "black and white"},
	{"sepia", "sepia(100%)", "sepia tone"},
	{"blur", "blur(5px)", "gaussian blur"},
}

func filterEntries() []Entry {
	entries := make([]Entry, 0, len(imageFilters))
	for _, f := range imageFilters {
		css := f.css
		entries = append(entries, Entry{
			Category: CategoryFilter,
			Name:     f.name,
			Fn: func(Params) Style {
				return Style{Filter: css}
			},
			Meta: Metadata{Description: f.description},
		})
	}
	return entries
}
