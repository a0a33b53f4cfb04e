package animation

const (
	None     = "none"
	ZoomIn   = "zoom-in"
	ZoomOut  = "zoom-out"
	PanRight = "pan-right"
)

const imageDefaultDuration = 90

var durationParam = map[string]ParamSpec{
	"duration": {Type: "number", Default: imageDefaultDuration, Description: "effect length in frames"},
}

func imageEntries() []Entry {
	return []Entry{
		{
			Category: CategoryImage,
			Name:     None,
			Fn:       identity,
			Meta:     Metadata{Description: "static image", DefaultDuration: imageDefaultDuration},
		},
		{
			Category: CategoryImage,
			Name:     ZoomIn,
			Fn:       scaleCurve(1, 1.15),
			Meta: Metadata{
				Description:     "slowly enlarges the image",
				DefaultDuration: imageDefaultDuration,
				Params:          durationParam,
			},
		},
		{
			Category: CategoryImage,
			Name:     ZoomOut,
			Fn:       scaleCurve(1.15, 1),
			Meta: Metadata{
				Description:     "slowly shrinks the image back to full view",
				DefaultDuration: imageDefaultDuration,
				Params:          durationParam,
			},
		},
		{
			Category: CategoryImage,
			Name:     PanRight,
			Fn:       panRight,
			Meta: Metadata{
				Description:     "pans the slightly enlarged image to the right",
				DefaultDuration: imageDefaultDuration,
				Params:          durationParam,
			},
		},
	}
}

func scaleCurve(from, to float64) Func {
	return func(p Params) Style {
		scale := Ramp(p.Frame, 0, p.Duration, from, to)
		return Style{
			Transform:       []TransformOp{{Kind: OpScale, Value: scale}},
			TransformOrigin: "center center",
		}
	}
}

func panRight(p Params) Style {
	x := Ramp(p.Frame, 0, p.Duration, 0, -20)
	return Style{
		Transform: []TransformOp{
			{Kind: OpTranslateX, Value: x, Unit: "px"},
			{Kind: OpScale, Value: 1.1},
		},
		TransformOrigin: "center center",
	}
}
