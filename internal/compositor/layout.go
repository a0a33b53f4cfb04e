package compositor

import (
	"image"
	"image/color"
)

// Geometry of the phone template on the 1080x1920 canvas.
const (
	headerHeight = 160
	headerPadX   = 60
	profileSize  = 80

	contentTop  = headerHeight
	contentPadX = 60
	postHeaderH = 240
	borderWidth = 4

	textTop    = contentTop + 285
	textLeft   = 90
	textWidth  = 900
	textHeight = 300
	textPadX   = 30
	textPadY   = 45

	imageTop    = contentTop + 630
	imageLeft   = 60
	imageSize   = 960
	imageRadius = 24
)

// Typography in canvas pixels.
const (
	headerTitleSize = 48
	headerBackSize  = 54
	profileTextSize = 36
	postTitleSize   = 42
	metaTextSize    = 28
	scriptTextSize  = 38
	lineHeight      = 1.4

	headerTitle = "썰풀기"
	viewsLabel  = "조회수"
)

var (
	textRect  = image.Rect(textLeft, textTop, textLeft+textWidth, textTop+textHeight)
	imageRect = image.Rect(imageLeft, imageTop, imageLeft+imageSize, imageTop+imageSize)

	borderColor      = color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	placeholderColor = color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	profileColor     = color.NRGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}
	white            = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)
