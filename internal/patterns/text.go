package patterns

import (
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/ledgrid/ledctld/internal/frame"
)

var textFont *truetype.Font

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic("patterns: embedded font failed to parse: " + err.Error())
	}
	textFont = f
}

// Text rasterizes params["text"] via golang/freetype onto a canvas-sized
// RGBA image, then samples it into a PixelFrame. params["size"] sets the
// font size in points (default canvas height * 0.8); params["color"]
// (default white) sets the glyph fill.
func Text(w, h, counter int, params map[string]string) (*frame.Frame, error) {
	text, ok := params["text"]
	if !ok {
		return nil, missingParam("text", "text")
	}

	col := frame.RGB{R: 255, G: 255, B: 255}
	if s, ok := params["color"]; ok {
		c, err := parseHexColor(s)
		if err != nil {
			return nil, err
		}
		col = c
	}

	size := float64(h) * 0.8
	if n := paramInt(params, "size", 0); n > 0 {
		size = float64(n)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(textFont)
	ctx.SetFontSize(size)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(color.RGBA{R: col.R, G: col.G, B: col.B, A: 255}))

	pt := fixed.Point26_6{
		X: fixed.I(0),
		Y: fixed.I(int(size)) + fixed.I(h-int(size))/2,
	}
	if _, err := ctx.DrawString(text, pt); err != nil {
		return nil, err
	}

	out := frame.New(w, h)
	b := img.Bounds()
	for y := 0; y < h && y < b.Dy(); y++ {
		for x := 0; x < w && x < b.Dx(); x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out.Set(x, y, frame.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8)})
		}
	}

	return out, nil
}
