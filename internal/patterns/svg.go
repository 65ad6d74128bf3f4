package patterns

import (
	"image"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/ledgrid/ledctld/internal/frame"
)

// SVG rasterizes the document in params["svg"] via srwiley/oksvg and
// srwiley/rasterx, scaled to fill the (w, h) canvas, then samples it into a
// PixelFrame. counter is ignored; the document is the entire animation
// state, matching the pure-generator contract.
func SVG(w, h, counter int, params map[string]string) (*frame.Frame, error) {
	doc, ok := params["svg"]
	if !ok {
		return nil, missingParam("svg", "svg")
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	out := frame.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out.Set(x, y, frame.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)})
		}
	}
	return out, nil
}
