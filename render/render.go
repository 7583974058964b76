// Package render rasters normalized strokes into a PNG preview, for the
// /api/preview endpoint and the shell's preview command.
package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/kanjimatch/kanjimatch/model"
)

const (
	canvasSize = 256
	margin     = 20
)

// Character draws unit-frame strokes onto a square canvas, black on
// white, then scales to the requested size. size <= 0 keeps the canvas
// resolution.
func Character(strokes []model.Stroke, size int) (image.Image, error) {
	if len(strokes) == 0 {
		return nil, errors.New("nothing to render")
	}

	img := image.NewGray(image.Rect(0, 0, canvasSize, canvasSize))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	scale := float64(canvasSize - 2*margin)
	for _, s := range strokes {
		for i := 1; i < len(s); i++ {
			a := canvasPoint(s[i-1], scale)
			b := canvasPoint(s[i], scale)
			drawLine(img, a, b)
		}
		if len(s) == 1 {
			drawLine(img, canvasPoint(s[0], scale), canvasPoint(s[0], scale))
		}
	}

	if size <= 0 || size == canvasSize {
		return img, nil
	}
	return resize.Resize(uint(size), uint(size), img, resize.Lanczos3), nil
}

// PNG is Character encoded as a PNG byte stream.
func PNG(strokes []model.Stroke, size int) ([]byte, error) {
	img, err := Character(strokes, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

func canvasPoint(p model.Point, scale float64) image.Point {
	return image.Point{
		X: margin + int(p.X*scale+0.5),
		Y: margin + int(p.Y*scale+0.5),
	}
}

// drawLine steps along the segment one pixel at a time; preview quality
// does not need antialiasing.
func drawLine(img *image.Gray, a, b image.Point) {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	steps := int(math.Max(math.Abs(dx), math.Abs(dy))) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := a.X + int(dx*t+0.5)
		y := a.Y + int(dy*t+0.5)
		setThick(img, x, y)
	}
}

func setThick(img *image.Gray, x, y int) {
	for ox := -1; ox <= 1; ox++ {
		for oy := -1; oy <= 1; oy++ {
			img.SetGray(x+ox, y+oy, color.Gray{Y: 0})
		}
	}
}
