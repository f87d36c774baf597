// Package annotate draws the boxes of verified checks over a screenshot.
package annotate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"

	"github.com/neboloop/pageverify/internal/browser"
)

// Annotation colors
var (
	overlayColor = color.NRGBA{R: 51, G: 153, B: 255, A: 38}  // Semi-transparent blue
	borderColor  = color.NRGBA{R: 51, G: 153, B: 255, A: 200} // Blue border
	pillBG       = color.NRGBA{R: 30, G: 30, B: 30, A: 220}   // Dark background
	pillText     = color.White
)

const (
	borderWidth = 2.0
	pillPadX    = 4.0
	pillPadY    = 2.0
	pillRadius  = 4.0
)

// Mark is one labelled box.
type Mark struct {
	Label string
	Box   browser.Box
}

// Render draws marks on a copy of img.
func Render(img image.Image, marks []Mark) image.Image {
	bounds := img.Bounds()
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawImage(img, 0, 0)

	for _, m := range marks {
		drawMark(dc, m, bounds)
	}

	return dc.Image()
}

// PNG decodes a PNG screenshot, draws marks on it and encodes the result.
func PNG(data []byte, marks []Mark) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(img, marks)); err != nil {
		return nil, fmt.Errorf("encode annotated screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

func drawMark(dc *gg.Context, m Mark, imgBounds image.Rectangle) {
	x := m.Box.X - float64(imgBounds.Min.X)
	y := m.Box.Y - float64(imgBounds.Min.Y)
	w := m.Box.Width
	h := m.Box.Height

	// Clamp to image bounds
	imgW := float64(imgBounds.Dx())
	imgH := float64(imgBounds.Dy())
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > imgW {
		w = imgW - x
	}
	if y+h > imgH {
		h = imgH - y
	}
	if w <= 0 || h <= 0 {
		return
	}

	dc.SetColor(overlayColor)
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()

	dc.SetColor(borderColor)
	dc.SetLineWidth(borderWidth)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	if m.Label != "" {
		drawLabelPill(dc, m.Label, x, y, w, h, imgW, imgH)
	}
}

// drawLabelPill places the label above the box when it fits, else below,
// else inside its top-left corner.
func drawLabelPill(dc *gg.Context, label string, boxX, boxY, boxW, boxH, imgW, imgH float64) {
	textW, textH := dc.MeasureString(label)
	pillW := textW + pillPadX*2
	pillH := textH + pillPadY*2

	type pos struct{ x, y float64 }
	candidates := []pos{
		{boxX, boxY - pillH - 2},
		{boxX + boxW - pillW, boxY - pillH - 2},
		{boxX, boxY + boxH + 2},
	}

	px, py := boxX+2, boxY+2
	for _, c := range candidates {
		if c.x >= 0 && c.y >= 0 && c.x+pillW <= imgW && c.y+pillH <= imgH {
			px, py = c.x, c.y
			break
		}
	}

	dc.SetColor(pillBG)
	dc.DrawRoundedRectangle(px, py, pillW, pillH, pillRadius)
	dc.Fill()

	dc.SetColor(pillText)
	dc.DrawString(label, px+pillPadX, py+pillPadY+textH*0.85)
}
