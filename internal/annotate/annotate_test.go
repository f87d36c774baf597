package annotate

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/pageverify/internal/browser"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRenderTintsBox(t *testing.T) {
	src := whiteImage(200, 100)
	out := Render(src, []Mark{{Label: "1", Box: browser.Box{X: 20, Y: 30, Width: 50, Height: 20}}})

	assert.Equal(t, src.Bounds(), out.Bounds())

	inside := rgba(out, 45, 40)
	assert.Less(t, inside.R, uint8(255), "box interior is tinted")
	assert.Equal(t, uint8(255), inside.B)

	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(out, 150, 90), "outside the box is untouched")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(src, 45, 40), "source image is not modified")
}

func TestRenderSkipsBoxesOutsideImage(t *testing.T) {
	src := whiteImage(50, 50)
	out := Render(src, []Mark{
		{Label: "far", Box: browser.Box{X: 500, Y: 500, Width: 10, Height: 10}},
		{Label: "empty", Box: browser.Box{X: 5, Y: 5}},
	})

	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			require.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(out, x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, whiteImage(80, 60)))

	data, err := PNG(buf.Bytes(), []Mark{{Label: "2", Box: browser.Box{X: 10, Y: 10, Width: 30, Height: 30}}})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Less(t, rgba(img, 25, 25).R, uint8(255))
}

func TestPNGRejectsGarbage(t *testing.T) {
	_, err := PNG([]byte("not a png"), nil)
	assert.ErrorContains(t, err, "decode screenshot")
}
