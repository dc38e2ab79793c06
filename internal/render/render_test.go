package render

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/regioncheck/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgbAt(img image.Image, x, y int) [3]int {
	r, g, b, _ := img.At(x, y).RGBA()
	return [3]int{int(r >> 8), int(g >> 8), int(b >> 8)}
}

func assertColor(t *testing.T, want, got [3]int, what string) {
	t.Helper()
	for i := range want {
		d := want[i] - got[i]
		if d < -3 || d > 3 {
			t.Fatalf("%s: want rgb %v, got %v", what, want, got)
		}
	}
}

var (
	fillRGB  = [3]int{0xAA, 0xB9, 0x9A}
	whiteRGB = [3]int{0xFF, 0xFF, 0xFF}
)

// pixel mirrors viewport.toPixel for a renderer of the given size and scale.
func pixel(size int, r float64, p region.Point) (int, int) {
	v := viewport{cx: float64(size) / 2, cy: float64(size) / 2, k: (float64(size) / 2) / (1.25 * r)}
	x, y := v.toPixel(p)
	return int(x), int(y)
}

func TestImageFillsEveryShape(t *testing.T) {
	const size = 200
	const r = 2.0
	img, err := NewRenderer(Options{Size: size, Fill: "#AAB99A", Axis: "#6F826A", Highlight: "#D9534F"}).
		Image(region.Build(r), nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, size, size), img.Bounds())

	inside := map[string]region.Point{
		"rectangle":    {X: r / 2, Y: -r / 4},
		"quarter disk": {X: -r / 5, Y: -r / 5},
		"triangle":     {X: r / 8, Y: r / 8},
	}
	for name, p := range inside {
		x, y := pixel(size, r, p)
		assertColor(t, fillRGB, rgbAt(img, x, y), name)
	}

	outside := map[string]region.Point{
		"second quadrant":    {X: -r / 2, Y: r / 2},
		"beyond rectangle":   {X: r * 1.1, Y: -r / 4},
		"beyond hypotenuse":  {X: r / 3, Y: r / 3},
		"beyond quarter arc": {X: -r / 2.2, Y: -r / 2.2},
	}
	for name, p := range outside {
		x, y := pixel(size, r, p)
		assertColor(t, whiteRGB, rgbAt(img, x, y), name)
	}
}

func TestImageDrawsMarks(t *testing.T) {
	const size = 200
	const r = 1.0
	miss := region.Point{X: -0.5, Y: 0.5}
	img, err := NewRenderer(Options{Size: size, Fill: "#AAB99A", Axis: "#6F826A", Highlight: "#D9534F"}).
		Image(region.Build(r), []Mark{{Point: miss, Hit: false}})
	require.NoError(t, err)

	x, y := pixel(size, r, miss)
	assertColor(t, [3]int{0xD9, 0x53, 0x4F}, rgbAt(img, x, y), "miss mark")
}

func TestEncodePNGProducesDecodableImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(DefaultOptions()).EncodePNG(&buf, region.Build(3), nil))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestSavePNGWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.png")
	require.NoError(t, NewRenderer(DefaultOptions()).SavePNG(path, region.Build(1.5), nil))
	assert.FileExists(t, path)
}

func TestRejectsBadInputs(t *testing.T) {
	_, err := NewRenderer(Options{Size: 0}).Image(region.Build(1), nil)
	assert.Error(t, err)

	_, err = NewRenderer(DefaultOptions()).Image(region.Build(0), nil)
	assert.Error(t, err)

	_, err = NewRenderer(DefaultOptions()).Image(region.Build(-2), nil)
	assert.Error(t, err)
}
