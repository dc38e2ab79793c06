package render

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/danielpatrickdp/regioncheck/internal/region"
	"github.com/gogpu/gg"
)

// #region options
// Options controls the image produced for a region.
type Options struct {
	Size      int    // width and height in pixels
	Fill      string // shape fill, hex
	Axis      string // axes, ticks and hit marks, hex
	Highlight string // miss marks, hex
}

// DefaultOptions returns the palette of the reference page.
func DefaultOptions() Options {
	return Options{
		Size:      400,
		Fill:      "#AAB99A",
		Axis:      "#6F826A",
		Highlight: "#D9534F",
	}
}

// #endregion options

// #region mark
// Mark is an evaluated point to overlay on the region.
type Mark struct {
	Point region.Point
	Hit   bool
}

// #endregion mark

// #region renderer
// Renderer draws a region for human reference. It reads only the region's
// shape descriptors and keeps no state between calls.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Image draws g with the given marks and returns the raster.
func (rd *Renderer) Image(g region.Region, marks []Mark) (image.Image, error) {
	dc, err := rd.draw(g, marks)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// EncodePNG writes the region image as PNG.
func (rd *Renderer) EncodePNG(w io.Writer, g region.Region, marks []Mark) error {
	dc, err := rd.draw(g, marks)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

// SavePNG writes the region image to path.
func (rd *Renderer) SavePNG(path string, g region.Region, marks []Mark) error {
	dc, err := rd.draw(g, marks)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.SavePNG(path)
}

// draw paints onto a fresh context which the caller must close.
// The view spans ±1.25·R on both axes so the R ticks stay inside.
func (rd *Renderer) draw(g region.Region, marks []Mark) (*gg.Context, error) {
	if rd.opts.Size <= 0 {
		return nil, fmt.Errorf("render: size must be positive, got %d", rd.opts.Size)
	}
	if !(g.R > 0) || math.IsInf(g.R, 0) {
		return nil, fmt.Errorf("render: region scale must be positive and finite, got %g", g.R)
	}

	size := float64(rd.opts.Size)
	v := viewport{cx: size / 2, cy: size / 2, k: (size / 2) / (1.25 * g.R)}

	dc := gg.NewContext(rd.opts.Size, rd.opts.Size)
	fail := func(err error) (*gg.Context, error) {
		dc.Close()
		return nil, err
	}
	dc.ClearWithColor(gg.White)

	dc.SetHexColor(rd.opts.Fill)
	for _, s := range g.Shapes() {
		v.tracePath(dc, s)
		if err := dc.Fill(); err != nil {
			return fail(fmt.Errorf("render: fill %s: %w", s.Kind, err))
		}
	}

	if err := rd.drawAxes(dc, v, g.R, size); err != nil {
		return fail(err)
	}

	for _, m := range marks {
		if m.Hit {
			dc.SetHexColor(rd.opts.Axis)
		} else {
			dc.SetHexColor(rd.opts.Highlight)
		}
		x, y := v.toPixel(m.Point)
		dc.DrawCircle(x, y, 3)
		if err := dc.Fill(); err != nil {
			return fail(fmt.Errorf("render: mark: %w", err))
		}
	}
	return dc, nil
}

func (rd *Renderer) drawAxes(dc *gg.Context, v viewport, r, size float64) error {
	dc.SetHexColor(rd.opts.Axis)
	dc.SetLineWidth(1)
	dc.DrawLine(v.cx, 0, v.cx, size)
	dc.DrawLine(0, v.cy, size, v.cy)

	const tick = 4.0
	for _, u := range []float64{-r, -r / 2, r / 2, r} {
		x, _ := v.toPixel(region.Point{X: u})
		dc.DrawLine(x, v.cy-tick, x, v.cy+tick)
		_, y := v.toPixel(region.Point{Y: u})
		dc.DrawLine(v.cx-tick, y, v.cx+tick, y)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("render: axes: %w", err)
	}
	return nil
}

// #endregion renderer

// #region viewport

type viewport struct {
	cx, cy float64 // pixel position of the origin
	k      float64 // pixels per region unit
}

// toPixel maps region coordinates (y up) to image coordinates (y down).
func (v viewport) toPixel(p region.Point) (float64, float64) {
	return v.cx + p.X*v.k, v.cy - p.Y*v.k
}

func (v viewport) tracePath(dc *gg.Context, s region.Shape) {
	switch s.Kind {
	case region.ShapeRectangle:
		x0, y0 := v.toPixel(region.Point{X: s.Min.X, Y: s.Max.Y})
		dc.DrawRectangle(x0, y0, (s.Max.X-s.Min.X)*v.k, (s.Max.Y-s.Min.Y)*v.k)
	case region.ShapeQuarterDisk:
		cx, cy := v.toPixel(s.Center)
		rad := s.Radius * v.k
		// Image y points down, so region angle a becomes -a.
		a1, a2 := 2*math.Pi-s.EndAngle, 2*math.Pi-s.StartAngle
		dc.MoveTo(cx, cy)
		dc.LineTo(cx+rad*math.Cos(a1), cy+rad*math.Sin(a1))
		dc.DrawArc(cx, cy, rad, a1, a2)
		dc.ClosePath()
	case region.ShapeTriangle:
		for i, p := range s.Vertices {
			x, y := v.toPixel(p)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	}
}

// #endregion viewport
