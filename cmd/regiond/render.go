package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/regioncheck/internal/classify"
	"github.com/danielpatrickdp/regioncheck/internal/cli"
	"github.com/danielpatrickdp/regioncheck/internal/region"
	"github.com/danielpatrickdp/regioncheck/internal/render"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/spf13/cobra"
)

// #region render

func newRenderCmd(a *app) *cobra.Command {
	var rawR, outPath string
	var size int
	var points []string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw Region(r) to a PNG file",
		Example: `  regiond render --r 2 --out region.png
  regiond render --r 1.5 --point 0.5,-0.25 --point -1,1 --out marked.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := validate.NewValidator(a.cfg.Validation.ValidatorConfig())
			r, err := v.ValidateR(rawR)
			if err != nil {
				return err
			}

			marks := make([]render.Mark, 0, len(points))
			for _, p := range points {
				pt, err := parsePoint(p)
				if err != nil {
					return err
				}
				hit, err := classify.ClassifyPoint(pt, r)
				if err != nil {
					return err
				}
				marks = append(marks, render.Mark{Point: pt, Hit: hit})
			}

			opts := a.cfg.Render.RenderOptions()
			if size > 0 {
				opts.Size = size
			}
			if err := render.NewRenderer(opts).SavePNG(outPath, region.Build(r), marks); err != nil {
				return err
			}
			fmt.Println(cli.DimStyle.Render(fmt.Sprintf("wrote %s (%dx%d, r=%g)", outPath, opts.Size, opts.Size, r)))
			return nil
		},
	}
	cmd.Flags().StringVar(&rawR, "r", "1", "scale parameter")
	cmd.Flags().StringVarP(&outPath, "out", "o", "region.png", "output PNG path")
	cmd.Flags().IntVar(&size, "size", 0, "image size in pixels (default render.size)")
	cmd.Flags().StringArrayVar(&points, "point", nil, "mark x,y on the image (repeatable)")
	return cmd
}

// parsePoint reads "x,y". With decimal commas use "x;y".
func parsePoint(s string) (region.Point, error) {
	sep := ","
	if strings.Contains(s, ";") {
		sep = ";"
	}
	xs, ys, ok := strings.Cut(s, sep)
	if !ok {
		return region.Point{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(validate.Normalize(xs), 64)
	if err != nil {
		return region.Point{}, fmt.Errorf("point %q: bad x: %w", s, err)
	}
	y, err := strconv.ParseFloat(validate.Normalize(ys), 64)
	if err != nil {
		return region.Point{}, fmt.Errorf("point %q: bad y: %w", s, err)
	}
	return region.Point{X: x, Y: y}, nil
}

// #endregion render
