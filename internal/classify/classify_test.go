package classify

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/danielpatrickdp/regioncheck/internal/region"
)

var radii = []float64{0.5, 1, 1.5, 2, 2.5, 3, 7.25, 100}

const eps = 1e-6

func mustClassify(t *testing.T, x, y, r float64) bool {
	t.Helper()
	hit, err := Classify(x, y, r)
	if err != nil {
		t.Fatalf("Classify(%g, %g, %g): %v", x, y, r, err)
	}
	return hit
}

func TestOriginAlwaysInside(t *testing.T) {
	for _, r := range radii {
		if !mustClassify(t, 0, 0, r) {
			t.Fatalf("r=%g: origin should be inside", r)
		}
	}
}

func TestRectangleRightEdge(t *testing.T) {
	for _, r := range radii {
		if !mustClassify(t, r, 0, r) {
			t.Errorf("r=%g: (r, 0) should be inside", r)
		}
		if mustClassify(t, r+eps, 0, r) {
			t.Errorf("r=%g: (r+eps, 0) should be outside", r)
		}
	}
}

func TestRectangleBottomEdge(t *testing.T) {
	for _, r := range radii {
		if !mustClassify(t, 0, -r/2, r) {
			t.Errorf("r=%g: (0, -r/2) should be inside", r)
		}
		if mustClassify(t, 0, -r/2-eps, r) {
			t.Errorf("r=%g: (0, -r/2-eps) should be outside", r)
		}
	}
}

func TestQuarterDiskAxisBoundary(t *testing.T) {
	for _, r := range radii {
		if !mustClassify(t, -r/2, 0, r) {
			t.Errorf("r=%g: (-r/2, 0) should be inside", r)
		}
		if mustClassify(t, -r/2-eps, 0, r) {
			t.Errorf("r=%g: (-r/2-eps, 0) should be outside", r)
		}
	}
}

func TestQuarterDiskArcPoints(t *testing.T) {
	for _, r := range radii {
		for i := 0; i <= 360; i++ {
			theta := float64(i) * (math.Pi / 2) / 360
			x := -(r / 2) * math.Cos(theta)
			y := -(r / 2) * math.Sin(theta)
			if !mustClassify(t, x, y, r) {
				t.Fatalf("r=%g theta=%g: arc point (%g, %g) should be inside", r, theta, x, y)
			}
		}
	}
}

func TestTriangleHypotenuse(t *testing.T) {
	for _, r := range radii {
		x, y := r/8, 3*r/8
		if !mustClassify(t, x, y, r) {
			t.Errorf("r=%g: (%g, %g) on hypotenuse should be inside", r, x, y)
		}
		if mustClassify(t, x, y+eps, r) {
			t.Errorf("r=%g: (%g, %g) beyond hypotenuse should be outside", r, x, y+eps)
		}
		if !mustClassify(t, r/2, 0, r) || !mustClassify(t, 0, r/2, r) {
			t.Errorf("r=%g: triangle corners should be inside", r)
		}
	}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		r    float64
		want bool
	}{
		{"third-quadrant-outside-disk", -1, -1, 2.5, false},
		{"third-quadrant-inside-disk", -0.5, -0.5, 2.5, true},
		{"second-quadrant-empty", -0.1, 0.1, 2.5, false},
		{"fourth-quadrant-rectangle", 2, -1, 2.5, true},
		{"first-quadrant-triangle", 0.6, 0.6, 2.5, true},
		{"first-quadrant-outside", 0.7, 0.6, 2.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustClassify(t, tt.x, tt.y, tt.r); got != tt.want {
				t.Errorf("Classify(%g, %g, %g) = %v, want %v", tt.x, tt.y, tt.r, got, tt.want)
			}
		})
	}
}

func TestExtremeRadii(t *testing.T) {
	tests := []struct {
		name    string
		x, y, r float64
		want    bool
	}{
		{"huge-r-far-third-quadrant", -1e200, -1e200, 1e160, false},
		{"huge-r-inside-disk", -1e159, -1e159, 1e160, true},
		{"huge-r-rectangle-corner", 1e160, -5e159, 1e160, true},
		{"tiny-r-twice-the-radius", -1e-170, 0, 1e-170, false},
		{"tiny-r-inside-disk", -4e-171, 0, 1e-170, true},
		{"tiny-r-triangle", 2e-171, 2e-171, 1e-170, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustClassify(t, tt.x, tt.y, tt.r); got != tt.want {
				t.Errorf("Classify(%g, %g, %g) = %v, want %v", tt.x, tt.y, tt.r, got, tt.want)
			}
		})
	}
}

func TestShapeReportsSubShape(t *testing.T) {
	kind, err := Shape(-0.5, -0.5, 2.5)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if kind != region.ShapeQuarterDisk {
		t.Fatalf("expected quarter_disk, got %q", kind)
	}
	kind, _ = Shape(-1, -1, 2.5)
	if kind != region.ShapeNone {
		t.Fatalf("expected no shape, got %q", kind)
	}
}

func TestDomainError(t *testing.T) {
	tests := []struct {
		name    string
		x, y, r float64
	}{
		{"zero-r", 0, 0, 0},
		{"negative-r", 0, 0, -1},
		{"nan-r", 0, 0, math.NaN()},
		{"inf-r", 0, 0, math.Inf(1)},
		{"nan-x", math.NaN(), 0, 1},
		{"inf-y", 0, math.Inf(-1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, err := Classify(tt.x, tt.y, tt.r)
			if err == nil {
				t.Fatal("expected domain error")
			}
			if hit {
				t.Fatal("expected hit=false alongside error")
			}
			var de *DomainError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DomainError, got %T", err)
			}
			if de.Reason == "" {
				t.Fatal("expected reason")
			}
		})
	}
}

func TestClassifyPointMatchesClassify(t *testing.T) {
	p := region.Point{X: 0.3, Y: -0.2}
	a, _ := ClassifyPoint(p, 1)
	b, _ := Classify(p.X, p.Y, 1)
	if a != b {
		t.Fatal("ClassifyPoint and Classify disagree")
	}
}

func TestConcurrentClassifyIsDeterministic(t *testing.T) {
	type input struct{ x, y, r float64 }
	inputs := make([]input, 0, 200)
	want := make([]bool, 0, 200)
	for i := 0; i < 200; i++ {
		in := input{x: float64(i%21-10) / 4, y: float64(i%17-8) / 4, r: radii[i%len(radii)]}
		inputs = append(inputs, in)
		want = append(want, mustClassify(t, in.x, in.y, in.r))
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16*len(inputs))
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := range inputs {
				j := (i + offset) % len(inputs)
				got, err := Classify(inputs[j].x, inputs[j].y, inputs[j].r)
				if err != nil || got != want[j] {
					errs <- "mismatch"
				}
			}
		}(w * 13)
	}
	wg.Wait()
	close(errs)
	if n := len(errs); n > 0 {
		t.Fatalf("%d concurrent results differed from sequential ones", n)
	}
}
