package render

import (
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hamogu/photutils/detection"
	"github.com/hamogu/photutils/grid"
	"github.com/hamogu/photutils/segmentation"
)

func mustGrid(t *testing.T, rows [][]float64) *grid.Grid {
	t.Helper()
	g, err := grid.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	return g
}

func TestStretch_MapsFullRange(t *testing.T) {
	img := mustGrid(t, [][]float64{{0, 50, 100}})

	out, err := Stretch(img, 0, 100)
	if err != nil {
		t.Fatalf("Stretch failed: %v", err)
	}

	want := []uint8{0, 128, 255}
	for x, w := range want {
		if got := out.GrayAt(x, 0).Y; got != w {
			t.Errorf("Expected %d at column %d, got %d", w, x, got)
		}
	}
}

func TestStretch_ClampsAboveHighPercentile(t *testing.T) {
	img := mustGrid(t, [][]float64{{0, 1, 2, 3, 100}})

	out, err := Stretch(img, 0, 75)
	if err != nil {
		t.Fatalf("Stretch failed: %v", err)
	}

	if got := out.GrayAt(4, 0).Y; got != 255 {
		t.Errorf("Expected outlier clamped to 255, got %d", got)
	}
	if got := out.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("Expected minimum at 0, got %d", got)
	}
}

func TestStretch_UniformImage(t *testing.T) {
	img := mustGrid(t, [][]float64{{5, 5}, {5, 5}})

	out, err := Stretch(img, 0, 100)
	if err != nil {
		t.Fatalf("Stretch failed: %v", err)
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := out.GrayAt(x, y).Y; got != 0 {
				t.Errorf("Expected flat image to render black, got %d at (%d,%d)", got, x, y)
			}
		}
	}
}

func TestStretch_NaNRendersBlack(t *testing.T) {
	img := mustGrid(t, [][]float64{{math.NaN(), 100}})

	out, err := Stretch(img, 0, 100)
	if err != nil {
		t.Fatalf("Stretch failed: %v", err)
	}

	if got := out.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("Expected NaN pixel to render black, got %d", got)
	}
}

func TestStretch_InvalidPercentiles(t *testing.T) {
	img := mustGrid(t, [][]float64{{1, 2}})

	for _, pair := range [][2]float64{{60, 40}, {-1, 99}, {1, 101}, {50, 50}} {
		_, err := Stretch(img, pair[0], pair[1])
		if err == nil {
			t.Fatalf("Expected error for percentiles %v, got nil", pair)
		}
		if !errors.Is(err, grid.ErrInvalidParameter) {
			t.Errorf("Expected ErrInvalidParameter for %v, got %v", pair, err)
		}
	}
}

func TestPalette_DistinctColors(t *testing.T) {
	palette := Palette(12)

	seen := make(map[color.RGBA]bool)
	for i, c := range palette {
		if c.A != 255 {
			t.Errorf("Expected opaque color at %d, got alpha %d", i, c.A)
		}
		if seen[c] {
			t.Errorf("Duplicate color %v at index %d", c, i)
		}
		seen[c] = true
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
	}{
		{"#FF0000", color.RGBA{R: 255, A: 255}},
		{"00FF00", color.RGBA{G: 255, A: 255}},
		{"#11223344", color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
	}
	for _, tc := range cases {
		got, err := ParseHexColor(tc.in)
		if err != nil {
			t.Fatalf("ParseHexColor(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseHexColor(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}

	for _, bad := range []string{"", "#12345", "zzzzzz", "#1122334455"} {
		_, err := ParseHexColor(bad)
		if err == nil {
			t.Errorf("Expected error for %q, got nil", bad)
			continue
		}
		if !errors.Is(err, grid.ErrInvalidParameter) {
			t.Errorf("Expected ErrInvalidParameter for %q, got %v", bad, err)
		}
	}
}

func TestOverlay_TintsSegments(t *testing.T) {
	img := mustGrid(t, [][]float64{{0, 100, 0}})
	segments := &segmentation.Map{Data: []int{0, 1, 0}, Width: 3, Height: 1, Count: 1}

	out, err := Overlay(img, segments, nil, OverlayOptions{
		LowPercentile:  0,
		HighPercentile: 100,
		SegmentAlpha:   1,
	})
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}

	want := Palette(1)[0]
	if got := out.RGBAAt(1, 0); got != want {
		t.Errorf("Expected segment pixel tinted %v, got %v", want, got)
	}
	if got := out.RGBAAt(0, 0); got.R != got.G || got.G != got.B {
		t.Errorf("Expected background pixel to stay gray, got %v", got)
	}
}

func TestOverlay_DrawsMarkers(t *testing.T) {
	img := mustGrid(t, [][]float64{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 9, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})
	red := color.RGBA{R: 255, A: 255}

	out, err := Overlay(img, nil, []detection.Peak{{X: 2, Y: 2, Value: 9}}, OverlayOptions{
		LowPercentile:  0,
		HighPercentile: 100,
		MarkerColor:    red,
		MarkerSize:     1,
	})
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}

	for _, p := range []struct{ x, y int }{{2, 2}, {1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		if got := out.RGBAAt(p.x, p.y); got != red {
			t.Errorf("Expected marker at (%d,%d), got %v", p.x, p.y, got)
		}
	}
	if got := out.RGBAAt(0, 0); got == red {
		t.Error("Expected corner pixel unmarked")
	}
}

func TestOverlay_MarkerClippedAtEdge(t *testing.T) {
	img := mustGrid(t, [][]float64{{1, 0}, {0, 0}})
	red := color.RGBA{R: 255, A: 255}

	out, err := Overlay(img, nil, []detection.Peak{{X: 0, Y: 0, Value: 1}}, OverlayOptions{
		LowPercentile:  0,
		HighPercentile: 100,
		MarkerColor:    red,
		MarkerSize:     3,
	})
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if got := out.RGBAAt(0, 0); got != red {
		t.Errorf("Expected marker at origin, got %v", got)
	}
}

func TestOverlay_SegmentShapeMismatch(t *testing.T) {
	img := mustGrid(t, [][]float64{{1, 2}})
	segments := &segmentation.Map{Data: []int{1}, Width: 1, Height: 1, Count: 1}

	_, err := Overlay(img, segments, nil, DefaultOverlayOptions())
	if err == nil {
		t.Fatal("Expected error for mismatched segments, got nil")
	}
	if !errors.Is(err, grid.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

func TestSave_WritesPNG(t *testing.T) {
	img := mustGrid(t, [][]float64{{0, 100}, {100, 0}})
	out, err := Overlay(img, nil, nil, DefaultOverlayOptions())
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "overlay.png")
	if err := Save(out, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if stat.Size() == 0 {
		t.Error("Expected non-empty file")
	}
}
