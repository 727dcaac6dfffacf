package segmentation

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hamogu/photutils/grid"
)

// brightBlock returns a 5x5 zero image with a 3x3 block of 10s in the
// middle.
func brightBlock(t *testing.T) *grid.Grid {
	t.Helper()
	return mustGrid(t, [][]float64{
		{0, 0, 0, 0, 0},
		{0, 10, 10, 10, 0},
		{0, 10, 10, 10, 0},
		{0, 10, 10, 10, 0},
		{0, 0, 0, 0, 0},
	})
}

func TestDetect_SingleSource(t *testing.T) {
	img := brightBlock(t)

	m, err := Detect(img, DetectOptions{
		SNRThreshold: 5,
		NPixels:      1,
		Background:   Background{Level: 0, RMS: 1},
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if m.Count != 1 {
		t.Errorf("Expected 1 source, got %d", m.Count)
	}
	want := flattenInts([][]int{
		{0, 0, 0, 0, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 0, 0, 0, 0},
	})
	if diff := cmp.Diff(want, m.Data); diff != "" {
		t.Errorf("Detect mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect_MinSizeRemovesSource(t *testing.T) {
	img := brightBlock(t)

	// The block has 9 pixels, one short of the minimum.
	m, err := Detect(img, DetectOptions{
		SNRThreshold: 5,
		NPixels:      10,
		Background:   Background{Level: 0, RMS: 1},
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if m.Count != 0 {
		t.Errorf("Expected no sources, got %d", m.Count)
	}
	for i, v := range m.Data {
		if v != 0 {
			t.Fatalf("Expected all background, got label %d at index %d", v, i)
		}
	}
}

func TestDetect_AllBackground(t *testing.T) {
	img := mustGrid(t, [][]float64{
		{1, 2, 1},
		{2, 1, 2},
	})

	m, err := Detect(img, DetectOptions{
		SNRThreshold: 5,
		NPixels:      1,
		Background:   Background{Level: 1.5, RMS: 1},
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if m.Count != 0 {
		t.Errorf("Expected no sources in pure noise, got %d", m.Count)
	}
}

func TestDetect_MaskedPixelsStillDetected(t *testing.T) {
	img := brightBlock(t)
	mask := mustMask(t, [][]bool{
		{false, false, false, false, false},
		{false, true, true, true, false},
		{false, true, true, true, false},
		{false, true, true, true, false},
		{false, false, false, false, false},
	})

	opts := DetectOptions{
		SNRThreshold: 5,
		NPixels:      1,
		Background:   Background{Level: 0, RMS: 1},
	}
	unmasked, err := Detect(img, opts)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	opts.Mask = mask
	masked, err := Detect(img, opts)
	if err != nil {
		t.Fatalf("Detect with mask failed: %v", err)
	}

	// The mask only affects background statistics, not which pixels can
	// join a source.
	if diff := cmp.Diff(unmasked, masked); diff != "" {
		t.Errorf("Mask changed detection (-unmasked +masked):\n%s", diff)
	}
}

func TestDetect_MaskShapeMismatch(t *testing.T) {
	img := brightBlock(t)
	mask := mustMask(t, [][]bool{{true, false}})

	_, err := Detect(img, DetectOptions{
		Mask:         mask,
		SNRThreshold: 5,
		NPixels:      1,
		Background:   Background{Level: 0, RMS: 1},
	})
	if err == nil {
		t.Fatal("Expected error for mismatched mask, got nil")
	}
	if !errors.Is(err, grid.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

func TestDetect_InvalidNPixels(t *testing.T) {
	img := brightBlock(t)

	_, err := Detect(img, DetectOptions{
		SNRThreshold: 5,
		NPixels:      0,
		Background:   Background{Level: 0, RMS: 1},
	})
	if err == nil {
		t.Fatal("Expected error for npixels=0, got nil")
	}
	if !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func TestDetect_InvalidConnectivity(t *testing.T) {
	img := brightBlock(t)

	_, err := Detect(img, DetectOptions{
		SNRThreshold: 5,
		NPixels:      1,
		Connectivity: 3,
		Background:   Background{Level: 0, RMS: 1},
	})
	if err == nil {
		t.Fatal("Expected error for connectivity 3, got nil")
	}
	if !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func TestDetect_ConnectivityMergesDiagonal(t *testing.T) {
	img := mustGrid(t, [][]float64{
		{10, 0, 0},
		{0, 10, 0},
		{0, 0, 0},
	})
	opts := DetectOptions{
		SNRThreshold: 5,
		NPixels:      2,
		Background:   Background{Level: 0, RMS: 1},
	}

	m4, err := Detect(img, opts)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if m4.Count != 0 {
		t.Errorf("Expected diagonal pair to be pruned with Connect4, got %d sources", m4.Count)
	}

	opts.Connectivity = Connect8
	m8, err := Detect(img, opts)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if m8.Count != 1 {
		t.Errorf("Expected diagonal pair to survive with Connect8, got %d sources", m8.Count)
	}
}

func TestDetect_NonFinitePixelsAreBackground(t *testing.T) {
	img := mustGrid(t, [][]float64{
		{math.NaN(), 10, 10},
		{math.Inf(1), 10, 10},
		{0, 0, 0},
	})

	m, err := Detect(img, DetectOptions{
		SNRThreshold: 5,
		NPixels:      1,
		Background:   Background{Level: 0, RMS: 1},
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	want := flattenInts([][]int{
		{0, 1, 1},
		{0, 1, 1},
		{0, 0, 0},
	})
	if diff := cmp.Diff(want, m.Data); diff != "" {
		t.Errorf("Detect mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect_Deterministic(t *testing.T) {
	img := mustGrid(t, [][]float64{
		{9, 0, 7, 7, 0},
		{9, 0, 0, 7, 0},
		{0, 0, 8, 0, 6},
		{6, 8, 8, 0, 6},
	})
	opts := DetectOptions{
		SNRThreshold: 3,
		NPixels:      2,
		Connectivity: Connect8,
		Background:   Background{Level: 0, RMS: 2},
	}

	first, err := Detect(img, opts)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	second, err := Detect(img, opts)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Repeated detection differs (-first +second):\n%s", diff)
	}
}
