package segmentation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hamogu/photutils/grid"
)

func mustGrid(t *testing.T, rows [][]float64) *grid.Grid {
	t.Helper()
	g, err := grid.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	return g
}

func mustMask(t *testing.T, rows [][]bool) *grid.Mask {
	t.Helper()
	m, err := grid.MaskFromRows(rows)
	if err != nil {
		t.Fatalf("MaskFromRows failed: %v", err)
	}
	return m
}

func flattenInts(rows [][]int) []int {
	var out []int
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

func TestLabel_SingleBlock(t *testing.T) {
	fg := mustMask(t, [][]bool{
		{false, false, false, false, false},
		{false, true, true, true, false},
		{false, true, true, true, false},
		{false, true, true, true, false},
		{false, false, false, false, false},
	})

	m, err := Label(fg, Connect4)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	if m.Count != 1 {
		t.Errorf("Expected 1 component, got %d", m.Count)
	}
	want := flattenInts([][]int{
		{0, 0, 0, 0, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 0, 0, 0, 0},
	})
	if diff := cmp.Diff(want, m.Data); diff != "" {
		t.Errorf("Label mismatch (-want +got):\n%s", diff)
	}
}

func TestLabel_NumbersComponentsInRasterOrder(t *testing.T) {
	fg := mustMask(t, [][]bool{
		{true, false, true},
	})

	m, err := Label(fg, Connect4)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	want := []int{1, 0, 2}
	if diff := cmp.Diff(want, m.Data); diff != "" {
		t.Errorf("Label mismatch (-want +got):\n%s", diff)
	}
	if m.Count != 2 {
		t.Errorf("Expected 2 components, got %d", m.Count)
	}
}

func TestLabel_MergesProvisionalLabels(t *testing.T) {
	// Three prongs that only join on the second row. The first pass hands
	// out three provisional labels; union-find must collapse them to one.
	fg := mustMask(t, [][]bool{
		{true, false, true, false, true},
		{true, true, true, true, true},
	})

	m, err := Label(fg, Connect4)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	if m.Count != 1 {
		t.Errorf("Expected 1 component, got %d", m.Count)
	}
	want := flattenInts([][]int{
		{1, 0, 1, 0, 1},
		{1, 1, 1, 1, 1},
	})
	if diff := cmp.Diff(want, m.Data); diff != "" {
		t.Errorf("Label mismatch (-want +got):\n%s", diff)
	}
}

func TestLabel_ConnectivitySplitsDiagonal(t *testing.T) {
	fg := mustMask(t, [][]bool{
		{true, false},
		{false, true},
	})

	m4, err := Label(fg, Connect4)
	if err != nil {
		t.Fatalf("Label with Connect4 failed: %v", err)
	}
	if m4.Count != 2 {
		t.Errorf("Expected 2 components with Connect4, got %d", m4.Count)
	}

	m8, err := Label(fg, Connect8)
	if err != nil {
		t.Fatalf("Label with Connect8 failed: %v", err)
	}
	if m8.Count != 1 {
		t.Errorf("Expected 1 component with Connect8, got %d", m8.Count)
	}
}

func TestLabel_CheckerboardNumbering(t *testing.T) {
	fg := mustMask(t, [][]bool{
		{true, false, true},
		{false, true, false},
		{true, false, true},
	})

	m, err := Label(fg, Connect4)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	// Isolated pixels under Connect4, numbered by raster position.
	want := flattenInts([][]int{
		{1, 0, 2},
		{0, 3, 0},
		{4, 0, 5},
	})
	if diff := cmp.Diff(want, m.Data); diff != "" {
		t.Errorf("Label mismatch (-want +got):\n%s", diff)
	}

	m8, err := Label(fg, Connect8)
	if err != nil {
		t.Fatalf("Label with Connect8 failed: %v", err)
	}
	if m8.Count != 1 {
		t.Errorf("Expected checkerboard to connect under Connect8, got %d components", m8.Count)
	}
}

func TestLabel_ZeroConnectivityDefaultsTo4(t *testing.T) {
	fg := mustMask(t, [][]bool{
		{true, false},
		{false, true},
	})

	m, err := Label(fg, 0)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if m.Count != 2 {
		t.Errorf("Expected zero connectivity to behave like Connect4, got %d components", m.Count)
	}
}

func TestLabel_InvalidConnectivity(t *testing.T) {
	fg := mustMask(t, [][]bool{{true}})

	_, err := Label(fg, 6)
	if err == nil {
		t.Fatal("Expected error for connectivity 6, got nil")
	}
	if !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func TestLabel_EmptyMask(t *testing.T) {
	fg := mustMask(t, [][]bool{
		{false, false},
		{false, false},
	})

	m, err := Label(fg, Connect4)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if m.Count != 0 {
		t.Errorf("Expected 0 components, got %d", m.Count)
	}
	if diff := cmp.Diff([]int{0, 0, 0, 0}, m.Data); diff != "" {
		t.Errorf("Label mismatch (-want +got):\n%s", diff)
	}
}

func TestLabel_Deterministic(t *testing.T) {
	fg := mustMask(t, [][]bool{
		{true, true, false, true, false, true},
		{false, true, false, true, true, true},
		{true, true, false, false, false, true},
		{true, false, true, true, false, false},
	})

	first, err := Label(fg, Connect8)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	second, err := Label(fg, Connect8)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Repeated labeling differs (-first +second):\n%s", diff)
	}
}
