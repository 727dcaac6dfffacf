// Package grid provides the pixel array types shared by the detection and
// segmentation packages.
//
// A Grid holds float64 image intensities, a Mask holds per-pixel booleans,
// and both use the same row-major layout with the origin at the top-left
// corner (x increases rightward, y increases downward). The package also
// defines the two validation error sentinels used across the module,
// ErrInvalidParameter and ErrShapeMismatch.
//
// Grids are plain data: there is no embedded mask, no metadata, and no
// coordinate system. Adapting richer image representations (FITS files,
// PNG images) to a Grid is the job of a boundary adapter, not of this
// package.
package grid
