// Package imgload reads image files into pixel grids for detection.
//
// FITS is the native astronomical format and is read with physical
// scaling applied. Ordinary picture formats (PNG, JPEG, GIF, TIFF) are
// accepted for quick-look work and reduced to grayscale intensities.
// The package is a boundary adapter: everything downstream works on
// grid.Grid values and never touches files.
package imgload
