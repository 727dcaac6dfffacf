// Package render turns detection results into viewable overlay images.
//
// The base layer is a percentile-stretched grayscale rendering of the
// image, each detected segment is tinted with a color from a stable
// palette, and peaks are marked with crosses. The output exists for
// human inspection of a detection run; nothing in the library reads it
// back.
package render
