// Package detection finds locally maximal pixels (peaks) in astronomical
// images.
//
// FindPeaks compares each pixel against the maximum of a surrounding
// footprint window and keeps pixels that tie that maximum and reach an
// absolute intensity threshold. Flat plateaus report every member pixel.
// The search can be restricted to the labeled components of a
// segmentation.Map, in which case each component is searched independently
// and bright neighbors outside a component never suppress its peaks.
//
// Results are deterministic: peaks are sorted by intensity descending with
// raster-order tie-breaking, so repeated runs and capped result counts
// always agree.
package detection
