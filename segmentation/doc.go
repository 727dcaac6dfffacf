// Package segmentation detects sources in astronomical images by
// thresholding and connected-component labeling.
//
// The pipeline has three stages, exposed separately and bundled by Detect:
//
//   - Threshold marks pixels at or above a detection level, either a
//     scalar (Threshold, ThresholdSNR) or a per-pixel map (ThresholdMap).
//     Non-finite pixels are never marked.
//   - Label groups marked pixels into connected components with 4- or
//     8-connectivity using two-pass union-find labeling.
//   - FilterSmall drops components below a minimum pixel count and
//     renumbers the survivors.
//
// # Determinism
//
// Every stage is a pure function of its inputs. Labels are consecutive
// integers assigned in order of first appearance in raster order, so the
// same image and parameters always produce the identical Map. Downstream
// catalogs can rely on label numbers being reproducible across runs.
//
// # Limitations
//
// Components are sets of pixels, not fitted profiles. Overlapping sources
// that touch above the threshold merge into one component; deblending is
// out of scope. The background model is scalar per call; spatially varying
// backgrounds need ThresholdMap with an externally built threshold image.
package segmentation
