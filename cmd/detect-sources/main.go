package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hamogu/photutils"
	"github.com/hamogu/photutils/detection"
	"github.com/hamogu/photutils/grid"
	"github.com/hamogu/photutils/internal/imgload"
	"github.com/hamogu/photutils/internal/render"
	"github.com/hamogu/photutils/segmentation"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// settings holds the parsed command line options.
type settings struct {
	snr          float64
	npixels      int
	connectivity int
	fwhm         float64
	clipSigma    float64
	maxIters     int
	peaks        bool
	minDistance  int
	numPeaks     int
	workers      int
	infoOnly     bool
	debug        bool
}

// fileResult is one input's entry in the JSON catalog.
type fileResult struct {
	Path      string                         `json:"path"`
	Info      *imgload.ImageInfo             `json:"info,omitempty"`
	Detection *photutils.DetectSourcesResult `json:"detection,omitempty"`
	Peaks     *photutils.FindPeaksResult     `json:"peaks,omitempty"`
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("detect-sources %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	// Configure logging to stderr (stdout is for the JSON catalog)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var (
		snr          = flag.Float64("snr", 5, "detection threshold in background noise widths")
		npixels      = flag.Int("npixels", 5, "minimum source size in pixels")
		connectivity = flag.Int("connectivity", 4, "pixel connectivity, 4 or 8")
		fwhm         = flag.Float64("fwhm", 0, "Gaussian smoothing FWHM in pixels, 0 disables smoothing")
		clipSigma    = flag.Float64("clip-sigma", 3, "background clipping width in standard deviations")
		maxIters     = flag.Int("max-iters", 0, "background clipping iteration cap, 0 iterates to convergence")
		peaks        = flag.Bool("peaks", false, "also locate peaks inside the detected segments")
		minDistance  = flag.Int("min-distance", 5, "minimum peak spacing in pixels")
		numPeaks     = flag.Int("num-peaks", 0, "keep only the brightest N peaks, 0 keeps all")
		workers      = flag.Int("workers", 1, "goroutines for the per-segment peak search")
		overlayPath  = flag.String("overlay", "", "write a detection overlay image to this path")
		markerColor  = flag.String("marker-color", "#FF0000", "hex marker color for overlay peaks")
		infoOnly     = flag.Bool("info", false, "print image metadata instead of detecting")
		pretty       = flag.Bool("pretty", false, "indent the JSON output")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: detect-sources [options] <image> [<image>...]")
		fmt.Fprintln(os.Stderr, "Run 'detect-sources --help' for details.")
		os.Exit(2)
	}
	if *overlayPath != "" && *infoOnly {
		log.Fatal("-overlay cannot be combined with -info")
	}
	if *overlayPath != "" && flag.NArg() > 1 {
		log.Fatal("-overlay requires exactly one input image")
	}

	cfg := settings{
		snr:          *snr,
		npixels:      *npixels,
		connectivity: *connectivity,
		fwhm:         *fwhm,
		clipSigma:    *clipSigma,
		maxIters:     *maxIters,
		peaks:        *peaks || *overlayPath != "",
		minDistance:  *minDistance,
		numPeaks:     *numPeaks,
		workers:      *workers,
		infoOnly:     *infoOnly,
		debug:        os.Getenv("DETECT_SOURCES_LOG") == "debug",
	}
	if cfg.debug {
		log.Printf("detect-sources v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	// One JSON document per input, emitted as each finishes.
	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	failed := 0
	for _, path := range flag.Args() {
		res, img, err := processFile(path, cfg)
		if err != nil {
			log.Printf("failed to process %s: %v", path, err)
			failed++
			continue
		}
		if err := enc.Encode(res); err != nil {
			log.Fatalf("failed to write catalog entry: %v", err)
		}

		if *overlayPath != "" {
			if err := writeOverlay(img, res, *overlayPath, *markerColor); err != nil {
				log.Printf("failed to write overlay for %s: %v", path, err)
				failed++
			} else if cfg.debug {
				log.Printf("Wrote overlay to %s", *overlayPath)
			}
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// processFile runs the requested analysis on one input image. The loaded
// grid is returned alongside the catalog entry so the caller can render
// an overlay without reloading.
func processFile(path string, cfg settings) (*fileResult, *grid.Grid, error) {
	if cfg.infoOnly {
		info, err := imgload.Info(path)
		if err != nil {
			return nil, nil, err
		}
		return &fileResult{Path: path, Info: info}, nil, nil
	}

	img, err := imgload.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.debug {
		log.Printf("Loaded %s (%dx%d)", path, img.Width, img.Height)
	}

	det, err := photutils.DetectSources(img, photutils.DetectSourcesOptions{
		SNRThreshold: cfg.snr,
		NPixels:      cfg.npixels,
		Connectivity: segmentation.Connectivity(cfg.connectivity),
		FilterFWHM:   cfg.fwhm,
		ClipSigma:    cfg.clipSigma,
		MaxIters:     cfg.maxIters,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.debug {
		log.Printf("Detected %d sources in %s at level %.4g", det.Count, path, det.Level)
	}

	res := &fileResult{Path: path, Detection: det}
	if cfg.peaks {
		// Reuse the background already estimated for the segmentation run.
		pres, err := photutils.FindPeaks(img, photutils.FindPeaksOptions{
			SNRThreshold:  cfg.snr,
			MinDistance:   cfg.minDistance,
			ExcludeBorder: true,
			Labels:        det.Segments,
			NumPeaks:      cfg.numPeaks,
			Workers:       cfg.workers,
			Background: &segmentation.Background{
				Level: det.Background.Mean,
				RMS:   det.Background.RMS,
			},
		})
		if err != nil {
			return nil, nil, err
		}
		res.Peaks = pres
		if cfg.debug {
			log.Printf("Found %d peaks in %s", pres.Count, path)
		}
	}
	return res, img, nil
}

// writeOverlay renders the detection on top of the image and saves it.
func writeOverlay(img *grid.Grid, res *fileResult, path, markerHex string) error {
	opts := render.DefaultOverlayOptions()
	if c, err := render.ParseHexColor(markerHex); err == nil {
		opts.MarkerColor = c
	}

	var segments *segmentation.Map
	if res.Detection != nil {
		segments = res.Detection.Segments
	}
	var peaks []detection.Peak
	if res.Peaks != nil {
		peaks = res.Peaks.Peaks
	}
	overlay, err := render.Overlay(img, segments, peaks, opts)
	if err != nil {
		return err
	}
	return render.Save(overlay, path)
}

func printUsage() {
	fmt.Println("detect-sources - astronomical source detection")
	fmt.Println()
	fmt.Println("Usage: detect-sources [options] <image> [<image>...]")
	fmt.Println()
	fmt.Println("Reads FITS or PNG/JPEG/GIF/TIFF images, detects sources above")
	fmt.Println("a noise-relative threshold, and writes one JSON document per")
	fmt.Println("input to stdout.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -snr N            detection threshold in noise widths (default 5)")
	fmt.Println("  -npixels N        minimum source size in pixels (default 5)")
	fmt.Println("  -connectivity N   pixel connectivity, 4 or 8 (default 4)")
	fmt.Println("  -fwhm F           Gaussian smoothing FWHM in pixels (default 0, off)")
	fmt.Println("  -clip-sigma F     background clipping width (default 3)")
	fmt.Println("  -max-iters N      background iteration cap (default 0, converge)")
	fmt.Println("  -peaks            also locate peaks inside detected segments")
	fmt.Println("  -min-distance N   minimum peak spacing in pixels (default 5)")
	fmt.Println("  -num-peaks N      keep only the brightest N peaks (default 0, all)")
	fmt.Println("  -workers N        goroutines for the peak search (default 1)")
	fmt.Println("  -overlay PATH     write a detection overlay image (single input)")
	fmt.Println("  -marker-color C   hex marker color for overlay peaks (default #FF0000)")
	fmt.Println("  -info             print image metadata instead of detecting")
	fmt.Println("  -pretty           indent the JSON output")
	fmt.Println("  --version, -v     Print version information")
	fmt.Println("  --help, -h        Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  DETECT_SOURCES_LOG=debug    Enable debug logging")
}
