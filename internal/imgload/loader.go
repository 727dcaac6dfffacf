package imgload

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/astrogo/fitsio"
	_ "golang.org/x/image/tiff" // Register TIFF format decoder

	"github.com/hamogu/photutils/grid"
)

// Load reads an image file into a float64 pixel grid.
//
// FITS files (.fits, .fit, .fts) are read from the first 2-D image HDU
// with BZERO/BSCALE scaling applied, so the grid holds physical values.
// PNG, JPEG, GIF, and TIFF files are converted to grayscale
// intensities: 0-255 for 8-bit images, 0-65535 for 16-bit grayscale
// inputs. Color images are reduced to luminance first.
//
// Parameters:
//   - path: Absolute or relative file path to the image.
//
// Returns:
//   - *grid.Grid: The pixel data, row-major with the top-left pixel first.
//   - error: Non-nil if the file cannot be opened or decoded, or if a
//     FITS file carries no 2-D image data.
func Load(path string) (*grid.Grid, error) {
	if isFITSPath(path) {
		return loadFITS(path)
	}
	return loadPicture(path)
}

func isFITSPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		return true
	}
	return false
}

func loadFITS(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read FITS file: %w", err)
	}
	defer fits.Close()

	img, err := firstImageHDU(fits)
	if err != nil {
		return nil, err
	}
	return fitsGrid(img)
}

// firstImageHDU returns the first HDU holding 2-D image data. Files with
// an empty primary HDU and the data in an extension are handled by the
// scan.
func firstImageHDU(fits *fitsio.File) (fitsio.Image, error) {
	for _, hdu := range fits.HDUs() {
		img, ok := hdu.(fitsio.Image)
		if !ok {
			continue
		}
		axes := img.Header().Axes()
		if len(axes) == 2 && axes[0] > 0 && axes[1] > 0 {
			return img, nil
		}
	}
	return nil, fmt.Errorf("no 2-D image data in FITS file")
}

// fitsGrid reads the pixel data of one image HDU, converting from the
// stored integer or float type and applying the BZERO/BSCALE linear
// scaling from the header.
func fitsGrid(img fitsio.Image) (*grid.Grid, error) {
	hdr := img.Header()
	axes := hdr.Axes()
	w, h := axes[0], axes[1]
	g, err := grid.New(w, h)
	if err != nil {
		return nil, err
	}

	bzero := headerFloat(hdr, "BZERO", 0)
	bscale := headerFloat(hdr, "BSCALE", 1)

	switch bitpix := hdr.Bitpix(); bitpix {
	case 8:
		raw := make([]int8, w*h)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read FITS data: %w", err)
		}
		if len(raw) != w*h {
			return nil, fmt.Errorf("FITS data has %d pixels, header says %d", len(raw), w*h)
		}
		for i, v := range raw {
			g.Data[i] = bscale*float64(v) + bzero
		}
	case 16:
		raw := make([]int16, w*h)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read FITS data: %w", err)
		}
		if len(raw) != w*h {
			return nil, fmt.Errorf("FITS data has %d pixels, header says %d", len(raw), w*h)
		}
		for i, v := range raw {
			g.Data[i] = bscale*float64(v) + bzero
		}
	case 32:
		raw := make([]int32, w*h)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read FITS data: %w", err)
		}
		if len(raw) != w*h {
			return nil, fmt.Errorf("FITS data has %d pixels, header says %d", len(raw), w*h)
		}
		for i, v := range raw {
			g.Data[i] = bscale*float64(v) + bzero
		}
	case 64:
		raw := make([]int64, w*h)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read FITS data: %w", err)
		}
		if len(raw) != w*h {
			return nil, fmt.Errorf("FITS data has %d pixels, header says %d", len(raw), w*h)
		}
		for i, v := range raw {
			g.Data[i] = bscale*float64(v) + bzero
		}
	case -32:
		raw := make([]float32, w*h)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read FITS data: %w", err)
		}
		if len(raw) != w*h {
			return nil, fmt.Errorf("FITS data has %d pixels, header says %d", len(raw), w*h)
		}
		for i, v := range raw {
			g.Data[i] = bscale*float64(v) + bzero
		}
	case -64:
		raw := make([]float64, w*h)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read FITS data: %w", err)
		}
		if len(raw) != w*h {
			return nil, fmt.Errorf("FITS data has %d pixels, header says %d", len(raw), w*h)
		}
		for i, v := range raw {
			g.Data[i] = bscale*float64(v) + bzero
		}
	default:
		return nil, fmt.Errorf("unsupported FITS bitpix %d", bitpix)
	}

	return g, nil
}

// headerFloat reads a numeric header card, falling back to def when the
// card is absent or not numeric.
func headerFloat(hdr *fitsio.Header, key string, def float64) float64 {
	card := hdr.Get(key)
	if card == nil {
		return def
	}
	switch v := card.Value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func loadPicture(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return pictureGrid(img)
}

// pictureGrid converts a decoded image to intensities. Grayscale images
// keep their stored sample values; everything else goes through a
// luminance conversion first.
func pictureGrid(img image.Image) (*grid.Grid, error) {
	b := img.Bounds()
	g, err := grid.New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				g.Set(x, y, float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	case *image.Gray16:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				g.Set(x, y, float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	default:
		gray := effect.Grayscale(img)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				g.Set(x, y, float64(gray.RGBAAt(b.Min.X+x, b.Min.Y+y).R))
			}
		}
	}
	return g, nil
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected format: "fits", "png", "jpeg", "gif",
	// "tiff", or "unknown". Detection is based on file extension.
	Format string `json:"format"`

	// ColorDepth describes the stored sample type, for example
	// "16-bit integer" or "32-bit float" for FITS data and "8-bit" or
	// "16-bit" for picture formats.
	ColorDepth string `json:"color_depth"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Info returns metadata about an image file without converting the pixel
// data.
//
// Parameters:
//   - path: Path to the image file.
//
// Returns:
//   - *ImageInfo: Dimensions, format, sample depth, and file size.
//   - error: Non-nil if the file cannot be opened or decoded.
func Info(path string) (*ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if isFITSPath(path) {
		return fitsInfo(path, stat.Size())
	}
	return pictureInfo(path, stat.Size())
}

func fitsInfo(path string, size int64) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read FITS file: %w", err)
	}
	defer fits.Close()

	img, err := firstImageHDU(fits)
	if err != nil {
		return nil, err
	}
	axes := img.Header().Axes()

	return &ImageInfo{
		Width:         axes[0],
		Height:        axes[1],
		Format:        "fits",
		ColorDepth:    bitpixDepth(img.Header().Bitpix()),
		FileSizeBytes: size,
	}, nil
}

func pictureInfo(path string, size int64) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".tif", ".tiff":
		format = "tiff"
	}

	colorDepth := "8-bit"
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		FileSizeBytes: size,
	}, nil
}

func bitpixDepth(bitpix int) string {
	switch bitpix {
	case 8:
		return "8-bit integer"
	case 16:
		return "16-bit integer"
	case 32:
		return "32-bit integer"
	case 64:
		return "64-bit integer"
	case -32:
		return "32-bit float"
	case -64:
		return "64-bit float"
	}
	return "unknown"
}
