package prediction

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"regexp"
	"strconv"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// svgFallbackSize is used when an SVG has no explicit width and height.
	svgFallbackSize = ModelInputSize
	// maxSVGSide bounds the rasterized canvas; larger documents are scaled down.
	maxSVGSide = ModelInputSize
	// maxRasterPixels bounds the pixel count a raster header may claim.
	maxRasterPixels = 40_000_000
)

var (
	ErrEmptyImage    = errors.New("image data is empty")
	ErrImageTooLarge = errors.New("image dimensions exceed limit")
)

var svgSizeAttr = regexp.MustCompile(`(?i)\s(width|height)\s*=\s*["']\s*([0-9]+(?:\.[0-9]+)?)`)

// decodeImage decodes raster formats registered with the image package and
// rasterizes SVG documents onto a white canvas.
func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if isSVGData(data) {
		return rasterizeSVG(data)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxRasterPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// isSVGData checks the first 4KB for an svg start tag.
func isSVGData(data []byte) bool {
	n := min(len(data), 4096)
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg"))
}

func rasterizeSVG(data []byte) (image.Image, error) {
	width, height, ok := svgExplicitSize(data)
	if !ok {
		width, height = svgFallbackSize, svgFallbackSize
	}
	width, height = fitWithin(width, height, maxSVGSide)

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, canvas, canvas.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	icon.Draw(dasher, 1.0)

	return canvas, nil
}

// svgExplicitSize reads numeric width and height attributes from the svg
// start tag. viewBox is not treated as a pixel size.
func svgExplicitSize(data []byte) (int, int, bool) {
	lower := bytes.ToLower(data[:min(len(data), 8192)])
	start := bytes.Index(lower, []byte("<svg"))
	if start < 0 {
		return 0, 0, false
	}
	tag := lower[start:]
	if end := bytes.IndexByte(tag, '>'); end >= 0 {
		tag = tag[:end]
	}

	var width, height int
	for _, m := range svgSizeAttr.FindAllSubmatch(tag, -1) {
		value, err := strconv.ParseFloat(string(m[2]), 64)
		if err != nil || value < 1 {
			continue
		}
		switch string(m[1]) {
		case "width":
			width = int(value)
		case "height":
			height = int(value)
		}
	}
	if width > 0 && height > 0 {
		return width, height, true
	}
	return 0, 0, false
}

// fitWithin scales width and height down, keeping the aspect ratio, so that
// neither exceeds limit.
func fitWithin(width, height, limit int) (int, int) {
	if width <= limit && height <= limit {
		return width, height
	}
	scale := float64(limit) / float64(max(width, height))
	return max(1, int(math.Round(float64(width)*scale))), max(1, int(math.Round(float64(height)*scale)))
}
