package prediction

import (
	"image"
	"math"
	"sync/atomic"
)

// Green band on the 0-180 hue scale with 0-255 saturation and value.
const (
	greenHueMin      = 25
	greenHueMax      = 90
	greenMinSat      = 40
	greenMinValue    = 40
	minLeafGreenness = 0.10
)

// Gate rejects images that are unlikely to show a plant leaf by counting
// green pixels. It false-rejects non-green diseased leaves and
// false-accepts green non-leaf images.
type Gate struct {
	threshold float64
}

func NewGate() *Gate {
	return &Gate{threshold: minLeafGreenness}
}

// IsLeaf reports whether the green pixel fraction reaches the threshold.
func (g *Gate) IsLeaf(img image.Image) bool {
	_, leaf := g.Evaluate(img)
	return leaf
}

// Evaluate returns the green ratio together with the leaf decision.
func (g *Gate) Evaluate(img image.Image) (float64, bool) {
	ratio := GreenRatio(img)
	return ratio, ratio >= g.threshold
}

// GreenRatio returns the fraction of pixels inside the green HSV band.
func GreenRatio(img image.Image) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return 0
	}

	var green atomic.Int64
	parallelRows(height, func(row int) {
		y := bounds.Min.Y + row
		var count int64
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if isGreen(uint8(r>>8), uint8(g>>8), uint8(b>>8)) {
				count++
			}
		}
		green.Add(count)
	})

	return float64(green.Load()) / float64(width*height)
}

func isGreen(r, g, b uint8) bool {
	h, s, v := toHSV(r, g, b)
	return h >= greenHueMin && h <= greenHueMax && s >= greenMinSat && v >= greenMinValue
}

// toHSV converts 8-bit RGB to hue in [0,180] and saturation/value in [0,255].
// Hue and saturation are rounded to integers, as in an 8-bit HSV image.
func toHSV(r, g, b uint8) (h, s, v float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	maxC := max(rf, gf, bf)
	minC := min(rf, gf, bf)
	delta := maxC - minC

	v = maxC
	if maxC > 0 {
		s = math.Round(255 * delta / maxC)
	}
	if delta == 0 {
		return 0, s, v
	}

	var deg float64
	switch maxC {
	case rf:
		deg = 60 * (gf - bf) / delta
	case gf:
		deg = 120 + 60*(bf-rf)/delta
	default:
		deg = 240 + 60*(rf-gf)/delta
	}
	if deg < 0 {
		deg += 360
	}
	return math.Round(deg / 2), s, v
}
