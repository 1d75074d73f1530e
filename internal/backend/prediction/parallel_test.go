package prediction

import (
	"image"
	"image/color"
	"sync/atomic"
	"testing"
)

func TestParallelRows_VisitsEveryRowOnce(t *testing.T) {
	const n = 97
	var visits [n]atomic.Int32
	parallelRows(n, func(y int) { visits[y].Add(1) })

	for y := range visits {
		if got := visits[y].Load(); got != 1 {
			t.Errorf("row %d visited %d times", y, got)
		}
	}
}

func TestParallelRows_ZeroRows(t *testing.T) {
	parallelRows(0, func(int) { t.Error("fn must not be called") })
}

func TestParallelRows_PanicReachesCaller(t *testing.T) {
	defer func() {
		if r := recover(); r != "bad row" {
			t.Errorf("expected panic value %q on the caller, got %v", "bad row", r)
		}
	}()

	parallelRows(50, func(y int) {
		if y == 7 {
			panic("bad row")
		}
	})
	t.Fatal("expected parallelRows to panic")
}

// panickyImage panics when one of its pixels is read.
type panickyImage struct {
	image.Image
	badY int
}

func (p panickyImage) At(x, y int) color.Color {
	if y == p.badY {
		panic("pixel unavailable")
	}
	return p.Image.At(x, y)
}

func TestGreenRatio_PanicReachesCaller(t *testing.T) {
	img := panickyImage{Image: uniformImage(16, 16, color.RGBA{34, 139, 34, 255}), badY: 9}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected the pixel panic to surface on the calling goroutine")
		}
	}()
	GreenRatio(img)
}
