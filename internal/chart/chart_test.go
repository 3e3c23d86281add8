package chart

import (
	"bytes"
	"image/png"
	"testing"
)

func decode(t *testing.T, data []byte) (w, h int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRenderSeries(t *testing.T) {
	data, err := Render("co", []float64{50, 80, 0, 120, 95})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if w, h := decode(t, data); w != 480 || h != 160 {
		t.Fatalf("unexpected dimensions %dx%d", w, h)
	}
}

func TestRenderEmptySeries(t *testing.T) {
	data, err := Render("pressure", nil)
	if err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if w, h := decode(t, data); w != 480 || h != 160 {
		t.Fatalf("unexpected dimensions %dx%d", w, h)
	}
}

func TestRenderFlatSeries(t *testing.T) {
	if _, err := Render("temperature", []float64{21.5, 21.5, 21.5}); err != nil {
		t.Fatalf("render flat: %v", err)
	}
}

func TestBounds(t *testing.T) {
	lo, hi := bounds([]float64{3, -1, 7, 2})
	if lo != -1 || hi != 7 {
		t.Fatalf("bounds = %f, %f", lo, hi)
	}
	lo, hi = bounds(nil)
	if lo != 0 || hi != 0 {
		t.Fatalf("empty bounds = %f, %f", lo, hi)
	}
}
