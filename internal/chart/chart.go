// Package chart renders recent sensor values as a small PNG sparkline for
// the ops surface.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	width   = 480
	height  = 160
	padding = 24
)

var (
	background = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	axisColor  = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	lineColor  = color.RGBA{R: 30, G: 90, B: 180, A: 255}
	textColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// Render draws values as a line chart titled with label and returns the
// encoded PNG. An empty series yields a chart with just axes and title.
func Render(label string, values []float64) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	// axes
	for x := padding; x < width-padding; x++ {
		img.Set(x, height-padding, axisColor)
	}
	for y := padding; y < height-padding; y++ {
		img.Set(padding, y, axisColor)
	}

	lo, hi := bounds(values)
	if len(values) > 1 {
		plotW := float64(width - 2*padding)
		plotH := float64(height - 2*padding)
		span := hi - lo
		if span == 0 {
			span = 1
		}
		prevX, prevY := 0, 0
		for i, v := range values {
			x := padding + int(plotW*float64(i)/float64(len(values)-1))
			y := height - padding - int(plotH*(v-lo)/span)
			if i > 0 {
				drawLine(img, prevX, prevY, x, y, lineColor)
			}
			prevX, prevY = x, y
		}
	}

	drawString(img, padding, padding-8, label)
	drawString(img, padding+2, padding+10, fmt.Sprintf("max %.1f", hi))
	drawString(img, padding+2, height-padding-4, fmt.Sprintf("min %.1f", lo))

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func drawString(img *image.RGBA, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: textColor},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawLine is a plain Bresenham segment; series are short, no need for
// anti-aliasing.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
