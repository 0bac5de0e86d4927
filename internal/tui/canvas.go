package tui

import (
	"image"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a grid of braille cells, each 2 dots wide and 4 dots tall.
type Canvas struct {
	Width, Height int
	Grid          [][]rune

	gray *image.Gray
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: max(1, w), Height: max(1, h)}
	c.Grid = make([][]rune, c.Height)
	for i := range c.Grid {
		c.Grid[i] = make([]rune, c.Width)
	}
	c.Clear()
	return c
}

// Set turns on the dot at (x, y) in dot coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line in dot coordinates using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Rect outlines a rectangle given in dot coordinates.
func (c *Canvas) Rect(r image.Rectangle) {
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)
}

// Dots is the canvas size in dots.
func (c *Canvas) Dots() image.Point { return image.Pt(c.Width*2, c.Height*4) }

// DrawImage downsamples img onto the dot grid and sets every dot whose
// luminance differs from the background luminance by more than threshold.
func (c *Canvas) DrawImage(img image.Image, bgLuma uint8, threshold uint8) {
	dots := c.Dots()
	if c.gray == nil || c.gray.Bounds().Size() != dots {
		c.gray = image.NewGray(image.Rectangle{Max: dots})
	}
	xdraw.ApproxBiLinear.Scale(c.gray, c.gray.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	for y := 0; y < dots.Y; y++ {
		for x := 0; x < dots.X; x++ {
			v := c.gray.GrayAt(x, y).Y
			d := int(v) - int(bgLuma)
			if absInt(d) > int(threshold) {
				c.Set(x, y)
			}
		}
	}
}

// ToSurface maps a terminal cell of the canvas to the pixel at the center of
// that cell on a surface of the given size.
func (c *Canvas) ToSurface(col, row int, surface image.Point) image.Point {
	return image.Pt(
		(2*col+1)*surface.X/(2*c.Width),
		(2*row+1)*surface.Y/(2*c.Height),
	)
}

// ToDots maps a surface rectangle to dot coordinates.
func (c *Canvas) ToDots(r image.Rectangle, surface image.Point) image.Rectangle {
	dots := c.Dots()
	return image.Rect(
		r.Min.X*dots.X/surface.X, r.Min.Y*dots.Y/surface.Y,
		r.Max.X*dots.X/surface.X, r.Max.Y*dots.Y/surface.Y,
	)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		b.WriteString(string(row))
		if i < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
