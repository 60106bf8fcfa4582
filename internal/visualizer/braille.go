package visualizer

import "strings"

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

// Dot layers, in drawing priority. A cell takes the color of its highest
// layer.
const (
	layerNone uint8 = iota
	layerGrid
	layerCursor
	layerTrace
)

// dotCanvas is a grid of braille dots, two per cell horizontally and four
// vertically. Each dot records the layer that set it.
type dotCanvas struct {
	cols, rows int // cells
	w, h       int // dots
	dots       []uint8
}

func newDotCanvas(cols, rows int) *dotCanvas {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &dotCanvas{
		cols: cols,
		rows: rows,
		w:    cols * 2,
		h:    rows * 4,
		dots: make([]uint8, cols*2*rows*4),
	}
}

func (c *dotCanvas) at(x, y int) uint8 {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return layerNone
	}
	return c.dots[y*c.w+x]
}

func (c *dotCanvas) set(x, y int, layer uint8) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	if i := y*c.w + x; layer > c.dots[i] {
		c.dots[i] = layer
	}
}

// line draws a Bresenham line between two dots, skipping rows outside
// [minY, maxY].
func (c *dotCanvas) line(x0, y0, x1, y1, minY, maxY int, layer uint8) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy

	for {
		if y0 >= minY && y0 <= maxY {
			c.set(x0, y0, layer)
		}
		if x0 == x1 && y0 == y1 {
			break
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

// cell returns the braille pattern of a cell and its highest layer.
func (c *dotCanvas) cell(col, row int) (pattern uint, top uint8) {
	for dx := range 2 {
		for dy := range 4 {
			l := c.at(col*2+dx, row*4+dy)
			if l == layerNone {
				continue
			}
			pattern |= 1 << brailleBits[dx][dy]
			top = max(top, l)
		}
	}
	return pattern, top
}

// writeRow renders one row of cells. Empty cells are written as spaces.
func (c *dotCanvas) writeRow(sb *strings.Builder, row int, color *ansiState, palette func(uint8) colorRGB) {
	for col := range c.cols {
		pattern, top := c.cell(col, row)
		if pattern == 0 {
			sb.WriteByte(' ')
			continue
		}
		color.set(sb, palette(top))
		sb.WriteRune(rune(0x2800 + pattern))
	}
	color.reset(sb)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
