package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a monochrome Braille raster of Width x Height cells, or
// 2*Width x 4*Height dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
	return c
}

// Set lights the dot at (x, y), origin top left.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the dot at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Footprint draws a plan view of where the loss stays at or below
// threshold dB. plane is indexed [angle][range] with angles in degrees
// (0 = east, counter-clockwise) and ranges in metres. The source sits at
// the centre and the outer edge is the largest range.
func Footprint(plane [][]float64, angles, ranges []float64, threshold float64, size int) *Canvas {
	c := NewCanvas(size, size/2)
	if len(ranges) == 0 || len(angles) == 0 {
		return c
	}
	rmax := ranges[len(ranges)-1]
	cx, cy := float64(size), float64(size)
	scale := float64(size) / rmax

	for px := 0; px < 2*size; px++ {
		for py := 0; py < 2*size; py++ {
			x := (float64(px) + 0.5 - cx) / scale
			y := (cy - float64(py) - 0.5) / scale
			r := math.Hypot(x, y)
			if r > rmax {
				continue
			}
			a := math.Atan2(y, x) * 180 / math.Pi
			j := nearestAngle(angles, a)
			n := nearestIndex(ranges, r)
			v := plane[j][n]
			if !math.IsNaN(v) && v <= threshold {
				c.Set(px, py)
			}
		}
	}
	return c
}

// nearestAngle compares on the circle, so -180 and 180 are neighbours.
func nearestAngle(angles []float64, a float64) int {
	best, bestDiff := 0, math.Inf(1)
	for j, q := range angles {
		d := math.Mod(math.Abs(q-a), 360)
		d = math.Min(d, 360-d)
		if d < bestDiff {
			best, bestDiff = j, d
		}
	}
	return best
}

// nearestIndex assumes ascending, evenly spaced values.
func nearestIndex(vals []float64, v float64) int {
	if len(vals) == 1 {
		return 0
	}
	step := vals[1] - vals[0]
	i := int(math.Round((v - vals[0]) / step))
	return max(0, min(i, len(vals)-1))
}
