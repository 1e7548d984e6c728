// internal/reveal/reveal.go
//
// Progressive reveal of a screenshot.
// Responsibilities:
//   - Split an image into a ROWS x COLS grid of tiles (row-major).
//   - Produce the ordered clue frames: the first frame has the most tiles
//     darkened, every following frame un-darkens exactly one tile.
//
// Notes:
//   - Tile size is floor(width/cols) x floor(height/rows). When the image is not
//     evenly divisible the strip on the right/bottom edge is never covered; we keep
//     it that way instead of stretching the last tile.
//   - The fully clean image is not part of the sequence, callers publish the
//     original file as the terminal clue.
package reveal

import (
	"image"
	"image/color"
	"math/rand/v2"

	"golang.org/x/image/draw"
)

const (
	DefaultRows = 3
	DefaultCols = 4
)

// Shade is painted over every hidden tile (black, ~50% opacity).
var Shade = color.NRGBA{R: 0, G: 0, B: 0, A: 128}

// Tile is a grid cell in pixel coordinates. Bounds are inclusive.
type Tile struct {
	X0, Y0, X1, Y1 int
}

// Rect converts the inclusive tile bounds into a half-open image.Rectangle.
func (t Tile) Rect() image.Rectangle {
	return image.Rect(t.X0, t.Y0, t.X1+1, t.Y1+1)
}

// Partition returns rows*cols tiles in row-major order.
func Partition(height, width, rows, cols int) []Tile {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	th := height / rows
	tw := width / cols

	tiles := make([]Tile, 0, rows*cols)
	for r := 0; r < rows; r++ {
		y := r * th
		for c := 0; c < cols; c++ {
			x := c * tw
			tiles = append(tiles, Tile{X0: x, Y0: y, X1: x + tw - 1, Y1: y + th - 1})
		}
	}
	return tiles
}

// Darken paints Shade over the tile.
func Darken(dst draw.Image, t Tile) {
	draw.Draw(dst, t.Rect(), &image.Uniform{C: Shade}, image.Point{}, draw.Over)
}

// Generate returns len(tiles)-1 frames.
//
// The tiles are shuffled with rng and the last one of the permutation is dropped:
// that cell is never hidden. The remaining tiles are darkened one by one in reverse
// order on a working copy of base and each step is snapshotted, so frame i has
// tiles[i:] darkened and frame len-1 has a single dark tile.
func Generate(base image.Image, tiles []Tile, rng *rand.Rand) []*image.RGBA {
	if len(tiles) < 2 {
		return nil
	}
	order := make([]Tile, len(tiles))
	copy(order, tiles)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	order = order[:len(order)-1]

	work := toRGBA(base)
	frames := make([]*image.RGBA, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		Darken(work, order[i])
		frames[i] = clone(work)
	}
	return frames
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func clone(src *image.RGBA) *image.RGBA {
	dst := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}
