package engine

import (
	"math"
	"math/rand/v2"
)

const (
	ShimmerBasePercentage = 0.25
	ShimmerDecayFactor    = 1.5
)

// Grid is the mosaic shown to players: Res×Res blocks, 3 bytes (RGB) each.
type Grid struct {
	Res int
	Pix []byte
}

func NewGrid(res int) *Grid {
	return &Grid{Res: res, Pix: make([]byte, res*res*3)}
}

func (g *Grid) Blocks() int { return g.Res * g.Res }

func (g *Grid) At(x, y int) [3]byte {
	i := (y*g.Res + x) * 3
	return [3]byte{g.Pix[i], g.Pix[i+1], g.Pix[i+2]}
}

// Bytes returns a copy of the RGB buffer, safe to hand to other goroutines.
func (g *Grid) Bytes() []byte {
	out := make([]byte, len(g.Pix))
	copy(out, g.Pix)
	return out
}

// Sample builds a fresh grid where every block takes the color of one random
// pixel inside its source rectangle.
func Sample(img *NativeImage, res int, rng *rand.Rand) *Grid {
	g := NewGrid(res)
	for i := range g.Blocks() {
		g.resample(i, img, rng)
	}
	return g
}

// Inherit returns a grid at newRes where each block copies the old block
// containing its top-left corner. The receiver is not modified.
func (g *Grid) Inherit(newRes int) *Grid {
	next := NewGrid(newRes)
	for y := range newRes {
		oldY := y * g.Res / newRes
		for x := range newRes {
			oldX := x * g.Res / newRes
			src := (oldY*g.Res + oldX) * 3
			dst := (y*newRes + x) * 3
			copy(next.Pix[dst:dst+3], g.Pix[src:src+3])
		}
	}
	return next
}

// ShimmerCount is how many blocks a shimmer tick resamples at stepIndex.
func ShimmerCount(totalBlocks, stepIndex int) int {
	pct := ShimmerBasePercentage / math.Pow(ShimmerDecayFactor, float64(stepIndex))
	return max(1, int(math.Floor(float64(totalBlocks)*pct)))
}

// Shimmer resamples a random subset of blocks from img and returns how many
// were touched.
func (g *Grid) Shimmer(img *NativeImage, stepIndex int, rng *rand.Rand) int {
	total := g.Blocks()
	n := ShimmerCount(total, stepIndex)
	for range n {
		g.resample(rng.IntN(total), img, rng)
	}
	return n
}

func (g *Grid) resample(i int, img *NativeImage, rng *rand.Rand) {
	bx, by := i%g.Res, i/g.Res

	x1 := bx * img.Width / g.Res
	x2 := (bx + 1) * img.Width / g.Res
	y1 := by * img.Height / g.Res
	y2 := (by + 1) * img.Height / g.Res

	rx := x1 + rng.IntN(max(1, x2-x1))
	ry := y1 + rng.IntN(max(1, y2-y1))

	r, gr, b := img.RGBAt(rx, ry)
	dst := i * 3
	g.Pix[dst], g.Pix[dst+1], g.Pix[dst+2] = r, gr, b
}
