package engine

import "math"

const (
	MaxPoints = 100
	MinPoints = 10
)

// Points awards MaxPoints at step 0 down to MinPoints at the last step,
// linearly in between.
func Points(stepIndex, steps int) int {
	if steps <= 1 || stepIndex <= 0 {
		return MaxPoints
	}
	if stepIndex > steps-1 {
		stepIndex = steps - 1
	}
	p := MaxPoints - float64(stepIndex)*float64(MaxPoints-MinPoints)/float64(steps-1)
	return max(MinPoints, int(math.Round(p)))
}
