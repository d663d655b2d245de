package flatIndex

import "math"

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
