package biometricService

import (
	"VoxMail/internal/entity"
	"math"
)

// faceDistance is the Euclidean distance between two encodings. Vectors
// of different length never match.
func faceDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// matchFace returns the registered user closest to live, provided the
// distance is strictly below threshold.
func matchFace(users []entity.User, live []float64, threshold float64) (entity.User, float64, bool) {
	best := -1
	bestDist := math.Inf(1)

	for i, u := range users {
		if d := faceDistance(u.FaceEncoding, live); d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 || bestDist >= threshold {
		return entity.User{}, bestDist, false
	}
	return users[best], bestDist, true
}
