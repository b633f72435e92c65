package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// VSmall is the smallest geometric quantity treated as non-zero.
const VSmall = 1e-300

// SmallVolume is the tolerance below zero a cell volume may reach from round
// off before it is considered inverted.
const SmallVolume = 1e-15

func facePoints(points []r3.Vec, f Face) []r3.Vec {
	pts := make([]r3.Vec, len(f))
	for i, p := range f {
		pts[i] = points[p]
	}

	return pts
}

func average(pts []r3.Vec) r3.Vec {
	var sum r3.Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}

	return r3.Scale(1/float64(len(pts)), sum)
}

// FaceAreaVector returns the area vector of a polygon, which is normal to it
// by the right-hand rule and has the polygon area as its magnitude.
func FaceAreaVector(pts []r3.Vec) r3.Vec {
	if len(pts) == 3 {
		return r3.Scale(0.5, r3.Cross(r3.Sub(pts[1], pts[0]), r3.Sub(pts[2], pts[0])))
	}

	c := average(pts)

	var s r3.Vec
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		s = r3.Add(s, r3.Scale(0.5, r3.Cross(r3.Sub(pts[i], c), r3.Sub(next, c))))
	}

	return s
}

// FaceCentre returns the area-weighted centre of a polygon.
func FaceCentre(pts []r3.Vec) r3.Vec {
	c := average(pts)
	if len(pts) == 3 {
		return c
	}

	var (
		sumA  float64
		sumAc r3.Vec
	)

	for i := range pts {
		next := pts[(i+1)%len(pts)]
		a := r3.Norm(r3.Cross(r3.Sub(pts[i], c), r3.Sub(next, c))) / 2
		tc := r3.Scale(1.0/3.0, r3.Add(r3.Add(pts[i], next), c))
		sumA += a
		sumAc = r3.Add(sumAc, r3.Scale(a, tc))
	}

	if sumA < VSmall {
		return c
	}

	return r3.Scale(1/sumA, sumAc)
}

// PolyhedronVolume returns the volume enclosed by faces oriented out of the
// polyhedron. Inverted polyhedra return a negative volume.
func PolyhedronVolume(faces [][]r3.Vec) float64 {
	if len(faces) == 0 {
		return 0
	}

	centres := make([]r3.Vec, len(faces))
	for i, f := range faces {
		centres[i] = FaceCentre(f)
	}

	cc := average(centres)

	v := 0.0
	for i, f := range faces {
		v += r3.Dot(r3.Sub(centres[i], cc), FaceAreaVector(f))
	}

	return v / 3
}
