package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// ZonePatch is the local addressing of the faces of a face zone: zone points
// are numbered in the order they are first met, faces keep their mesh
// orientation.
type ZonePatch struct {
	// MeshPoints maps local point labels to mesh point labels.
	MeshPoints []int

	// LocalFaces are the zone faces in local point labels.
	LocalFaces []Face

	// Edges are the distinct face edges in local point labels.
	Edges [][2]int

	// EdgeFaces lists the zone faces (local face labels) using every edge.
	EdgeFaces [][]int

	meshPointMap map[int]int
}

// NewZonePatch builds the local addressing of a zone.
func NewZonePatch(m Mesh, zone FaceZone) *ZonePatch {
	zp := &ZonePatch{meshPointMap: make(map[int]int)}
	faces := m.Faces()

	zp.LocalFaces = make([]Face, len(zone.Faces))
	for i, f := range zone.Faces {
		local := make(Face, len(faces[f]))
		for j, p := range faces[f] {
			lp, ok := zp.meshPointMap[p]
			if !ok {
				lp = len(zp.MeshPoints)
				zp.meshPointMap[p] = lp
				zp.MeshPoints = append(zp.MeshPoints, p)
			}

			local[j] = lp
		}

		zp.LocalFaces[i] = local
	}

	zp.buildEdges()

	return zp
}

func (zp *ZonePatch) buildEdges() {
	edgeIndex := make(map[[2]int]int)

	for fi, f := range zp.LocalFaces {
		for j := range f {
			a, b := f[j], f[(j+1)%len(f)]

			key := [2]int{min(a, b), max(a, b)}
			ei, ok := edgeIndex[key]
			if !ok {
				ei = len(zp.Edges)
				edgeIndex[key] = ei
				zp.Edges = append(zp.Edges, [2]int{a, b})
				zp.EdgeFaces = append(zp.EdgeFaces, nil)
			}

			zp.EdgeFaces[ei] = append(zp.EdgeFaces[ei], fi)
		}
	}
}

// LocalPoint returns the local label of a mesh point, or -1 when the point is
// not on the zone.
func (zp *ZonePatch) LocalPoint(meshPoint int) int {
	lp, ok := zp.meshPointMap[meshPoint]
	if !ok {
		return -1
	}

	return lp
}

// IsInternalEdge tells if the edge is shared by two zone faces.
func (zp *ZonePatch) IsInternalEdge(edge int) bool {
	return len(zp.EdgeFaces[edge]) > 1
}

// InwardPointNormals returns, for every zone point, the unit normal pointing
// into the master cells, averaged over the zone faces using the point.
func (zp *ZonePatch) InwardPointNormals(m Mesh, zone FaceZone) []r3.Vec {
	sf := m.FaceAreas()
	normals := make([]r3.Vec, len(zp.MeshPoints))

	for i, f := range zone.Faces {
		n := r3.Unit(sf[f])
		if !zone.FlipMap[i] {
			n = r3.Scale(-1, n)
		}

		for _, lp := range zp.LocalFaces[i] {
			normals[lp] = r3.Add(normals[lp], n)
		}
	}

	for i, n := range normals {
		if r3.Norm(n) > VSmall {
			normals[i] = r3.Unit(n)
		}
	}

	return normals
}
