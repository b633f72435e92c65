package layering

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
)

// ThicknessSample summarizes the thickness of the cells of a layer.
type ThicknessSample struct {
	Min, Avg, Max float64
}

// sampleThickness measures every master cell of the zone as its volume over
// the area of its zone face.
func sampleThickness(m mesh.Mesh, zone mesh.FaceZone) (ThicknessSample, error) {
	v := m.CellVolumes()
	if len(v) > 0 && floats.Min(v) < -mesh.VSmall {
		return ThicknessSample{}, fmt.Errorf("%w: negative cell volume "+
			"%g before topology change", modifier.ErrIntegrity, floats.Min(v))
	}

	s := m.FaceAreas()
	mc := mesh.MasterCells(m, zone)

	delta := make([]float64, len(zone.Faces))
	for i, f := range zone.Faces {
		delta[i] = v[mc[i]] / r3.Norm(s[f])
	}

	return ThicknessSample{
		Min: floats.Min(delta),
		Avg: floats.Sum(delta) / float64(len(delta)),
		Max: floats.Max(delta),
	}, nil
}
