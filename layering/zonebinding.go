package layering

import (
	"fmt"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
)

// zoneBinding keeps a face zone name bound to its index in the live mesh.
type zoneBinding struct {
	name   string
	index  int
	active bool
}

func (z *zoneBinding) resolve(m mesh.Mesh) error {
	z.index = m.FindFaceZone(z.name)
	z.active = z.index >= 0

	if !z.active {
		return fmt.Errorf("%w: face zone %s not found",
			modifier.ErrConfig, z.name)
	}

	if m.FaceZones()[z.index].Size() == 0 {
		return fmt.Errorf("%w: face zone %s contains no faces",
			modifier.ErrConfig, z.name)
	}

	return nil
}

func (z *zoneBinding) zone(m mesh.Mesh) (mesh.FaceZone, error) {
	if !z.active {
		return mesh.FaceZone{}, fmt.Errorf("%w: face zone %s is not "+
			"bound to the mesh", modifier.ErrConfig, z.name)
	}

	fz := m.FaceZones()[z.index]
	if fz.Size() == 0 {
		return mesh.FaceZone{}, fmt.Errorf("%w: face zone %s contains "+
			"no faces", modifier.ErrConfig, z.name)
	}

	return fz, nil
}
