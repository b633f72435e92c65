// Package simulation runs a moving-piston case with its mesh modifiers.
package simulation

import (
	"github.com/sarchlab/dynmesh/datarecording"
	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/monitoring"
	"github.com/sarchlab/dynmesh/sim"
)

// A Simulation holds the mesh, the modifiers and the services of a run.
type Simulation struct {
	id     string
	engine sim.Engine
	mesh   *mesh.PolyMesh
	piston *Piston

	registry          *modifier.Registry
	modifiers         []modifier.Modifier
	modifierNameIndex map[string]int

	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	monitor      *monitoring.Monitor
	metrics      *monitoring.Metrics
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// Mesh returns the mesh the simulation changes.
func (s *Simulation) Mesh() *mesh.PolyMesh {
	return s.mesh
}

// Piston returns the handler that moves the mesh.
func (s *Simulation) Piston() *Piston {
	return s.piston
}

// Registry returns the registry that drives the modifiers.
func (s *Simulation) Registry() *modifier.Registry {
	return s.registry
}

// Modifiers returns the modifiers in the order of the case file.
func (s *Simulation) Modifiers() []modifier.Modifier {
	return s.modifiers
}

// GetModifierByName returns the modifier with the given name, or nil.
func (s *Simulation) GetModifierByName(name string) modifier.Modifier {
	i, ok := s.modifierNameIndex[name]
	if !ok {
		return nil
	}

	return s.modifiers[i]
}

// GetDataRecorder returns the data recorder, nil when the run is not
// recorded.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, nil when the run is not monitored.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Metrics returns the metrics fed by the modifiers.
func (s *Simulation) Metrics() *monitoring.Metrics {
	return s.metrics
}

func (s *Simulation) registerModifier(m modifier.Modifier) {
	name := m.Name()
	if _, found := s.modifierNameIndex[name]; found {
		panic("modifier " + name + " already registered")
	}

	s.modifiers = append(s.modifiers, m)
	s.modifierNameIndex[name] = len(s.modifiers) - 1
	s.registry.Add(m)
}

// Run runs all the steps of the case. It stops at the first error.
func (s *Simulation) Run() error {
	if s.execRecorder != nil {
		s.execRecorder.Start()
	}

	if s.monitor != nil {
		s.piston.progress = s.monitor.CreateProgressBar(
			"Steps", uint64(s.piston.NumSteps()))
		defer s.monitor.CompleteProgressBar(s.piston.progress)
	}

	s.piston.Start()

	err := s.engine.Run()

	s.engine.Finished()

	return err
}

type closer interface {
	Close()
}

// Terminate writes the run information, closes the recorder, and releases
// the caches of the modifiers.
func (s *Simulation) Terminate() {
	if s.execRecorder != nil {
		s.execRecorder.End()
	}

	if s.dataRecorder != nil {
		err := s.dataRecorder.Close()
		if err != nil {
			s.piston.logger.Printf("closing data recorder: %v", err)
		}
	}

	for _, m := range s.modifiers {
		if c, ok := m.(closer); ok {
			c.Close()
		}
	}
}
