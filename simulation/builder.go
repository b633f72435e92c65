package simulation

import (
	"fmt"
	"log"
	"math"

	"github.com/rs/xid"

	"github.com/sarchlab/dynmesh/config"
	"github.com/sarchlab/dynmesh/datarecording"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/monitoring"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"

	// Registers the layering modifier type.
	_ "github.com/sarchlab/dynmesh/layering"
)

// Builder can be used to build a simulation.
type Builder struct {
	c              *config.Case
	monitorOn      bool
	monitorPort    int
	recordOn       bool
	outputFileName string
	logger         *log.Logger
}

// MakeBuilder creates a new builder without monitoring and recording.
func MakeBuilder() Builder {
	return Builder{
		logger: log.Default(),
	}
}

// WithCase sets the case to run. Monitoring and recording follow the run
// section of the case.
func (b Builder) WithCase(c *config.Case) Builder {
	b.c = c
	b.monitorOn = c.Run.Monitor
	b.monitorPort = 0
	if c.Run.Monitor {
		b.monitorPort = c.Run.MonitorPort
	}

	b.recordOn = c.Run.Record != ""
	b.outputFileName = c.Run.Record

	return b
}

// WithMonitoring turns on the monitoring server.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	b.monitorPort = 0

	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName records the run into the given file, without the
// .sqlite3 suffix. An empty name picks a unique one.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.recordOn = true
	b.outputFileName = filename

	return b
}

// WithoutRecording sets the simulation to not record data.
func (b Builder) WithoutRecording() Builder {
	b.recordOn = false
	b.outputFileName = ""

	return b
}

// WithLogger sets the logger of the simulation and its modifiers.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	if b.c == nil {
		return nil, fmt.Errorf("%w: no case", modifier.ErrConfig)
	}

	err := b.c.Validate()
	if err != nil {
		return nil, err
	}

	m, err := b.c.Mesh.Builder().Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	s := &Simulation{
		id:                xid.New().String(),
		engine:            sim.NewSerialEngine(),
		mesh:              m,
		registry:          modifier.NewRegistry(),
		modifierNameIndex: make(map[string]int),
		metrics:           monitoring.NewMetrics(),
	}

	s.piston = &Piston{
		engine:   s.engine,
		mesh:     m,
		executor: topochange.NewExecutor(m),
		registry: s.registry,
		logger:   b.logger,
		zone:     b.c.MotionZone(),
		motion: Motion{
			Velocity:  b.c.Motion.Velocity,
			Amplitude: b.c.Motion.Amplitude,
			Period:    b.c.Motion.Period,
		},
		deltaT: b.c.Run.DeltaT,
		nSteps: int(math.Floor(b.c.Run.EndTime/b.c.Run.DeltaT + 1e-9)),
	}

	err = b.buildModifiers(s)
	if err != nil {
		return nil, err
	}

	s.registry.AcceptHook(s.metrics)

	if b.c.Run.Debug {
		s.engine.AcceptHook(sim.NewEventLogger(b.logger))
	}

	if b.recordOn {
		b.buildRecorder(s)
	}

	if b.monitorOn {
		b.buildMonitor(s)
	}

	return s, nil
}

func (b Builder) buildModifiers(s *Simulation) error {
	dict := b.c.ModifierDict()
	if b.c.Run.Debug {
		for _, sub := range dict.SubDicts() {
			if !sub.Has("debug") {
				sub.SetBool("debug", true)
			}
		}
	}

	mods, err := modifier.NewAll(dict, modifier.Env{
		Mesh:   s.mesh,
		Time:   s.piston,
		Logger: b.logger,
	})
	if err != nil {
		return err
	}

	for _, m := range mods {
		s.registerModifier(m)
		m.AcceptHook(s.metrics)
	}

	return nil
}

func (b Builder) buildRecorder(s *Simulation) {
	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "dynmesh_run_" + s.id
	}

	s.dataRecorder = datarecording.New(outputPath)
	s.execRecorder = datarecording.NewExecRecorder(s.dataRecorder)

	layerRecorder := datarecording.NewLayerRecorder(s.dataRecorder)
	s.execRecorder.Set("Run ID", layerRecorder.RunID())

	for _, m := range s.modifiers {
		m.AcceptHook(layerRecorder)
	}

	s.registry.AcceptHook(layerRecorder)
}

func (b Builder) buildMonitor(s *Simulation) {
	s.monitor = monitoring.NewMonitor()
	if b.monitorPort > 0 {
		s.monitor.WithPortNumber(b.monitorPort)
	}

	s.monitor.RegisterEngine(s.engine)
	s.monitor.RegisterStateLock(s.piston)
	s.monitor.RegisterMetrics(s.metrics)

	for _, m := range s.modifiers {
		s.monitor.RegisterModifier(m)
	}

	s.monitor.StartServer()
}
