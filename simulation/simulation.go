// Package simulation wires a controller with the services around it.
package simulation

import (
	"github.com/sarchlab/swapstore/datarecording"
	"github.com/sarchlab/swapstore/kvstore"
	"github.com/sarchlab/swapstore/monitoring"
	"github.com/sarchlab/swapstore/process"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/tracing"
)

// A Simulation provides the service requires to run a simulation.
type Simulation struct {
	id         string
	controller *sim.Controller

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	visTracer    *tracing.DBTracer
	ownerCounts  *tracing.OwnerCountTracer

	kv        *kvstore.Store
	processes *process.Table
}

// ID returns the ID of the simulation. The controller and the recorded rows
// carry the same ID.
func (s *Simulation) ID() string {
	return s.id
}

// GetController returns the controller of the simulation.
func (s *Simulation) GetController() *sim.Controller {
	return s.controller
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// if recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil if
// monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetVisTracer returns the tracer used in the simulation. It is nil if
// recording is off.
func (s *Simulation) GetVisTracer() *tracing.DBTracer {
	return s.visTracer
}

// GetOwnerCounts returns the per-owner counters of the latest replay.
func (s *Simulation) GetOwnerCounts() []tracing.OwnerCount {
	return s.ownerCounts.Counts()
}

// GetKVStore returns the paged key-value store of the simulation.
func (s *Simulation) GetKVStore() *kvstore.Store {
	return s.kv
}

// GetProcessTable returns the process table of the simulation.
func (s *Simulation) GetProcessTable() *process.Table {
	return s.processes
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() {
	if s.visTracer != nil {
		s.visTracer.Terminate()
	}

	if s.dataRecorder != nil {
		err := s.dataRecorder.Close()
		if err != nil {
			s.controller.Logger().Printf("closing recorder: %v", err)
		}
	}
}
