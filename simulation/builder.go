package simulation

import (
	"log"
	"math/rand"
	"time"

	"github.com/rs/xid"
	"github.com/sarchlab/swapstore/datarecording"
	"github.com/sarchlab/swapstore/kvstore"
	"github.com/sarchlab/swapstore/monitoring"
	"github.com/sarchlab/swapstore/process"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	seed           int64
	seedSet        bool
	rng            *rand.Rand
	logger         *log.Logger
	stepLogging    bool
	recordingOn    bool
	outputFileName string
	dataRecorder   datarecording.DataRecorder
	monitorOn      bool
	monitorPort    int

	kvCapacity        int
	kvPolicy          replacement.Kind
	secondaryCapacity uint64
	swapCapacity      uint64
}

// MakeBuilder creates a new builder. By default the simulation neither
// records nor serves a monitor, and its key-value store keeps five pages in
// primary memory under FIFO.
func MakeBuilder() Builder {
	return Builder{
		kvCapacity:        kvstore.DefaultCapacity,
		kvPolicy:          replacement.FIFO,
		secondaryCapacity: process.DefaultSecondaryCapacity,
		swapCapacity:      process.DefaultSwapCapacity,
	}
}

// WithSeed sets the seed of the random source that generates workloads.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	b.seedSet = true
	return b
}

// WithRand sets the random source that generates workloads.
func (b Builder) WithRand(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// WithLogger sets the logger of the controller.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithStepLogging logs every step with the controller's logger.
func (b Builder) WithStepLogging() Builder {
	b.stepLogging = true
	return b
}

// WithRecording records steps, evictions, transitions and comparisons into
// an SQLite database.
func (b Builder) WithRecording() Builder {
	b.recordingOn = true
	return b
}

// WithoutRecording turns recording off.
func (b Builder) WithoutRecording() Builder {
	b.recordingOn = false
	b.dataRecorder = nil
	b.outputFileName = ""
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
// It turns recording on.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.recordingOn = true
	b.outputFileName = filename
	return b
}

// WithDataRecorder records into the given recorder. It turns recording on.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recordingOn = true
	b.dataRecorder = r
	return b
}

// WithMonitoring serves the monitor once the simulation is built.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithKVCapacity sets how many pages of the key-value store fit in primary
// memory.
func (b Builder) WithKVCapacity(pages int) Builder {
	b.kvCapacity = pages
	return b
}

// WithKVPolicy sets the replacement policy of the key-value store.
func (b Builder) WithKVPolicy(kind replacement.Kind) Builder {
	b.kvPolicy = kind
	return b
}

// WithStorageCapacity sets the secondary storage and swap space, in bytes,
// that the process table accounts against.
func (b Builder) WithStorageCapacity(secondary, swap uint64) Builder {
	b.secondaryCapacity = secondary
	b.swapCapacity = swap
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.rng != nil && b.seedSet {
		panic("seed cannot be set together with a random source")
	}

	if b.dataRecorder != nil && b.outputFileName != "" {
		panic("output file name cannot be set together with a data recorder")
	}

	if b.kvCapacity <= 0 {
		panic("key-value store capacity must be positive")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{}

	s.id = xid.New().String()

	rng := b.rng
	if rng == nil {
		seed := b.seed
		if !b.seedSet {
			seed = time.Now().UnixNano()
		}

		rng = rand.New(rand.NewSource(seed))
	}

	s.controller = sim.NewController(s.id, rng, b.logger)

	if b.stepLogging {
		s.controller.AcceptHook(sim.NewStepLogger(s.controller.Logger()))
	}

	s.ownerCounts = tracing.NewOwnerCountTracer()
	s.controller.AcceptHook(s.ownerCounts)

	if b.recordingOn {
		b.buildRecording(s)
	}

	kv, err := kvstore.New(b.kvCapacity, b.kvPolicy)
	if err != nil {
		panic(err)
	}

	s.kv = kv
	s.processes = process.NewTable(b.secondaryCapacity, b.swapCapacity)

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterController(s.controller)
		if s.visTracer != nil {
			s.monitor.RegisterTracer(s.visTracer)
		}
		s.monitor.RegisterKVStore(s.kv)
		s.monitor.RegisterProcessTable(s.processes)
		s.monitor.StartServer()
	}

	return s
}

func (b Builder) buildRecording(s *Simulation) {
	s.dataRecorder = b.dataRecorder
	if s.dataRecorder == nil {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "swapstore_sim_" + s.id
		}

		s.dataRecorder = datarecording.New(outputPath)
	}

	s.visTracer = tracing.NewDBTracer(s.id, s.dataRecorder)
	s.controller.AcceptHook(s.visTracer)
}
