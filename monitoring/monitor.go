// Package monitoring turns a simulation controller into an HTTP server so that
// the simulation can be watched and driven from outside.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/sarchlab/swapstore/monitoring/web"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/sim/hooking"
	psprocess "github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Controller is the part of a simulation controller that the monitor drives.
type Controller interface {
	Snapshot() sim.Snapshot
	Progress() (done, total int)
	Step() (sim.StepResult, error)
	Start(ctx context.Context, delay time.Duration) (<-chan sim.RunResult, error)
	StartResume(ctx context.Context) (<-chan sim.RunResult, error)
	Pause() error
	Reset() error
	Compare(kinds ...replacement.Kind) ([]sim.Summary, error)
}

// Tracer is a recorder that can be switched on and off.
type Tracer interface {
	IsTracing() bool
	EnableTracing()
	StopTracing()
}

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	controller Controller
	tracer     Tracer
	kv         KVStore
	processes  ProcessTable
	portNumber int
	url        string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	replayLock sync.Mutex
	replayBar  *ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterController registers the controller to drive. If the controller
// accepts hooks, the monitor follows its steps to update a progress bar.
func (m *Monitor) RegisterController(c Controller) {
	m.controller = c

	if h, ok := c.(hooking.Hookable); ok {
		h.AcceptHook(m)
	}
}

// RegisterTracer registers the tracer that the trace endpoints switch.
func (m *Monitor) RegisterTracer(t Tracer) {
	m.tracer = t
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Func follows the steps of the controller. A replay of the workload from
// its first reference gets a fresh progress bar, which is removed once the
// workload is exhausted. Steps may be delivered from several goroutines.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	if ctx.Pos != sim.HookPosAfterStep {
		return
	}

	r := ctx.Item.(sim.StepResult)

	m.replayLock.Lock()
	defer m.replayLock.Unlock()

	if r.Index == 0 || m.replayBar == nil {
		if m.replayBar != nil {
			m.CompleteProgressBar(m.replayBar)
		}

		_, total := m.controller.Progress()
		m.replayBar = m.CreateProgressBar(
			"Replay "+r.Policy.String(), uint64(total))
		m.replayBar.IncrementFinished(uint64(r.Index))
	}

	m.replayBar.IncrementFinished(1)

	if m.replayBar.Done() {
		m.CompleteProgressBar(m.replayBar)
		m.replayBar = nil
	}
}

// Router returns the handler of every monitoring endpoint.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/state", m.state).Methods(http.MethodGet)
	r.HandleFunc("/api/step", m.step).Methods(http.MethodPost)
	r.HandleFunc("/api/run", m.run).Methods(http.MethodPost)
	r.HandleFunc("/api/pause", m.pause).Methods(http.MethodPost)
	r.HandleFunc("/api/resume", m.resume).Methods(http.MethodPost)
	r.HandleFunc("/api/reset", m.reset).Methods(http.MethodPost)
	r.HandleFunc("/api/compare", m.compare).Methods(http.MethodPost)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/value/{path}", m.value)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/trace/start", m.startTracing)
	r.HandleFunc("/api/trace/end", m.endTracing)
	r.HandleFunc("/api/trace/is_tracing", m.isTracing)
	m.routeKV(r)
	m.routeProcesses(r)
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts the monitor as a web server with a custom port if wanted.
// It returns the URL of the server.
func (m *Monitor) StartServer() string {
	r := m.Router()

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	return m.url
}

// URL returns the address of the running server, or an empty string before
// StartServer.
func (m *Monitor) URL() string {
	return m.url
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.controller.Snapshot())
}

func (m *Monitor) step(w http.ResponseWriter, _ *http.Request) {
	res, err := m.controller.Step()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (m *Monitor) run(w http.ResponseWriter, r *http.Request) {
	delay := time.Duration(0)

	if ms := r.URL.Query().Get("delay_ms"); ms != "" {
		n, err := strconv.Atoi(ms)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest,
				errorRsp{Error: "invalid delay_ms " + ms})
			return
		}

		delay = time.Duration(n) * time.Millisecond
	}

	done, err := m.controller.Start(context.Background(), delay)
	if err != nil {
		writeError(w, err)
		return
	}

	go logRunEnd("run", done)

	w.WriteHeader(http.StatusAccepted)
}

func (m *Monitor) resume(w http.ResponseWriter, _ *http.Request) {
	done, err := m.controller.StartResume(context.Background())
	if err != nil {
		writeError(w, err)
		return
	}

	go logRunEnd("resume", done)

	w.WriteHeader(http.StatusAccepted)
}

func logRunEnd(op string, done <-chan sim.RunResult) {
	res := <-done
	if res.Err != nil {
		log.Printf("%s stopped: %v", op, res.Err)
	}
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	if err := m.controller.Pause(); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) reset(w http.ResponseWriter, _ *http.Request) {
	if err := m.controller.Reset(); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type compareRsp struct {
	Summaries []sim.Summary               `json:"summaries"`
	Best      map[string]replacement.Kind `json:"best"`
}

func (m *Monitor) compare(w http.ResponseWriter, r *http.Request) {
	var kinds []replacement.Kind

	metrics := []sim.Metric{
		sim.MetricFaults, sim.MetricHitRate, sim.MetricDuration,
	}

	if name := r.URL.Query().Get("best"); name != "" {
		metric, err := sim.ParseMetric(name)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
			return
		}

		metrics = []sim.Metric{metric}
	}

	if names := r.URL.Query().Get("policies"); names != "" {
		for _, name := range strings.Split(names, ",") {
			k, err := replacement.ParseKind(name)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
				return
			}

			kinds = append(kinds, k)
		}
	}

	summaries, err := m.controller.Compare(kinds...)
	if err != nil {
		writeError(w, err)
		return
	}

	rsp := compareRsp{
		Summaries: summaries,
		Best:      make(map[string]replacement.Kind),
	}

	for _, metric := range metrics {
		if best, ok := sim.Best(summaries, metric); ok {
			rsp.Best[metric.String()] = best.Policy
		}
	}

	writeJSON(w, http.StatusOK, rsp)
}

type fieldReq struct {
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
		return
	}

	snapshot := m.controller.Snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(1)

	if req.FieldName != "" {
		err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorRsp{Error: err.Error()})
			return
		}
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) value(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	snapshot := m.controller.Snapshot()

	elem, err := m.walkFields(&snapshot, path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorRsp{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, elem.Interface())
}

type fieldFormatError struct {
	field  string
	reason string
}

func (e fieldFormatError) Error() string {
	return fmt.Sprintf("field %s: %s", e.field, e.reason)
}

// walkFields follows a dot separated path of field names and slice indices.
func (m *Monitor) walkFields(
	root any,
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(root)

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			next := elem.FieldByName(fieldNames[0])
			if !next.IsValid() || !next.CanInterface() {
				return elem, fieldFormatError{fieldNames[0], "no such field"}
			}

			elem = next
			fieldNames = fieldNames[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{fieldNames[0], "bad index"}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			return elem, fieldFormatError{fieldNames[0], "not a container"}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBarView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.View())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, http.StatusOK, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	self, err := psprocess.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := self.CPUPercent()
	dieOnErr(err)

	memorySize, err := self.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		writeJSON(w, http.StatusConflict, errorRsp{Error: err.Error()})
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, http.StatusOK, prof)
}

func (m *Monitor) tracerOr404(w http.ResponseWriter) Tracer {
	if m.tracer == nil {
		writeJSON(w, http.StatusNotFound, errorRsp{Error: "tracing is off"})
	}

	return m.tracer
}

func (m *Monitor) startTracing(w http.ResponseWriter, _ *http.Request) {
	if t := m.tracerOr404(w); t != nil {
		t.EnableTracing()
		w.WriteHeader(http.StatusOK)
	}
}

func (m *Monitor) endTracing(w http.ResponseWriter, _ *http.Request) {
	if t := m.tracerOr404(w); t != nil {
		t.StopTracing()
		w.WriteHeader(http.StatusOK)
	}
}

func (m *Monitor) isTracing(w http.ResponseWriter, _ *http.Request) {
	if t := m.tracerOr404(w); t != nil {
		fmt.Fprintf(w, "{\"is_tracing\":%t}", t.IsTracing())
	}
}

type errorRsp struct {
	Error string `json:"error"`
}

// writeError maps controller errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var cfgErr *sim.ConfigurationError

	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &cfgErr):
		status = http.StatusBadRequest
	case errors.Is(err, sim.ErrInvalidTransition),
		errors.Is(err, sim.ErrCompleted):
		status = http.StatusConflict
	case errors.Is(err, sim.ErrNotInitialized):
		status = http.StatusPreconditionFailed
	}

	writeJSON(w, status, errorRsp{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
