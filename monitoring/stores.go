package monitoring

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sarchlab/swapstore/kvstore"
	"github.com/sarchlab/swapstore/process"
)

// maxValueBytes caps the body of a key-value put.
const maxValueBytes = 1 << 20

// KVStore is the paged key-value store served under /api/kv.
type KVStore interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, bool, error)
	Status() kvstore.Status
	Clear()
}

// ProcessTable is the process table served under /api/processes.
type ProcessTable interface {
	Create(name string, memoryBytes uint64, priority int) process.Process
	Get(pid int) (process.Process, error)
	List(statuses ...process.Status) []process.Process
	SetStatus(pid int, s process.Status) (process.Process, error)
	SwapOut(pid int) (process.Process, error)
	SwapIn(pid int) (process.Process, error)
	Remove(pid int) (process.Process, error)
	StorageStats() process.StorageStats
}

// RegisterKVStore registers the key-value store to serve.
func (m *Monitor) RegisterKVStore(kv KVStore) {
	m.kv = kv
}

// RegisterProcessTable registers the process table to serve.
func (m *Monitor) RegisterProcessTable(t ProcessTable) {
	m.processes = t
}

func (m *Monitor) routeKV(r *mux.Router) {
	r.HandleFunc("/api/kv", m.kvStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/kv", m.kvClear).Methods(http.MethodDelete)
	r.HandleFunc("/api/kv/{key}", m.kvGet).Methods(http.MethodGet)
	r.HandleFunc("/api/kv/{key}", m.kvPut).
		Methods(http.MethodPut, http.MethodPost)
}

func (m *Monitor) routeProcesses(r *mux.Router) {
	r.HandleFunc("/api/processes", m.listProcesses).Methods(http.MethodGet)
	r.HandleFunc("/api/processes", m.createProcess).Methods(http.MethodPost)
	r.HandleFunc("/api/processes/{pid}", m.getProcess).Methods(http.MethodGet)
	r.HandleFunc("/api/processes/{pid}", m.removeProcess).
		Methods(http.MethodDelete)
	r.HandleFunc("/api/processes/{pid}/swap_out", m.swapOut).
		Methods(http.MethodPost)
	r.HandleFunc("/api/processes/{pid}/swap_in", m.swapIn).
		Methods(http.MethodPost)
	r.HandleFunc("/api/processes/{pid}/status", m.setProcessStatus).
		Methods(http.MethodPost)
	r.HandleFunc("/api/storage", m.storageStats).Methods(http.MethodGet)
}

func (m *Monitor) kvOr404(w http.ResponseWriter) KVStore {
	if m.kv == nil {
		writeJSON(w, http.StatusNotFound,
			errorRsp{Error: "key-value store is off"})
	}

	return m.kv
}

func (m *Monitor) kvStatus(w http.ResponseWriter, _ *http.Request) {
	if kv := m.kvOr404(w); kv != nil {
		writeJSON(w, http.StatusOK, kv.Status())
	}
}

func (m *Monitor) kvClear(w http.ResponseWriter, _ *http.Request) {
	if kv := m.kvOr404(w); kv != nil {
		kv.Clear()
		w.WriteHeader(http.StatusOK)
	}
}

type kvRsp struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (m *Monitor) kvGet(w http.ResponseWriter, r *http.Request) {
	kv := m.kvOr404(w)
	if kv == nil {
		return
	}

	key := mux.Vars(r)["key"]

	value, ok, err := kv.Get(key)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if !ok {
		writeJSON(w, http.StatusNotFound, errorRsp{Error: "no key " + key})
		return
	}

	writeJSON(w, http.StatusOK, kvRsp{Key: key, Value: string(value)})
}

func (m *Monitor) kvPut(w http.ResponseWriter, r *http.Request) {
	kv := m.kvOr404(w)
	if kv == nil {
		return
	}

	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge,
			errorRsp{Error: err.Error()})
		return
	}

	if err := kv.Put(mux.Vars(r)["key"], value); err != nil {
		writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) processesOr404(w http.ResponseWriter) ProcessTable {
	if m.processes == nil {
		writeJSON(w, http.StatusNotFound,
			errorRsp{Error: "process table is off"})
	}

	return m.processes
}

func (m *Monitor) listProcesses(w http.ResponseWriter, r *http.Request) {
	t := m.processesOr404(w)
	if t == nil {
		return
	}

	var statuses []process.Status

	if names := r.URL.Query().Get("status"); names != "" {
		for _, name := range strings.Split(names, ",") {
			s, err := process.ParseStatus(name)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
				return
			}

			statuses = append(statuses, s)
		}
	}

	writeJSON(w, http.StatusOK, t.List(statuses...))
}

type createProcessReq struct {
	Name        string `json:"name"`
	MemoryBytes uint64 `json:"memory_bytes"`
	Priority    int    `json:"priority"`
}

func (m *Monitor) createProcess(w http.ResponseWriter, r *http.Request) {
	t := m.processesOr404(w)
	if t == nil {
		return
	}

	req := createProcessReq{}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorRsp{Error: "name is empty"})
		return
	}

	writeJSON(w, http.StatusCreated,
		t.Create(req.Name, req.MemoryBytes, req.Priority))
}

// withPID resolves the pid path variable and answers with the process that
// op returns.
func (m *Monitor) withPID(
	w http.ResponseWriter,
	r *http.Request,
	op func(t ProcessTable, pid int) (process.Process, error),
) {
	t := m.processesOr404(w)
	if t == nil {
		return
	}

	pid, err := strconv.Atoi(mux.Vars(r)["pid"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
		return
	}

	p, err := op(t, pid)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (m *Monitor) getProcess(w http.ResponseWriter, r *http.Request) {
	m.withPID(w, r, ProcessTable.Get)
}

func (m *Monitor) removeProcess(w http.ResponseWriter, r *http.Request) {
	m.withPID(w, r, ProcessTable.Remove)
}

func (m *Monitor) swapOut(w http.ResponseWriter, r *http.Request) {
	m.withPID(w, r, ProcessTable.SwapOut)
}

func (m *Monitor) swapIn(w http.ResponseWriter, r *http.Request) {
	m.withPID(w, r, ProcessTable.SwapIn)
}

func (m *Monitor) setProcessStatus(w http.ResponseWriter, r *http.Request) {
	s, err := process.ParseStatus(r.URL.Query().Get("value"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
		return
	}

	m.withPID(w, r, func(t ProcessTable, pid int) (process.Process, error) {
		return t.SetStatus(pid, s)
	})
}

func (m *Monitor) storageStats(w http.ResponseWriter, _ *http.Request) {
	if t := m.processesOr404(w); t != nil {
		writeJSON(w, http.StatusOK, t.StorageStats())
	}
}

// writeStoreError maps key-value store and process table errors to status
// codes.
func writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, kvstore.ErrEmptyKey):
		status = http.StatusBadRequest
	case errors.Is(err, process.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, process.ErrBadStatus),
		errors.Is(err, process.ErrSwapFull):
		status = http.StatusConflict
	}

	writeJSON(w, status, errorRsp{Error: err.Error()})
}
