package api

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/JakeFAU/empresasbrasil/internal/mode"
	"github.com/JakeFAU/empresasbrasil/internal/monitor"
)

// Feature states reported by the status endpoint.
const (
	featureWorking    = "WORKING"
	featureRealData   = "REAL_DATA"
	featureSampleData = "SAMPLE_DATA"
	featureStaticData = "STATIC_DATA"
)

type memoryStats struct {
	AllocBytes     uint64 `json:"allocBytes"`
	HeapAllocBytes uint64 `json:"heapAllocBytes"`
	SysBytes       uint64 `json:"sysBytes"`
	NumGC          uint32 `json:"numGC"`
}

type systemInfo struct {
	Mode          string      `json:"mode"`
	ModeSince     time.Time   `json:"modeSince"`
	UptimeSeconds int64       `json:"uptime"`
	PID           int         `json:"pid"`
	GoVersion     string      `json:"goVersion"`
	Goroutines    int         `json:"goroutines"`
	Memory        memoryStats `json:"memory"`
}

type statusResponse struct {
	Success  bool                      `json:"success"`
	System   systemInfo                `json:"system"`
	Database map[string]monitor.Status `json:"database"`
	Features map[string]string         `json:"features"`
}

type reconnectResponse struct {
	Success   bool           `json:"success"`
	Mode      string         `json:"mode"`
	Recovered bool           `json:"recovered"`
	Message   string         `json:"message"`
	Monitor   monitor.Status `json:"monitor"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports ready in both modes; the body tells which one is active.
func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "mode": s.mode().String()})
}

func (s *Server) mode() mode.Mode {
	if s.deps.Mode == nil {
		return mode.Offline
	}
	return s.deps.Mode.Mode()
}

func (s *Server) systemStatus(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	current := s.mode()
	info := systemInfo{
		Mode:          current.String(),
		UptimeSeconds: int64(time.Since(s.opts.StartedAt).Seconds()),
		PID:           os.Getpid(),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		Memory: memoryStats{
			AllocBytes:     mem.Alloc,
			HeapAllocBytes: mem.HeapAlloc,
			SysBytes:       mem.Sys,
			NumGC:          mem.NumGC,
		},
	}
	if s.deps.Mode != nil {
		info.ModeSince = s.deps.Mode.Since()
	}
	var railway monitor.Status
	if s.deps.Monitor != nil {
		railway = s.deps.Monitor.Status()
	}
	railway.Connected = current == mode.Railway

	companies, filters := featureSampleData, featureStaticData
	if current == mode.Railway {
		companies, filters = featureRealData, featureRealData
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Success:  true,
		System:   info,
		Database: map[string]monitor.Status{"railway": railway},
		Features: map[string]string{
			"authentication": featureWorking,
			"companySearch":  companies,
			"filters":        filters,
		},
	})
}

// reconnect runs one probe right away and, if that does not restore the
// database, keeps the monitor polling in the background.
func (s *Server) reconnect(w http.ResponseWriter, r *http.Request) {
	if s.deps.Monitor == nil {
		writeError(w, http.StatusServiceUnavailable, "Monitor de conexão indisponível", nil)
		return
	}
	if !s.opts.DatabaseConfigured {
		writeError(w, http.StatusServiceUnavailable, "Banco de dados não configurado", nil)
		return
	}
	if s.mode() == mode.Railway {
		writeJSON(w, http.StatusOK, reconnectResponse{
			Success: true,
			Mode:    mode.Railway.String(),
			Message: "Banco de dados já conectado",
			Monitor: s.deps.Monitor.Status(),
		})
		return
	}
	s.deps.Monitor.Reset()
	res := s.deps.Monitor.Check(r.Context())
	resp := reconnectResponse{
		Success:   true,
		Recovered: res.Recovered,
		Message:   "Banco de dados reconectado",
	}
	if !res.Recovered {
		s.deps.Monitor.Start(context.WithoutCancel(r.Context()))
		resp.Message = "Banco de dados indisponível, monitoramento reiniciado"
	}
	resp.Mode = s.mode().String()
	resp.Monitor = s.deps.Monitor.Status()
	writeJSON(w, http.StatusOK, resp)
}
