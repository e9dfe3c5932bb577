package web

import (
	"net/http"
	"path/filepath"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/invopop/jsonschema"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/apptrack/apptrack/app/store"
)

// APIStatusResponse is the health and host snapshot for /status
type APIStatusResponse struct {
	Version      string     `json:"version"`
	Uptime       string     `json:"uptime"`
	Applications int        `json:"applications"`
	UndoPending  bool       `json:"undo_pending"`
	Memory       *hostUsage `json:"memory,omitempty"`
	Disk         *hostUsage `json:"disk,omitempty"`
}

type hostUsage struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// handleStatus reports service health plus memory and disk usage of the
// host, the disk figure covers the volume holding the database file.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := APIStatusResponse{
		Version:      s.version,
		Uptime:       time.Since(s.startTime).Truncate(time.Second).String(),
		Applications: s.tracker.Store.Len(),
		UndoPending:  s.tracker.Undo.Pending(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp.Memory = &hostUsage{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}
	} else {
		log.Printf("[WARN] can't read memory stats: %v", err)
	}

	if du, err := disk.Usage(filepath.Dir(s.dbPath)); err == nil {
		resp.Disk = &hostUsage{Total: du.Total, Used: du.Used, UsedPercent: du.UsedPercent}
	} else {
		log.Printf("[WARN] can't read disk stats for %s: %v", s.dbPath, err)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleSchema returns the JSON schema of the application record, useful
// for external tools validating import payloads.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema := jsonschema.Reflect(&store.JobApplication{})
	s.writeJSON(w, http.StatusOK, schema)
}
