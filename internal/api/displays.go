package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// DisplayInfo describes one registered display.
type DisplayInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Minor       int    `json:"minor"`
	Variant     string `json:"variant"`
	FrequencyHz uint32 `json:"frequency_hz"`
}

// DisplayStats is the per-display bus counter response.
type DisplayStats struct {
	Name         string `json:"name"`
	BusReads     uint64 `json:"bus_reads"`
	BusWrites    uint64 `json:"bus_writes"`
	BytesWritten uint64 `json:"bytes_written"`
	BusErrors    uint64 `json:"bus_errors"`
}

// handleListDisplays returns all configured displays with their node info.
func (s *Server) handleListDisplays(w http.ResponseWriter, _ *http.Request) {
	// Index registry entries by path for minor lookup.
	minors := make(map[string]int)
	for _, info := range s.registry.List() {
		minors[info.Path] = info.Minor
	}

	displays := make([]DisplayInfo, 0, len(s.displays))
	for name, path := range s.displays {
		entry := DisplayInfo{Name: name, Path: path}
		if minor, ok := minors[path]; ok {
			entry.Minor = minor
		}
		if dev, err := s.registry.Device(path); err == nil {
			entry.Variant = string(dev.Variant())
			entry.FrequencyHz = dev.Frequency()
		}
		displays = append(displays, entry)
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].Name < displays[j].Name
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"displays": displays,
		"total":    len(displays),
	})
}

// handleDisplayStats returns bus counters for a single display.
func (s *Server) handleDisplayStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	path, ok := s.displays[name]
	if !ok {
		writeNotFound(w, "display not found: "+name)
		return
	}

	dev, err := s.registry.Device(path)
	if err != nil {
		writeNotFound(w, "display node not registered: "+path)
		return
	}

	stats := dev.GetStats()
	writeJSON(w, http.StatusOK, DisplayStats{
		Name:         name,
		BusReads:     stats.BusReads,
		BusWrites:    stats.BusWrites,
		BytesWritten: stats.BytesWritten,
		BusErrors:    stats.BusErrors,
	})
}
