package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// addDeviceRequest is the body of POST /devices.
type addDeviceRequest struct {
	ID      *int `json:"id"`
	Address *int `json:"address"`
}

// writeDataRequest is the body of PUT /devices/{id}/data.
type writeDataRequest struct {
	Address *int `json:"address"`
	Data    *int `json:"data"`
}

// dataResponse reports the data word of one device.
type dataResponse struct {
	ID      int `json:"id"`
	Address int `json:"address"`
	Data    int `json:"data"`
}

// handleGetBus returns the bus summary and its devices.
func (s *Server) handleGetBus(w http.ResponseWriter, _ *http.Request) {
	devices := s.bus.Devices()
	writeJSON(w, http.StatusOK, map[string]any{
		"capacity": s.bus.Capacity(),
		"count":    len(devices),
		"devices":  devices,
	})
}

// handleResetBus removes every device.
func (s *Server) handleResetBus(w http.ResponseWriter, _ *http.Request) {
	s.bus.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// handleListDevices returns the registered devices in insertion order.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.bus.Devices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleAddDevice registers a device.
func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var req addDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ID == nil || req.Address == nil {
		writeBadRequest(w, "id and address are required")
		return
	}

	if err := s.bus.AddDevice(*req.ID, *req.Address); err != nil {
		writeBusError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{ID: *req.ID, Address: *req.Address})
}

// handleReadData returns the data of a device.
//
// Query parameters:
//   - address: required, any integer literal parseNumber accepts
func (s *Server) handleReadData(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}
	address, err := parseNumber(r.URL.Query().Get("address"))
	if err != nil {
		writeBadRequest(w, "address query parameter is required")
		return
	}

	data, err := s.bus.ReadData(id, address)
	if err != nil {
		writeBusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{ID: id, Address: address, Data: data})
}

// handleWriteData stores a data word in a device.
func (s *Server) handleWriteData(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	var req writeDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Address == nil || req.Data == nil {
		writeBadRequest(w, "address and data are required")
		return
	}

	if err := s.bus.WriteData(id, *req.Address, *req.Data); err != nil {
		writeBusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{ID: id, Address: *req.Address, Data: *req.Data})
}

// handleRemoveData clears the data of a device.
//
// Query parameters:
//   - address: optional, reported in the bus event only
func (s *Server) handleRemoveData(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	address := 0
	if v := r.URL.Query().Get("address"); v != "" {
		var err error
		if address, err = parseNumber(v); err != nil {
			writeBadRequest(w, "invalid address")
			return
		}
	}

	data, err := s.bus.RemoveData(id, address)
	if err != nil {
		writeBusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{ID: id, Address: address, Data: data})
}

// deviceIDParam parses the {id} path parameter, writing a 400 on failure.
func deviceIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := parseNumber(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return 0, false
	}
	return id, true
}

// parseNumber accepts Go integer literals: decimal, 0x hex, 0o octal and
// 0b binary, with optional _ digit separators. These match the console.
func parseNumber(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	n, err := strconv.ParseInt(s, 0, strconv.IntSize)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
