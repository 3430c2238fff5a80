package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-systembus/internal/audit"
	"github.com/nerrad567/gray-logic-systembus/internal/bus"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/logging"
)

func testLogger() *logging.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
}

// testServer creates a server over a fresh synced bus.
func testServer(t *testing.T, deps Deps) (*Server, *bus.Synced) {
	t.Helper()
	synced := bus.NewSynced(bus.New(bus.WithCapacity(2)))
	deps.Logger = testLogger()
	deps.Bus = synced
	deps.Version = "test"

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, synced
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Deps{Bus: bus.NewSynced(bus.New())}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("New() without bus should fail")
	}
}

func TestHealth(t *testing.T) {
	srv, synced := testServer(t, Deps{})
	_ = synced.AddDevice(1, 0x10)

	w := do(t, srv.Handler(), http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
	if body["devices"] != float64(1) || body["capacity"] != float64(2) {
		t.Errorf("devices/capacity = %v/%v, want 1/2", body["devices"], body["capacity"])
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := testServer(t, Deps{})

	w := do(t, srv.Handler(), http.MethodGet, "/api/v1/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-id")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-id" {
		t.Errorf("X-Request-ID = %q, want client-id", got)
	}
}

func TestDeviceLifecycle(t *testing.T) {
	srv, synced := testServer(t, Deps{})
	h := srv.Handler()

	steps := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantData   int
	}{
		{"add 1", http.MethodPost, "/api/v1/devices", `{"id":1,"address":16}`, http.StatusCreated, 0},
		{"add 2", http.MethodPost, "/api/v1/devices", `{"id":2,"address":32}`, http.StatusCreated, 0},
		{"write 1", http.MethodPut, "/api/v1/devices/1/data", `{"address":16,"data":42}`, http.StatusOK, 42},
		{"read 1 hex", http.MethodGet, "/api/v1/devices/1/data?address=0x10", "", http.StatusOK, 42},
		{"remove 1", http.MethodDelete, "/api/v1/devices/1/data?address=0x10", "", http.StatusOK, 0},
		{"read 1 cleared", http.MethodGet, "/api/v1/devices/1/data?address=16", "", http.StatusOK, 0},
	}

	for _, step := range steps {
		w := do(t, h, step.method, step.path, step.body)
		if w.Code != step.wantStatus {
			t.Fatalf("%s: status = %d, want %d (%s)", step.name, w.Code, step.wantStatus, w.Body.String())
		}
		resp := decode[dataResponse](t, w)
		if resp.Data != step.wantData {
			t.Errorf("%s: data = %d, want %d", step.name, resp.Data, step.wantData)
		}
	}

	if synced.Len() != 2 {
		t.Errorf("Len() = %d, want 2", synced.Len())
	}
}

func TestBusErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"capacity", http.MethodPost, "/api/v1/devices", `{"id":3,"address":48}`, http.StatusConflict, string(bus.OutcomeCapacityExceeded)},
		{"unknown device", http.MethodGet, "/api/v1/devices/9/data?address=1", "", http.StatusNotFound, string(bus.OutcomeNotFound)},
		{"address mismatch", http.MethodPut, "/api/v1/devices/1/data", `{"address":17,"data":1}`, http.StatusNotFound, string(bus.OutcomeAddressMismatch)},
		{"already clear", http.MethodDelete, "/api/v1/devices/2/data", "", http.StatusConflict, string(bus.OutcomeAlreadyClear)},
		{"missing address", http.MethodGet, "/api/v1/devices/1/data", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"bad id", http.MethodGet, "/api/v1/devices/abc/data?address=1", "", http.StatusBadRequest, ErrCodeBadRequest},
		{"missing fields", http.MethodPost, "/api/v1/devices", `{"id":3}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"invalid json", http.MethodPut, "/api/v1/devices/1/data", `{`, http.StatusBadRequest, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, synced := testServer(t, Deps{})
			_ = synced.AddDevice(1, 16)
			_ = synced.AddDevice(2, 32)

			w := do(t, srv.Handler(), tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if e := decode[Error](t, w); e.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", e.Code, tt.wantCode)
			}
		})
	}
}

func TestBusSummaryAndReset(t *testing.T) {
	srv, synced := testServer(t, Deps{})
	_ = synced.AddDevice(1, 16)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/api/v1/bus", "")
	body := decode[struct {
		Capacity int          `json:"capacity"`
		Count    int          `json:"count"`
		Devices  []bus.Device `json:"devices"`
	}](t, w)
	if body.Capacity != 2 || body.Count != 1 || body.Devices[0].Address != 16 {
		t.Errorf("bus = %+v", body)
	}

	if w := do(t, h, http.MethodDelete, "/api/v1/bus", ""); w.Code != http.StatusNoContent {
		t.Errorf("reset status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if synced.Len() != 0 {
		t.Errorf("Len() after reset = %d, want 0", synced.Len())
	}

	list := decode[map[string]any](t, do(t, h, http.MethodGet, "/api/v1/devices", ""))
	if list["count"] != float64(0) {
		t.Errorf("count = %v, want 0", list["count"])
	}
}

// fakeAudit records the filter passed to List.
type fakeAudit struct {
	filter audit.Filter
	err    error
}

func (f *fakeAudit) Create(context.Context, *audit.Entry) error { return nil }

func (f *fakeAudit) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return &audit.ListResult{
		Entries: []audit.Entry{{ID: "evt-1", Op: bus.OpWrite, Outcome: bus.OutcomeOK, DeviceID: 1, Data: 42}},
		Total:   1,
		Limit:   filter.Limit,
	}, nil
}

func TestListEvents(t *testing.T) {
	repo := &fakeAudit{}
	srv, _ := testServer(t, Deps{Audit: repo})

	w := do(t, srv.Handler(), http.MethodGet, "/api/v1/events?device_id=0x1&op=write&outcome=ok&limit=5&offset=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}

	if repo.filter.DeviceID == nil || *repo.filter.DeviceID != 1 {
		t.Errorf("DeviceID filter = %v, want 1", repo.filter.DeviceID)
	}
	if repo.filter.Op != bus.OpWrite || repo.filter.Outcome != bus.OutcomeOK {
		t.Errorf("filter = %+v", repo.filter)
	}
	if repo.filter.Limit != 5 || repo.filter.Offset != 2 {
		t.Errorf("limit/offset = %d/%d, want 5/2", repo.filter.Limit, repo.filter.Offset)
	}

	result := decode[audit.ListResult](t, w)
	if result.Total != 1 || result.Entries[0].ID != "evt-1" {
		t.Errorf("result = %+v", result)
	}
}

func TestListEvents_Errors(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	if w := do(t, srv.Handler(), http.MethodGet, "/api/v1/events", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("disabled audit status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	srv, _ = testServer(t, Deps{Audit: &fakeAudit{}})
	if w := do(t, srv.Handler(), http.MethodGet, "/api/v1/events?limit=many", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	srv, _ = testServer(t, Deps{Audit: &fakeAudit{err: errors.New("disk full")}})
	if w := do(t, srv.Handler(), http.MethodGet, "/api/v1/events", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("repository error status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	if w := do(t, srv.Handler(), http.MethodGet, "/api/v1/nonexistent", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestStartClose(t *testing.T) {
	srv, _ := testServer(t, Deps{Config: config.APIConfig{Host: "127.0.0.1", Port: 0}})

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "16", want: 16},
		{in: "0x10", want: 16},
		{in: "0o20", want: 16},
		{in: "0b10000", want: 16},
		{in: "1_6", want: 16},
		{in: "-1", want: -1},
		{in: "", wantErr: true},
		{in: "0x", wantErr: true},
		{in: "sixteen", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseNumber(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseNumber(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseNumber(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
