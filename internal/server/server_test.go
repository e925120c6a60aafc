package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/repaird/internal/devices"
	"github.com/fyrsmithlabs/repaird/internal/logging"
	"github.com/fyrsmithlabs/repaird/internal/manuals"
	"github.com/fyrsmithlabs/repaird/internal/session"
)

type stubRetriever struct{}

func (stubRetriever) SearchSolutions(ctx context.Context, deviceModel, symptomsSummary string) []manuals.Candidate {
	return nil
}

type fakeIndexer struct {
	added []manuals.Manual
	ok    bool
}

func (f *fakeIndexer) AddManual(ctx context.Context, m manuals.Manual) bool {
	f.added = append(f.added, m)
	return f.ok
}

func newTestServer(t *testing.T) (*Server, *fakeIndexer) {
	t.Helper()

	registry := devices.NewRegistry([]devices.Device{
		{Brand: "Bosch", Model: "SMS6EDI06E", Type: "Dishwasher", FullName: "Bosch Dishwasher Serie 6 SMS6EDI06E"},
		{Brand: "LG", Model: "LCRM1650", Type: "Microwave Oven", FullName: "LG Microwave Oven LCRM1650"},
	})
	manager := session.NewManager(registry, stubRetriever{}, 10, logging.NewNop())
	indexer := &fakeIndexer{ok: true}

	srv, err := NewServer(manager, indexer, registry, logging.NewNop(), Config{})
	require.NoError(t, err)
	return srv, indexer
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echoContentType, "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

const echoContentType = "Content-Type"

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func advance(t *testing.T, srv *Server, id, input string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/advance", AdvanceRequest{Input: input})
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndAdvanceSession(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	rec := advance(t, srv, id, "SMS6EDI06E")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp session.StageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, session.StageDeviceDiscovery, resp.Stage)
	assert.True(t, resp.Complete)
	require.NotNil(t, resp.Device)
	assert.True(t, resp.Device.Known)
}

func TestAdvance_UnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := advance(t, srv, "missing", "anything")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFullSessionOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	require.Equal(t, http.StatusOK, advance(t, srv, id, "SMS6EDI06E").Code)
	for i := 1; i <= 7; i++ {
		require.Equal(t, http.StatusOK, advance(t, srv, id, fmt.Sprintf("symptom %d", i)).Code)
	}
	require.Equal(t, http.StatusOK, advance(t, srv, id, "").Code)

	rec := advance(t, srv, id, "yes")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp session.StageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Complete)
	require.NotNil(t, resp.Final)
	assert.True(t, resp.Final.SessionComplete)

	// Advancing a finished session reports the conflict with the snapshot.
	rec = advance(t, srv, id, "hello?")
	require.Equal(t, http.StatusConflict, rec.Code)

	var completed CompletedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	assert.Equal(t, "session already complete", completed.Error)
	require.NotNil(t, completed.FinalOutput)
	assert.True(t, completed.FinalOutput.SessionComplete)

	// The output endpoint serves the same snapshot.
	rec = doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/output", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out session.FinalOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.SessionComplete)
	require.NotNil(t, out.Resolution)
	assert.Equal(t, "success", *out.Resolution)
}

func TestFinalOutputFieldNames(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/output", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The snapshot keys are an external contract.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"session_complete", "resolution", "device", "symptoms", "repair_log", "conversation_turns", "final_status"} {
		assert.Contains(t, raw, key)
	}

	var device map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["device"], &device))
	for _, key := range []string{"model", "name", "is_known"} {
		assert.Contains(t, device, key)
	}

	var status map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["final_status"], &status))
	for _, key := range []string{"resolved", "escalated", "attempts_made"} {
		assert.Contains(t, status, key)
	}
}

func TestStateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stage": "device_discovery"`)
}

func TestAddManual(t *testing.T) {
	srv, indexer := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/manuals", manuals.Manual{
		DeviceModel: "LCRM1650",
		DeviceName:  "LG Microwave Oven LCRM1650",
		Symptoms:    "display blank, no response",
		Steps:       []string{"Step 1: Check fuse"},
		Resolution:  "Replace ceramic fuse",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"indexed":true}`, rec.Body.String())
	require.Len(t, indexer.added, 1)
	assert.Equal(t, "LCRM1650", indexer.added[0].DeviceModel)
}

func TestAddManual_BackendFailure(t *testing.T) {
	srv, indexer := newTestServer(t)
	indexer.ok = false

	rec := doJSON(t, srv, http.MethodPost, "/v1/manuals", manuals.Manual{
		DeviceName: "X", Symptoms: "y",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"indexed":false}`, rec.Body.String())
}

func TestDevicesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DevicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{
		"Bosch Dishwasher Serie 6 SMS6EDI06E",
		"LG Microwave Oven LCRM1650",
	}, resp.Devices)
}

func TestSessionLimit(t *testing.T) {
	registry := devices.NewRegistry([]devices.Device{{Model: "X1"}})
	manager := session.NewManager(registry, stubRetriever{}, 1, logging.NewNop())
	srv, err := NewServer(manager, nil, registry, logging.NewNop(), Config{})
	require.NoError(t, err)

	createSession(t, srv)
	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
