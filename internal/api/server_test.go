package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/lanube360/mirador-lotes/internal/catalog"
	"github.com/lanube360/mirador-lotes/internal/config"
	"github.com/lanube360/mirador-lotes/internal/lifecycle"
	"github.com/lanube360/mirador-lotes/internal/storage/memory"
	"github.com/lanube360/mirador-lotes/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slug = "mirador-volcanes"

func parcel(n int, status string, scenes map[string]core.ScenePlacement) core.ParcelSummary {
	return core.ParcelSummary{
		ID:          core.ParcelID(n),
		DisplayName: core.ParcelDisplayName(n),
		Number:      n,
		Status:      status,
		TotalArea:   5000,
		Scenes:      scenes,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	store := memory.New(config.MemoryConfig{})
	require.NoError(t, store.Init())
	ctx := context.Background()
	require.NoError(t, store.SaveProject(ctx, core.Project{Slug: slug, DisplayName: "Lote Los Volcanes", TotalParcels: 3}))
	require.NoError(t, store.SaveParcels(ctx, slug, []core.ParcelSummary{
		parcel(7, core.StatusAvailable, map[string]core.ScenePlacement{
			"scene_master": {HorizontalAngle: 10.5, VerticalAngle: -3.2, Title: "Vista General"},
		}),
		parcel(8, core.StatusSold, map[string]core.ScenePlacement{
			"scene_master": {HorizontalAngle: 20, VerticalAngle: 1, Title: "Vista General"},
		}),
		parcel(12, core.StatusReserved, nil),
	}))

	srv := NewServer(catalog.NewService(store, slug, nil), nil, config.HTTPConfig{})
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Shutdown()
		ts.Close()
	})
	return srv, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthcheck(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthcheck", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestGetProject(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/api/project", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, slug, body["slug"])
	assert.Equal(t, float64(3), body["totalParcels"])
}

func TestListParcels(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"all sorted by number", "", []string{"lote7", "lote8", "lote12"}},
		{"by status", "?q=VENDIDO", []string{"lote8"}},
		{"by id", "?q=lote1", []string{"lote12"}},
		{"no match", "?q=zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, ts.URL+"/api/parcels"+tt.query, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			ids := []string{}
			for _, p := range body["parcels"].([]any) {
				ids = append(ids, p.(map[string]any)["id"].(string))
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, float64(len(tt.wantIDs)), body["count"])
		})
	}
}

func TestGetParcel(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/parcels/lote8", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, core.StatusSold, body["status"])

	resp, body = do(t, http.MethodGet, ts.URL+"/api/parcels/lote99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "lote99")
}

func TestUpdateParcel(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
	}{
		{"status and price", "lote7", `{"status":"reservado","price":1500}`, http.StatusOK},
		{"unknown status", "lote7", `{"status":"regalado"}`, http.StatusBadRequest},
		{"blank name", "lote7", `{"displayName":"  "}`, http.StatusBadRequest},
		{"negative area", "lote7", `{"totalArea":-1}`, http.StatusBadRequest},
		{"unknown field", "lote7", `{"owner":"x"}`, http.StatusBadRequest},
		{"malformed", "lote7", `{`, http.StatusBadRequest},
		{"missing parcel", "lote99", `{"notes":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, http.MethodPatch, ts.URL+"/api/parcels/"+tt.id, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	_, body := do(t, http.MethodGet, ts.URL+"/api/parcels/lote7", "")
	assert.Equal(t, core.StatusReserved, body["status"])
	assert.Equal(t, float64(1500), body["price"])
	assert.NotEmpty(t, body["modifiedAt"])
}

func TestStats(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/api/parcels/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, map[string]any{
		core.StatusAvailable:   float64(1),
		core.StatusReserved:    float64(1),
		core.StatusSold:        float64(1),
		core.StatusUnavailable: float64(0),
	}, body["byStatus"])
}

func TestScenePins(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/scenes/scene_master/spots", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	spots := body["spots"].([]any)
	require.Len(t, spots, 2)
	first := spots[0].(map[string]any)
	assert.Equal(t, "lote7", first["parcelId"])
	assert.Equal(t, 10.5, first["placement"].(map[string]any)["horizontalAngle"])

	_, body = do(t, http.MethodGet, ts.URL+"/api/scenes/scene_unknown/spots", "")
	assert.Empty(t, body["spots"])
}

func TestContact(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantErrors []string
	}{
		{
			name:       "valid",
			body:       `{"nombre":"Ana Pérez","telefono":"+56 9 1234 5678","email":"ana@example.cl","rut":"123456785","loteId":"lote7"}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "bad fields",
			body:       `{"nombre":"A","telefono":"123","email":"ana@","rut":"12.345.678-9"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: []string{"email", "nombre", "rut", "telefono"},
		},
		{
			name:       "incomplete",
			body:       `{"nombre":"Ana Pérez"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed",
			body:       `nombre=Ana`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/api/contact", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantErrors == nil {
				return
			}
			errs := body["errors"].(map[string]any)
			for _, field := range tt.wantErrors {
				assert.Contains(t, errs, field)
			}
		})
	}

	_, body := do(t, http.MethodPost, ts.URL+"/api/contact",
		`{"nombre":" Ana Pérez ","telefono":"+56 9 1234 5678","email":"ana@example.cl","rut":"123456785"}`)
	contact := body["contact"].(map[string]any)
	assert.Equal(t, "12.345.678-5", contact["rut"])
	assert.Equal(t, "+56912345678", contact["telefono"])
	assert.Equal(t, "Ana Pérez", contact["nombre"])
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestParcelStream(t *testing.T) {
	_, ts := newTestServer(t)

	conn, _, err := ws.DefaultDialer.Dial(wsURL(ts, "/api/parcels/stream"), nil)
	require.NoError(t, err)
	defer conn.Close()

	resp, _ := do(t, http.MethodPatch, ts.URL+"/api/parcels/lote8", `{"status":"disponible"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev catalog.ParcelEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, catalog.EventParcelUpdated, ev.Type)
	assert.Equal(t, slug, ev.Project)
	assert.Equal(t, "lote8", ev.Parcel.ID)
	assert.Equal(t, core.StatusAvailable, ev.Parcel.Status)
}

func TestParcelStream_ClosedOnShutdown(t *testing.T) {
	srv, ts := newTestServer(t)

	conn, _, err := ws.DefaultDialer.Dial(wsURL(ts, "/api/parcels/stream"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, srv.Shutdown())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, ws.IsCloseError(err, ws.CloseGoingAway), "got %v", err)
}

func TestServe_Lifecycle(t *testing.T) {
	store := memory.New(config.MemoryConfig{})
	require.NoError(t, store.Init())
	srv := NewServer(catalog.NewService(store, slug, nil), nil, config.HTTPConfig{ShutdownTimeout: time.Second})
	assert.Equal(t, lifecycle.Idle, srv.State())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthcheck"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, lifecycle.Ready, srv.State())

	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Serve(context.Background(), ln2), lifecycle.ErrInvalidTransition)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, lifecycle.TornDown, srv.State())
	assert.NoError(t, srv.Shutdown(), "second shutdown is a no-op")
}
