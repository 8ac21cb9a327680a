package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-planner/internal/crops"
	"field-planner/internal/geometry"
	"field-planner/internal/planner"
)

func clearOracle() planner.FruitOracle {
	return planner.OracleFunc(func(x, y, width float64) bool { return false })
}

func worldSquare(side float64) geometry.Polygon {
	return geometry.Polygon{Vertices: []geometry.Point{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}
}

func squarePatch(crop string, minX, minY, size float64) crops.Patch {
	return crops.Patch{
		Crop: crop,
		Bounds: geometry.Polygon{Vertices: []geometry.Point{
			{X: minX, Y: minY},
			{X: minX + size, Y: minY},
			{X: minX + size, Y: minY + size},
			{X: minX, Y: minY + size},
		}},
	}
}

func newTestServer(cfg Config) *Server {
	if cfg.Oracle == nil {
		cfg.Oracle = clearOracle()
	}
	if cfg.DefaultWidth == 0 {
		cfg.DefaultWidth = 10
	}
	return New(cfg)
}

func doRequest(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func decodeRoute(t *testing.T, w *httptest.ResponseRecorder) RouteResponse {
	t.Helper()
	var resp RouteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestRouteFound(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodPost, "/route", RouteRequest{
		Start: geometry.Point{X: 5, Y: 5},
		End:   geometry.Point{X: 95, Y: 95},
		Field: worldSquare(100),
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeRoute(t, w)

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RequestID)
	assert.Empty(t, resp.Message)
	require.GreaterOrEqual(t, len(resp.Path), 2)
	assert.Equal(t, geometry.Point{X: 5, Y: 5}, resp.Path[0])
	assert.Equal(t, geometry.Point{X: 95, Y: 95}, resp.Path[len(resp.Path)-1])
	assert.InDelta(t, geometry.Length(resp.Path), resp.Length, 1e-9)
	assert.Nil(t, resp.Graph)
}

func TestRouteAvoidsCrops(t *testing.T) {
	m := crops.NewMap([]crops.Patch{squarePatch("maize", 40, 40, 20)})
	s := newTestServer(Config{Oracle: m, Crops: m})

	w := doRequest(t, s, http.MethodPost, "/route", RouteRequest{
		Start: geometry.Point{X: 5, Y: 5},
		End:   geometry.Point{X: 95, Y: 95},
		Field: worldSquare(100),
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeRoute(t, w)

	require.True(t, resp.Success)
	// The straight line passes through the patch, so the route has to be
	// longer than the direct distance of ~127.3.
	assert.Greater(t, resp.Length, 128.0)
	for _, p := range resp.Path {
		assert.False(t, m.HasFruit(p.X, p.Y, 1), "path point (%g, %g) touches the patch", p.X, p.Y)
	}
}

func TestRouteNoPath(t *testing.T) {
	blocked := planner.OracleFunc(func(x, y, width float64) bool { return true })
	s := newTestServer(Config{Oracle: blocked})

	w := doRequest(t, s, http.MethodPost, "/route", RouteRequest{
		Start: geometry.Point{X: 5, Y: 5},
		End:   geometry.Point{X: 95, Y: 95},
		Field: worldSquare(100),
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeRoute(t, w)

	assert.False(t, resp.Success)
	assert.Empty(t, resp.Path)
	assert.Contains(t, resp.Message, "no feasible route")
	assert.NotEmpty(t, resp.RequestID)
}

func TestRouteInvalidWidth(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodPost, "/route", RouteRequest{
		Start: geometry.Point{X: 5, Y: 5},
		End:   geometry.Point{X: 95, Y: 95},
		Field: worldSquare(100),
		Width: -5,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeRoute(t, w)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "width")
}

func TestRouteInvalidPolygon(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodPost, "/route", RouteRequest{
		Start: geometry.Point{X: 0, Y: 0},
		End:   geometry.Point{X: 10, Y: 10},
		Field: geometry.Polygon{Vertices: []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeRoute(t, w)
	assert.Contains(t, resp.Message, "vertices")
}

func TestRouteBadJSON(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodPost, "/route", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteMethodNotAllowed(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodGet, "/route", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouteIncludeGraph(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodPost, "/route", RouteRequest{
		Start:        geometry.Point{X: 5, Y: 5},
		End:          geometry.Point{X: 95, Y: 95},
		Field:        worldSquare(100),
		Width:        25,
		IncludeGraph: true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeRoute(t, w)

	require.True(t, resp.Success)
	require.NotNil(t, resp.Graph)
	// A 100x100 field at width 25 has 4 tracks of 3 samples, plus the two
	// spliced endpoints.
	assert.Equal(t, 14, resp.Graph.Nodes)
	assert.Equal(t, 4, resp.Graph.Cols)
	require.NotEmpty(t, resp.Graph.Links)
	for _, seg := range resp.Graph.Links {
		require.Len(t, seg, 2)
		for _, p := range seg {
			assert.GreaterOrEqual(t, p.Y, 0.0, "graph dump should be in world coordinates")
		}
	}
}

func TestRouteUsesDefaultWidth(t *testing.T) {
	s := newTestServer(Config{DefaultWidth: 25})

	w := doRequest(t, s, http.MethodPost, "/route", RouteRequest{
		Start:        geometry.Point{X: 5, Y: 5},
		End:          geometry.Point{X: 95, Y: 95},
		Field:        worldSquare(100),
		IncludeGraph: true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeRoute(t, w)

	require.NotNil(t, resp.Graph)
	assert.Equal(t, 14, resp.Graph.Nodes)
}

func TestHealth(t *testing.T) {
	m := crops.NewMap([]crops.Patch{squarePatch("maize", 40, 40, 20)})
	s := newTestServer(Config{Oracle: m, Crops: m})

	w := doRequest(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))

	assert.Equal(t, "ready", health["status"])
	assert.Equal(t, 10.0, health["defaultWidth"])
	assert.Equal(t, 1.0, health["patches"])
	assert.Equal(t, 400.0, health["cropArea"])
}

func TestHealthWithoutCropMap(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))

	assert.Equal(t, "ready", health["status"])
	assert.NotContains(t, health, "patches")
}

func TestReload(t *testing.T) {
	m := crops.NewMap(nil)
	s := newTestServer(Config{
		Oracle: m,
		Crops:  m,
		Reload: func() ([]crops.Patch, error) {
			return []crops.Patch{squarePatch("wheat", 0, 0, 30)}, nil
		},
	})

	w := doRequest(t, s, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, 1.0, resp["patches"])

	count, area := m.Stats()
	assert.Equal(t, 1, count)
	assert.InDelta(t, 900.0, area, 1e-9)
	assert.True(t, m.HasFruit(15, 15, 4))
}

func TestReloadUnavailable(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, false, resp["success"])
}

func TestReloadError(t *testing.T) {
	m := crops.NewMap([]crops.Patch{squarePatch("maize", 0, 0, 10)})
	s := newTestServer(Config{
		Oracle: m,
		Crops:  m,
		Reload: func() ([]crops.Patch, error) { return nil, errors.New("source gone") },
	})

	w := doRequest(t, s, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	count, _ := m.Stats()
	assert.Equal(t, 1, count, "a failed reload must not touch the map")
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(Config{})

	w := doRequest(t, s, http.MethodOptions, "/route", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	w = doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(Config{})

	doRequest(t, s, http.MethodPost, "/route", RouteRequest{
		Start: geometry.Point{X: 5, Y: 5},
		End:   geometry.Point{X: 95, Y: 95},
		Field: worldSquare(100),
	})

	w := doRequest(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "field_planner_route_requests_total")
	assert.Contains(t, w.Body.String(), "field_planner_grid_nodes")
}
