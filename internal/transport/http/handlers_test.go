package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"avalon/internal/app"
	"avalon/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: "0", Env: "development"},
		Game:    config.GameConfig{RoomCodeLength: 6},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := app.NewGameHub(cfg.Game, nil, logger)
	t.Cleanup(hub.Close)

	return NewServer(cfg, hub, nil, logger)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) *Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &resp
}

func dataField(t *testing.T, resp *Response, key string) interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("response data has type %T", resp.Data)
	}
	return data[key]
}

func createRoom(t *testing.T, s *Server) string {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/rooms")
	if rec.Code != http.StatusOK {
		t.Fatalf("create room status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	code, ok := dataField(t, resp, "roomCode").(string)
	if !ok || code == "" {
		t.Fatalf("create room returned no code: %+v", resp.Data)
	}
	return code
}

func TestCreateRoomEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/rooms")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("response not successful: %+v", resp.Error)
	}

	code := dataField(t, resp, "roomCode").(string)
	if len(code) != 6 {
		t.Errorf("room code %q has length %d, want 6", code, len(code))
	}

	link, _ := dataField(t, resp, "inviteLink").(string)
	if !strings.HasSuffix(link, "/join/"+code) {
		t.Errorf("invite link %q does not end in /join/%s", link, code)
	}
	qr, _ := dataField(t, resp, "qrCodeUrl").(string)
	if qr != "/api/rooms/"+code+"/qr" {
		t.Errorf("qr url = %q", qr)
	}
}

func TestGetRoomEndpoint(t *testing.T) {
	s := newTestServer(t)
	code := createRoom(t, s)

	rec := doRequest(t, s, http.MethodGet, "/api/rooms/"+code)
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("response not successful: %+v", resp.Error)
	}

	if got := dataField(t, resp, "playerCount").(float64); got != 0 {
		t.Errorf("player count = %v, want 0", got)
	}
	if got := dataField(t, resp, "phase").(string); got != "LOBBY" {
		t.Errorf("phase = %q, want LOBBY", got)
	}
	if got := dataField(t, resp, "canJoin").(bool); !got {
		t.Error("fresh room not joinable")
	}

	// Lookups are case-insensitive
	rec = doRequest(t, s, http.MethodGet, "/api/rooms/"+strings.ToLower(code))
	if rec.Code != http.StatusOK {
		t.Errorf("lowercase lookup status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/rooms/NOSUCH")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing room status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	resp = decodeResponse(t, rec)
	if resp.Success || resp.Error == nil || resp.Error.Code != "ROOM_NOT_FOUND" {
		t.Errorf("missing room error = %+v, want ROOM_NOT_FOUND", resp.Error)
	}
}

func TestRoomExistsEndpoint(t *testing.T) {
	s := newTestServer(t)
	code := createRoom(t, s)

	rec := doRequest(t, s, http.MethodGet, "/api/rooms/"+code+"/exists")
	resp := decodeResponse(t, rec)
	if got := dataField(t, resp, "exists").(bool); !got {
		t.Error("live room reported missing")
	}

	rec = doRequest(t, s, http.MethodGet, "/api/rooms/NOSUCH/exists")
	resp = decodeResponse(t, rec)
	if got := dataField(t, resp, "exists").(bool); got {
		t.Error("missing room reported live")
	}
}

func TestRoomQREndpoint(t *testing.T) {
	s := newTestServer(t)
	code := createRoom(t, s)

	rec := doRequest(t, s, http.MethodGet, "/api/rooms/"+code+"/qr")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("content type = %q, want image/png", got)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty QR image")
	}

	rec = doRequest(t, s, http.MethodGet, "/api/rooms/NOSUCH/qr")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing room status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHealthAndStatsEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/health")
	resp := decodeResponse(t, rec)
	if got := dataField(t, resp, "status").(string); got != "ok" {
		t.Errorf("health status = %q, want ok", got)
	}

	createRoom(t, s)
	createRoom(t, s)

	rec = doRequest(t, s, http.MethodGet, "/api/stats")
	resp = decodeResponse(t, rec)
	if got := dataField(t, resp, "activeGames").(float64); got != 2 {
		t.Errorf("active games = %v, want 2", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodOptions, "/api/rooms")
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
}
