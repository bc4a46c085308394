package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/homegraph/internal/bridge"
	"github.com/nerrad567/homegraph/internal/home"
	"github.com/nerrad567/homegraph/internal/host"
	"github.com/nerrad567/homegraph/internal/host/memhost"
	"github.com/nerrad567/homegraph/internal/infrastructure/config"
	"github.com/nerrad567/homegraph/internal/infrastructure/logging"
	"github.com/nerrad567/homegraph/internal/topology"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

const testTopology = `
homes:
  - id: home-main
    name: Main House
    rooms:
      - {id: kitchen, name: Kitchen}
      - {id: lounge, name: Lounge}
    accessories:
      - id: kitchen-ceiling
        name: Kitchen Ceiling
        category: lightbulb
        room: kitchen
        services:
          - type: lightbulb
            characteristics:
              - {type: "on", format: bool, value: false}
              - {type: brightness, format: int, value: 80}
      - id: lounge-lamp
        name: Lounge Lamp
        category: lightbulb
        room: lounge
        services:
          - type: lightbulb
            characteristics:
              - {type: "on", format: bool, value: false}
              - {type: brightness, format: int, value: 40}
              - {type: hue, format: int, value: 30}
      - id: porch
        name: Porch
        category: lightbulb
        services:
          - type: lightbulb
            characteristics:
              - {type: "on", format: bool, value: true}
      - id: hall-plug
        name: Hall Plug
        category: outlet
        services:
          - type: outlet
            characteristics:
              - {type: "on", format: bool, value: true}
  - id: home-cabin
    name: Cabin
    rooms:
      - {id: den, name: Den}
    accessories:
      - id: den-lamp
        name: Den Lamp
        category: lightbulb
        room: den
        services:
          - type: lightbulb
            characteristics:
              - {type: "on", format: bool, value: false}
`

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}
}

// testServer builds a Server over the test topology. Writes go through w
// (Loopback when nil).
func testServer(t *testing.T, w memhost.Writer, writeTimeout time.Duration) (*Server, *memhost.Graph) {
	t.Helper()

	doc, err := topology.Parse([]byte(testTopology))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	graph, err := topology.Build(doc, w)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: testWSConfig(),
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15},
		},
		Logger:       testLogger(),
		Directory:    home.NewDirectory(graph),
		Changes:      graph,
		WriteTimeout: writeTimeout,
		Version:      "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, graph
}

func testToken(t *testing.T) string {
	t.Helper()
	token, err := IssueToken(config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15}, "tester", time.Now())
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return token
}

// do sends one request through the router with a valid token.
func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+testToken(t))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

// ─── Construction and lifecycle ────────────────────────────────────

func TestNew_RequiresDeps(t *testing.T) {
	dir := home.NewDirectory(memhost.New(nil))
	sec := config.SecurityConfig{JWT: config.JWTConfig{Secret: testSecret}}

	tests := []struct {
		name string
		deps Deps
	}{
		{"missing logger", Deps{Directory: dir, Security: sec}},
		{"missing directory", Deps{Logger: testLogger(), Security: sec}},
		{"missing secret", Deps{Logger: testLogger(), Directory: dir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestServer_StartClose(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Close()

	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/health", srv.Addr()))
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestServer_CloseBeforeStart(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// ─── Health and middleware ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	resp := decodeBody[map[string]any](t, w)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health body = %v", resp)
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
	}{
		{"allow-listed origin", []string{"http://panel.local"}},
		{"empty list allows all", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServer(t, nil, time.Second)
			srv.cfg.CORS.AllowedOrigins = tt.allowed

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/lights/porch/state", nil)
			req.Header.Set("Origin", "http://panel.local")
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			w := httptest.NewRecorder()
			srv.buildRouter().ServeHTTP(w, req)

			if w.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
				t.Error("Access-Control-Allow-Origin missing")
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPut) {
				t.Errorf("Access-Control-Allow-Methods = %q, want PUT", got)
			}
		})
	}
}

func TestPreflightMiddleware_PlainOptionsPassesThrough(t *testing.T) {
	reached := false
	h := preflightMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil))
	if !reached || w.Code != http.StatusOK {
		t.Errorf("plain OPTIONS reached = %v, status = %d; want passed through", reached, w.Code)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	srv.cfg.CORS.AllowedOrigins = []string{"http://panel.local"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)

	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if e := decodeBody[Error](t, w); e.Code != ErrCodeNotFound {
		t.Errorf("error code = %q, want %q", e.Code, ErrCodeNotFound)
	}
}

func TestRecovery(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// ─── Auth ──────────────────────────────────────────────────────────

func TestAuthMiddleware(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	router := srv.buildRouter()

	expired, err := IssueToken(config.JWTConfig{Secret: testSecret, AccessTokenTTL: 1}, "tester", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	foreign, err := IssueToken(config.JWTConfig{Secret: strings.Repeat("x", 40)}, "tester", time.Now())
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "tester",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + testToken(t), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + testToken(t), http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"alg none", "Bearer " + unsigned, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/homes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestIssueParseToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: testSecret, AccessTokenTTL: 5}

	token, err := IssueToken(cfg, "wall-panel", time.Now())
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	subject, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if subject != "wall-panel" {
		t.Errorf("subject = %q, want wall-panel", subject)
	}

	if _, err := IssueToken(config.JWTConfig{}, "x", time.Now()); !errors.Is(err, ErrNoSecret) {
		t.Errorf("IssueToken(no secret) error = %v, want ErrNoSecret", err)
	}
	if _, err := IssueToken(cfg, "", time.Now()); err == nil {
		t.Error("IssueToken(empty subject) expected error")
	}
	if _, err := ParseToken(config.JWTConfig{}, token); !errors.Is(err, ErrNoSecret) {
		t.Errorf("ParseToken(no secret) error = %v, want ErrNoSecret", err)
	}
}

// ─── Homes and rooms ───────────────────────────────────────────────

func TestListHomes(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)

	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/homes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody[struct {
		Homes []homeView `json:"homes"`
		Count int        `json:"count"`
	}](t, w)
	if resp.Count != 2 || len(resp.Homes) != 2 {
		t.Fatalf("homes = %+v, want 2", resp.Homes)
	}
	if resp.Homes[0].ID != "home-main" || resp.Homes[1].ID != "home-cabin" {
		t.Errorf("homes order = %+v", resp.Homes)
	}
}

func TestHomeRooms(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/homes/home-main/rooms", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decodeBody[struct {
		Rooms []roomView `json:"rooms"`
	}](t, w)
	if len(resp.Rooms) != 2 || resp.Rooms[0].ID != "kitchen" || resp.Rooms[1].ID != "lounge" {
		t.Errorf("rooms = %+v, want kitchen, lounge", resp.Rooms)
	}

	w = do(t, router, http.MethodGet, "/api/v1/homes/missing/rooms", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown home status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHomeLights(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)

	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/homes/home-main/lights", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decodeBody[struct {
		Lights []lightView `json:"lights"`
	}](t, w)

	var ids []string
	for _, l := range resp.Lights {
		ids = append(ids, l.ID)
	}
	if strings.Join(ids, ",") != "kitchen-ceiling,lounge-lamp,porch" {
		t.Fatalf("light ids = %v, want kitchen-ceiling, lounge-lamp, porch", ids)
	}

	lamp := resp.Lights[1]
	if strings.Join(lamp.Capabilities, ",") != "power,brightness,color" {
		t.Errorf("capabilities = %v", lamp.Capabilities)
	}
	if lamp.Hue == nil || *lamp.Hue != 30 || lamp.Brightness == nil || *lamp.Brightness != 40 {
		t.Errorf("lounge-lamp = %+v", lamp)
	}

	porch := resp.Lights[2]
	if porch.RoomID != "" || porch.Brightness != nil || porch.On == nil || !*porch.On {
		t.Errorf("porch = %+v", porch)
	}
}

func TestRoomHome(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/rooms/den/home", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if h := decodeBody[homeView](t, w); h.ID != "home-cabin" {
		t.Errorf("home = %+v, want home-cabin", h)
	}

	w = do(t, router, http.MethodGet, "/api/v1/rooms/attic/home", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown room status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRoomLights(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)

	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/rooms/kitchen/lights", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decodeBody[struct {
		Lights []lightView `json:"lights"`
		Count  int         `json:"count"`
	}](t, w)
	if resp.Count != 1 || resp.Lights[0].ID != "kitchen-ceiling" {
		t.Errorf("lights = %+v, want kitchen-ceiling", resp.Lights)
	}
}

// ─── Lights ────────────────────────────────────────────────────────

func TestGetLight(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	router := srv.buildRouter()

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/lights/kitchen-ceiling", http.StatusOK},
		{"/api/v1/lights/missing", http.StatusNotFound},
		{"/api/v1/lights/hall-plug", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := do(t, router, http.MethodGet, tt.path, "")
		if w.Code != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestSetLightState(t *testing.T) {
	srv, graph := testServer(t, nil, time.Second)

	w := do(t, srv.buildRouter(), http.MethodPut, "/api/v1/lights/lounge-lamp/state",
		`{"on": true, "brightness": 150, "hue": 200}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	v := decodeBody[lightView](t, w)
	if v.On == nil || !*v.On {
		t.Errorf("on = %v, want true", v.On)
	}
	if v.Brightness == nil || *v.Brightness != 100 {
		t.Errorf("brightness = %v, want clamped 100", v.Brightness)
	}
	if v.Hue == nil || *v.Hue != 200 {
		t.Errorf("hue = %v, want 200", v.Hue)
	}

	acc, _ := graph.Accessory("lounge-lamp")
	hue, _ := acc.Characteristic(host.CharacteristicHue)
	if hue.Value() != 200 {
		t.Errorf("host hue = %v, want 200", hue.Value())
	}
}

func TestSetLightState_BadRequests(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)
	router := srv.buildRouter()

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"invalid json", "/api/v1/lights/lounge-lamp/state", `{`, http.StatusBadRequest},
		{"no fields", "/api/v1/lights/lounge-lamp/state", `{}`, http.StatusBadRequest},
		{"not dimmable", "/api/v1/lights/porch/state", `{"brightness": 10}`, http.StatusBadRequest},
		{"no color", "/api/v1/lights/kitchen-ceiling/state", `{"hue": 10}`, http.StatusBadRequest},
		{"hue out of range", "/api/v1/lights/lounge-lamp/state", `{"hue": 360}`, http.StatusBadRequest},
		{"unknown light", "/api/v1/lights/missing/state", `{"on": true}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPut, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestSetLightState_DeviceErrors(t *testing.T) {
	tests := []struct {
		name     string
		writer   memhost.Writer
		wantCode int
		wantErr  string
	}{
		{
			name: "device rejects",
			writer: memhost.WriterFunc(func(_ memhost.WriteRequest, done host.Completion) {
				go done(fmt.Errorf("%w: DEVICE_UNREACHABLE: no response", bridge.ErrCommandFailed))
			}),
			wantCode: http.StatusBadGateway,
			wantErr:  ErrCodeDeviceFailed,
		},
		{
			name: "device ack timeout",
			writer: memhost.WriterFunc(func(_ memhost.WriteRequest, done host.Completion) {
				go done(bridge.ErrAckTimeout)
			}),
			wantCode: http.StatusGatewayTimeout,
			wantErr:  ErrCodeDeviceTimeout,
		},
		{
			name:     "device never answers",
			writer:   memhost.WriterFunc(func(memhost.WriteRequest, host.Completion) {}),
			wantCode: http.StatusGatewayTimeout,
			wantErr:  ErrCodeDeviceTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServer(t, tt.writer, 50*time.Millisecond)

			w := do(t, srv.buildRouter(), http.MethodPut, "/api/v1/lights/kitchen-ceiling/state", `{"brightness": 10}`)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if e := decodeBody[Error](t, w); e.Code != tt.wantErr || e.Field != "brightness" || e.Status != tt.wantCode {
				t.Errorf("error = %+v, want code %q on brightness", e, tt.wantErr)
			}

			l, _ := srv.dir.Light("kitchen-ceiling")
			if b, _ := l.Brightness.Value(); b != 80 {
				t.Errorf("cached brightness = %d, want unchanged 80", b)
			}
		})
	}
}

func TestClassifyWriteError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, ErrCodeDeviceTimeout},
		{fmt.Errorf("waiting: %w", bridge.ErrAckTimeout), ErrCodeDeviceTimeout},
		{memhost.ErrReadOnly, ErrCodeConflict},
		{memhost.ErrInvalidValue, ErrCodeBadRequest},
		{context.Canceled, ErrCodeUnavailable},
		{errors.New("boom"), ErrCodeDeviceFailed},
	}

	for _, tt := range tests {
		if got := classifyWriteError(tt.err); got != tt.want {
			t.Errorf("classifyWriteError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRequestSizeLimit(t *testing.T) {
	srv, _ := testServer(t, nil, time.Second)

	body := `{"on": true, "pad": "` + strings.Repeat("x", maxRequestBodySize) + `"}`
	w := do(t, srv.buildRouter(), http.MethodPut, "/api/v1/lights/kitchen-ceiling/state", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
	if e := decodeBody[Error](t, w); e.Code != ErrCodeTooLarge {
		t.Errorf("error code = %q, want %q", e.Code, ErrCodeTooLarge)
	}
}
