package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestHealthz(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
		wantBody   string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"all healthy", map[string]HealthCheck{"database": healthy, "storage": healthy}, http.StatusOK, "ok"},
		{"one failing", map[string]HealthCheck{"database": healthy, "storage": broken}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, RouterConfig{HealthChecks: tt.checks})
			for _, path := range []string{"/healthz", "/api/healthz"} {
				w := env.do(http.MethodGet, path, "", nil)
				expectStatus(t, w, tt.wantStatus)
				body := decodeBody[struct {
					Status string            `json:"status"`
					Checks map[string]string `json:"checks"`
				}](t, w)
				if body.Status != tt.wantBody {
					t.Errorf("%s status = %q, want %q", path, body.Status, tt.wantBody)
				}
				if len(body.Checks) != len(tt.checks) {
					t.Errorf("%s checks = %v", path, body.Checks)
				}
			}
		})
	}
}

func TestPingAndMetrics(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	w := env.do(http.MethodGet, "/api/ping", "", nil)
	expectStatus(t, w, http.StatusOK)

	w = env.do(http.MethodGet, "/metrics", "", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "fitness_http_requests_total") {
		t.Error("metrics output lacks the request counter")
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	w := env.do(http.MethodGet, "/ping", "", nil)
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("response has no request id")
	}

	req := newRequest(http.MethodGet, "/ping")
	req.Header.Set(requestIDHeader, "trace-123")
	if got := serve(env.router, req).Header().Get(requestIDHeader); got != "trace-123" {
		t.Errorf("request id = %q, want the caller's", got)
	}

	req = newRequest(http.MethodGet, "/ping")
	req.Header.Set(requestIDHeader, strings.Repeat("x", 65))
	if got := serve(env.router, req).Header().Get(requestIDHeader); got == "" || len(got) > 64 {
		t.Errorf("oversized request id not replaced: %q", got)
	}
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t, RouterConfig{AuthLimiter: NewLocalLimiter(2, time.Minute)})
	creds := LoginRequest{Username: "nobody", Password: "whatever"}

	for i := 0; i < 2; i++ {
		expectStatus(t, env.do(http.MethodPost, "/api/auth/login", "", creds), http.StatusBadRequest)
	}
	w := env.do(http.MethodPost, "/api/auth/login", "", creds)
	expectStatus(t, w, http.StatusTooManyRequests)
	if body := decodeBody[gin.H](t, w); body["code"] != "RATE_LIMITED" {
		t.Errorf("code = %v", body["code"])
	}
	if w.Header().Get("Retry-After") != "60" || w.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("headers = %v", w.Header())
	}

	// Rules are counted separately.
	w = env.do(http.MethodPost, "/api/auth/register", "", map[string]any{"username": "fresh", "password": "pw"})
	expectStatus(t, w, http.StatusCreated)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}
func (failingLimiter) Limit() int            { return 1 }
func (failingLimiter) Window() time.Duration { return time.Second }

func TestRateLimitFailsOpen(t *testing.T) {
	env := newTestEnv(t, RouterConfig{AuthLimiter: failingLimiter{}})
	for i := 0; i < 3; i++ {
		w := env.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "x", Password: "y"})
		expectStatus(t, w, http.StatusBadRequest)
	}
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(ctx, "a"); !ok {
			t.Fatalf("request %d denied within the limit", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "a"); ok {
		t.Error("request over the limit allowed")
	}
	if ok, _ := l.Allow(ctx, "b"); !ok {
		t.Error("keys share a bucket")
	}
}

func TestLocalLimiterDropsIdleBuckets(t *testing.T) {
	clock := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(5, time.Minute)
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		l.Allow(ctx, key)
	}

	// Within the window nothing is swept, however many keys arrive.
	clock = clock.Add(30 * time.Second)
	l.Allow(ctx, "d")
	if len(l.buckets) != 4 {
		t.Fatalf("buckets = %d, want 4", len(l.buckets))
	}

	// One window later the buckets idle since the start are dropped.
	clock = clock.Add(45 * time.Second)
	l.Allow(ctx, "e")
	if len(l.buckets) != 2 {
		t.Errorf("buckets = %d, want d and e", len(l.buckets))
	}
	if _, ok := l.buckets["a"]; ok {
		t.Error("idle bucket survived the sweep")
	}
}

func TestServeMemoryFiles(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	if err := env.files.PutObject(context.Background(), "avatars/u1/pic.png", "image/png", strings.NewReader("png-bytes"), 9); err != nil {
		t.Fatalf("put: %v", err)
	}

	w := env.do(http.MethodGet, "/files/avatars/u1/pic.png", "", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "png-bytes" || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("got %q (%s)", w.Body.String(), w.Header().Get("Content-Type"))
	}

	expectStatus(t, env.do(http.MethodGet, "/files/missing.png", "", nil), http.StatusNotFound)
}

func TestValidationMessage(t *testing.T) {
	RegisterValidators()
	gin.SetMode(gin.TestMode)

	type sample struct {
		ClientID string `json:"clientId" binding:"required,objectid"`
		Day      string `json:"dayOfWeek" binding:"omitempty,weekday"`
		Sessions int    `json:"sessionsPerWeek" binding:"omitempty,sessions"`
	}
	tests := []struct {
		name string
		body string
		want string
	}{
		{"required", `{}`, "Validation error: clientId is required"},
		{"objectid", `{"clientId":"zzz"}`, "Validation error: clientId must be a valid id"},
		{"weekday", `{"clientId":"64b7f0c2a1b2c3d4e5f60718","dayOfWeek":"Funday"}`, "Validation error: dayOfWeek must be an English weekday name"},
		{"sessions", `{"clientId":"64b7f0c2a1b2c3d4e5f60718","sessionsPerWeek":6}`, "Validation error: sessionsPerWeek must be 3, 4 or 5"},
		{"wrong type", `{"clientId":5}`, "Validation error: clientId has the wrong type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var s sample
			err := c.ShouldBindJSON(&s)
			if err == nil {
				t.Fatal("expected a binding error")
			}
			if got := validationMessage(err); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseProfilePatch(t *testing.T) {
	raw := func(s string) map[string]json.RawMessage {
		var m map[string]json.RawMessage
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			t.Fatalf("fixture: %v", err)
		}
		return m
	}

	patch, err := parseProfilePatch(raw(`{"name":"Ana","weight":61.5,"birthDate":"1990-04-02","specialties":[]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if patch.Name == nil || *patch.Name != "Ana" || patch.Weight == nil || *patch.Weight != 61.5 {
		t.Errorf("patch = %+v", patch)
	}
	if patch.BirthDate == nil || patch.BirthDate.Year() != 1990 || patch.BirthDate.Month() != time.April {
		t.Errorf("birthDate = %v", patch.BirthDate)
	}
	if patch.Specialties == nil || len(patch.Specialties) != 0 {
		t.Errorf("empty specialties should clear, got %v", patch.Specialties)
	}

	patch, err = parseProfilePatch(raw(`{"birthDate":null,"bio":null}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !patch.ClearBirthDate || patch.Bio == nil || *patch.Bio != "" {
		t.Errorf("null handling = %+v", patch)
	}

	errorCases := map[string]string{
		`{"username":"x"}`:        `field "username" cannot be updated`,
		`{"weight":"heavy"}`:      `field "weight" has an invalid value`,
		`{"weight":null}`:         `field "weight" has an invalid value`,
		`{"birthDate":"2-4-90"}`:  `field "birthDate" has an invalid value`,
		`{"specialties":["bad"]}`: `field "specialties" has an invalid value`,
	}
	for body, want := range errorCases {
		if _, err := parseProfilePatch(raw(body)); err == nil || err.Error() != want {
			t.Errorf("%s: error = %v, want %q", body, err, want)
		}
	}
}
