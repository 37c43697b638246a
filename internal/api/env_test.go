package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository/memory"
	"github.com/PauloVieira29/Fitness/internal/service"
	"github.com/PauloVieira29/Fitness/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret123"

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	files  *storage.MemoryStorage
	auth   service.AuthService
}

func newTestEnv(t *testing.T, cfg RouterConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	files := storage.NewMemoryStorage("http://files.test")
	auth := service.NewAuthService(store.Users(), "test-secret", time.Hour)

	svc := Services{
		Auth:          auth,
		Users:         service.NewUserService(store.Users(), store.Specialties()),
		Pairing:       service.NewPairingService(store.Users(), store.TrainerRequests(), store.Plans(), store.Notifications()),
		Plans:         service.NewPlanService(store.Users(), store.Plans(), store.PlanTemplates(), store.Entries(), store.Notifications()),
		Templates:     service.NewTemplateService(store.PlanTemplates()),
		Entries:       service.NewEntryService(store.Users(), store.Entries(), store.Plans(), store.Notifications()),
		Messages:      service.NewMessageService(store.Users(), store.Messages(), store.Notifications()),
		Notifications: service.NewNotificationService(store.Users(), store.Notifications()),
		Specialties:   service.NewSpecialtyService(store.Specialties(), store.Users()),
		Admin:         service.NewAdminService(store.Users(), store.Specialties()),
		Media:         service.NewMediaService(store.Users(), store.Uploads(), files, 1<<20),
	}

	if cfg.Files == nil {
		cfg.Files = files
	}
	router := gin.New()
	SetupRoutes(router, svc, cfg)
	return &testEnv{t: t, router: router, store: store, files: files, auth: auth}
}

// addUser stores an active, validated account and returns it with a token.
func (e *testEnv) addUser(username string, role domain.Role, opts ...func(*domain.User)) (*domain.User, string) {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	u := &domain.User{
		Username:             username,
		PasswordHash:         string(hash),
		Role:                 role,
		IsActive:             true,
		Validated:            true,
		NotificationSettings: domain.DefaultNotificationSettings(),
		Profile:              domain.Profile{Name: username},
	}
	for _, opt := range opts {
		opt(u)
	}
	if _, err := e.store.Users().Create(context.Background(), u); err != nil {
		e.t.Fatalf("create user %s: %v", username, err)
	}
	if !u.IsActive {
		return u, ""
	}
	token, _, err := e.auth.Login(context.Background(), username, testPassword)
	if err != nil {
		e.t.Fatalf("login %s: %v", username, err)
	}
	return u, token
}

func withTrainer(id primitive.ObjectID) func(*domain.User) {
	return func(u *domain.User) { u.TrainerAssigned = &id }
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}
