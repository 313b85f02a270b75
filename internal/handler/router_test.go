package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmvillanueva/grandline/internal/middleware"
	"github.com/jmvillanueva/grandline/internal/model"
)

type stubSessionFinder struct {
	session *model.Session
}

func (f *stubSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if f.session != nil && f.session.ID == id {
		return f.session, nil
	}
	return nil, nil
}

func newTestRouter(t *testing.T, finder middleware.SessionFinder, session *mockAuthSession, catalog CatalogServiceInterface) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		SessionFinder:     finder,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		SessionStore:      &mockSessionStore{},
		SessionFactory:    func() AuthSessionService { return session },
		AuthConfig:        AuthHandlerConfig{SessionMaxAge: 86400},
		AuthMetrics:       newMockAuthMetrics(),
		CatalogService:    catalog,
		Ping:              func() error { return nil },
	})
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t, &stubSessionFinder{}, &mockAuthSession{}, &mockCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_Healthz_Unavailable(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		Logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		SessionFinder:  &stubSessionFinder{},
		RateLimiter:    rl,
		SessionStore:   &mockSessionStore{},
		SessionFactory: func() AuthSessionService { return &mockAuthSession{} },
		AuthMetrics:    newMockAuthMetrics(),
		CatalogService: &mockCatalogService{},
		Ping:           func() error { return errors.New("db down") },
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRouter_CatalogRequiresSession(t *testing.T) {
	router := newTestRouter(t, &stubSessionFinder{}, &mockAuthSession{}, &mockCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRouter_CatalogWithSession(t *testing.T) {
	finder := &stubSessionFinder{session: &model.Session{
		ID:        "session-1",
		UID:       "uid-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	catalogSvc := &mockCatalogService{
		listCharactersFn: func(ctx context.Context) ([]model.Character, error) {
			return []model.Character{{ID: 1, Name: "Monkey D. Luffy"}}, nil
		},
	}
	router := newTestRouter(t, finder, &mockAuthSession{}, catalogSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_RegisterReachableWithoutSession(t *testing.T) {
	session := &mockAuthSession{
		registerFn: func(ctx context.Context, email, password, displayName string) (*model.User, error) {
			return &model.User{ID: "uid-1", Email: email, DisplayName: displayName}, nil
		},
	}
	router := newTestRouter(t, &stubSessionFinder{}, session, &mockCatalogService{})

	body := `{"email":"luffy@example.com","password":"secret","display_name":"Luffy"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestRouter_MeRequiresSession(t *testing.T) {
	router := newTestRouter(t, &stubSessionFinder{}, &mockAuthSession{}, &mockCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRouter_CORSHeaders(t *testing.T) {
	router := newTestRouter(t, &stubSessionFinder{}, &mockAuthSession{}, &mockCatalogService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/characters", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want http://localhost:3000", got)
	}
}
