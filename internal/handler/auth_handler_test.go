package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmvillanueva/grandline/internal/middleware"
	"github.com/jmvillanueva/grandline/internal/model"
)

// --- モック定義 ---

// mockAuthSession はAuthSessionServiceのモック実装。
type mockAuthSession struct {
	registerFn      func(ctx context.Context, email, password, displayName string) (*model.User, error)
	loginFn         func(ctx context.Context, email, password string) (*model.User, error)
	updateProfileFn func(ctx context.Context, userID, displayName string) (*model.User, error)
	resetFn         func(ctx context.Context, email string) error
	restoreFn       func(ctx context.Context, session *model.Session) (*model.User, error)

	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func (m *mockAuthSession) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	return m.registerFn(ctx, email, password, displayName)
}

func (m *mockAuthSession) Login(ctx context.Context, email, password string) (*model.User, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthSession) UpdateProfile(ctx context.Context, userID, displayName string) (*model.User, error) {
	return m.updateProfileFn(ctx, userID, displayName)
}

func (m *mockAuthSession) SendPasswordResetEmail(ctx context.Context, email string) error {
	return m.resetFn(ctx, email)
}

func (m *mockAuthSession) Restore(ctx context.Context, session *model.Session) (*model.User, error) {
	return m.restoreFn(ctx, session)
}

func (m *mockAuthSession) SessionTokens() (string, string, time.Time) {
	return m.idToken, m.refreshToken, m.expiresAt
}

// mockSessionStore はSessionStoreのモック実装。
type mockSessionStore struct {
	created      []*model.Session
	updated      []*model.Session
	deleted      []string
	createErr    error
	deleteErr    error
	updateTokErr error
}

func (m *mockSessionStore) Create(ctx context.Context, session *model.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, session)
	return nil
}

func (m *mockSessionStore) UpdateTokens(ctx context.Context, session *model.Session) error {
	if m.updateTokErr != nil {
		return m.updateTokErr
	}
	m.updated = append(m.updated, session)
	return nil
}

func (m *mockSessionStore) DeleteByID(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockAuthMetrics はAuthMetricsのモック実装。
type mockAuthMetrics struct {
	success map[string]int
	failure map[string]int
}

func newMockAuthMetrics() *mockAuthMetrics {
	return &mockAuthMetrics{success: map[string]int{}, failure: map[string]int{}}
}

func (m *mockAuthMetrics) RecordAuthSuccess(operation string) { m.success[operation]++ }
func (m *mockAuthMetrics) RecordAuthFailure(operation string) { m.failure[operation]++ }

func newTestAuthHandler(session *mockAuthSession, store *mockSessionStore, metrics *mockAuthMetrics) *AuthHandler {
	return NewAuthHandler(store, func() AuthSessionService { return session }, AuthHandlerConfig{
		CookieSecure:  false,
		SessionMaxAge: 86400,
	}, metrics)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// --- POST /api/auth/register テスト ---

func TestAuthHandler_Register_Success(t *testing.T) {
	session := &mockAuthSession{
		registerFn: func(ctx context.Context, email, password, displayName string) (*model.User, error) {
			return &model.User{ID: "uid-1", Email: email, DisplayName: displayName}, nil
		},
		idToken:      "id-token",
		refreshToken: "refresh-token",
		expiresAt:    time.Now().Add(time.Hour),
	}
	store := &mockSessionStore{}
	metrics := newMockAuthMetrics()
	h := newTestAuthHandler(session, store, metrics)

	body := `{"email":"luffy@example.com","password":"secret","display_name":"Luffy"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "uid-1" || resp.DisplayName != "Luffy" {
		t.Errorf("response = %+v, want uid-1/Luffy", resp)
	}

	if len(store.created) != 1 {
		t.Fatalf("created sessions = %d, want 1", len(store.created))
	}
	created := store.created[0]
	if created.UID != "uid-1" || created.IDToken != "id-token" || created.RefreshToken != "refresh-token" {
		t.Errorf("session = %+v, want tokens persisted", created)
	}
	if created.ID == "" {
		t.Error("session ID must be generated")
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("session cookie must be set")
	}
	if cookie.Value != created.ID {
		t.Errorf("cookie value = %q, want session ID %q", cookie.Value, created.ID)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HTTP only")
	}

	if metrics.success["register"] != 1 {
		t.Errorf("register success count = %d, want 1", metrics.success["register"])
	}
}

func TestAuthHandler_Register_EmailAlreadyExists(t *testing.T) {
	session := &mockAuthSession{
		registerFn: func(ctx context.Context, email, password, displayName string) (*model.User, error) {
			return nil, model.NewEmailAlreadyExistsError("")
		},
	}
	store := &mockSessionStore{}
	metrics := newMockAuthMetrics()
	h := newTestAuthHandler(session, store, metrics)

	body := `{"email":"luffy@example.com","password":"secret","display_name":"Luffy"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != model.ErrCodeEmailAlreadyExists {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeEmailAlreadyExists)
	}

	if len(store.created) != 0 {
		t.Error("session must not be created on failure")
	}
	if metrics.failure["register"] != 1 {
		t.Errorf("register failure count = %d, want 1", metrics.failure["register"])
	}
}

func TestAuthHandler_Register_InvalidEmail(t *testing.T) {
	session := &mockAuthSession{
		registerFn: func(ctx context.Context, email, password, displayName string) (*model.User, error) {
			return nil, model.NewInvalidEmailError("")
		},
	}
	h := newTestAuthHandler(session, &mockSessionStore{}, newMockAuthMetrics())

	body := `{"email":"bad","password":"secret","display_name":"Luffy"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp apiErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != model.ErrCodeInvalidEmail {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeInvalidEmail)
	}
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	h := newTestAuthHandler(&mockAuthSession{}, &mockSessionStore{}, newMockAuthMetrics())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// --- POST /api/auth/login テスト ---

func TestAuthHandler_Login_Success(t *testing.T) {
	session := &mockAuthSession{
		loginFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return &model.User{ID: "uid-1", Email: email, DisplayName: "Luffy"}, nil
		},
		idToken:      "id-token",
		refreshToken: "refresh-token",
		expiresAt:    time.Now().Add(time.Hour),
	}
	store := &mockSessionStore{}
	metrics := newMockAuthMetrics()
	h := newTestAuthHandler(session, store, metrics)

	body := `{"email":"luffy@example.com","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(store.created) != 1 {
		t.Errorf("created sessions = %d, want 1", len(store.created))
	}
	if sessionCookie(rec) == nil {
		t.Error("session cookie must be set")
	}
	if metrics.success["login"] != 1 {
		t.Errorf("login success count = %d, want 1", metrics.success["login"])
	}
}

func TestAuthHandler_Login_Failure_ReturnsUnauthorized(t *testing.T) {
	session := &mockAuthSession{
		loginFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return nil, errors.New("メールアドレスまたはパスワードが正しくありません")
		},
	}
	metrics := newMockAuthMetrics()
	h := newTestAuthHandler(session, &mockSessionStore{}, metrics)

	body := `{"email":"luffy@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var resp apiErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != model.ErrCodeAuthFailed {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeAuthFailed)
	}
	if resp.Message != "メールアドレスまたはパスワードが正しくありません" {
		t.Errorf("message = %q, want the generic login failure message", resp.Message)
	}
	if metrics.failure["login"] != 1 {
		t.Errorf("login failure count = %d, want 1", metrics.failure["login"])
	}
}

// --- POST /api/auth/logout テスト ---

func TestAuthHandler_Logout_DeletesSessionAndClearsCookie(t *testing.T) {
	store := &mockSessionStore{}
	h := newTestAuthHandler(&mockAuthSession{}, store, newMockAuthMetrics())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{ID: "session-1", UID: "uid-1"}))
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "session-1" {
		t.Errorf("deleted = %v, want [session-1]", store.deleted)
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie must be cleared")
	}
}

func TestAuthHandler_Logout_DeleteFailureStillClearsCookie(t *testing.T) {
	store := &mockSessionStore{deleteErr: errors.New("db down")}
	h := newTestAuthHandler(&mockAuthSession{}, store, newMockAuthMetrics())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{ID: "session-1", UID: "uid-1"}))
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if cookie := sessionCookie(rec); cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie must be cleared even when deletion fails")
	}
}

// --- GET /api/auth/me テスト ---

func TestAuthHandler_Me_Success(t *testing.T) {
	session := &mockAuthSession{
		restoreFn: func(ctx context.Context, s *model.Session) (*model.User, error) {
			return &model.User{ID: s.UID, Email: "luffy@example.com", DisplayName: "Luffy"}, nil
		},
		idToken: "id-token",
	}
	store := &mockSessionStore{}
	h := newTestAuthHandler(session, store, newMockAuthMetrics())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{
		ID: "session-1", UID: "uid-1", IDToken: "id-token",
	}))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp userResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.ID != "uid-1" || resp.DisplayName != "Luffy" {
		t.Errorf("response = %+v, want uid-1/Luffy", resp)
	}

	// トークンが変わっていなければ更新しない
	if len(store.updated) != 0 {
		t.Errorf("updated sessions = %d, want 0", len(store.updated))
	}
}

func TestAuthHandler_Me_PersistsRefreshedTokens(t *testing.T) {
	session := &mockAuthSession{
		restoreFn: func(ctx context.Context, s *model.Session) (*model.User, error) {
			return &model.User{ID: s.UID}, nil
		},
		idToken:      "fresh-token",
		refreshToken: "fresh-refresh",
		expiresAt:    time.Now().Add(time.Hour),
	}
	store := &mockSessionStore{}
	h := newTestAuthHandler(session, store, newMockAuthMetrics())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{
		ID: "session-1", UID: "uid-1", IDToken: "stale-token",
	}))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(store.updated) != 1 {
		t.Fatalf("updated sessions = %d, want 1", len(store.updated))
	}
	if store.updated[0].IDToken != "fresh-token" || store.updated[0].RefreshToken != "fresh-refresh" {
		t.Errorf("updated session = %+v, want fresh tokens", store.updated[0])
	}
}

func TestAuthHandler_Me_RestoreFailure_ClearsCookie(t *testing.T) {
	session := &mockAuthSession{
		restoreFn: func(ctx context.Context, s *model.Session) (*model.User, error) {
			return nil, errors.New("token revoked")
		},
	}
	h := newTestAuthHandler(session, &mockSessionStore{}, newMockAuthMetrics())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{ID: "session-1", UID: "uid-1"}))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if cookie := sessionCookie(rec); cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie must be cleared when restore fails")
	}
}

// --- PATCH /api/auth/profile テスト ---

func TestAuthHandler_UpdateProfile_Success(t *testing.T) {
	var gotUserID, gotDisplayName string
	session := &mockAuthSession{
		restoreFn: func(ctx context.Context, s *model.Session) (*model.User, error) {
			return &model.User{ID: s.UID}, nil
		},
		updateProfileFn: func(ctx context.Context, userID, displayName string) (*model.User, error) {
			gotUserID, gotDisplayName = userID, displayName
			return &model.User{ID: userID, DisplayName: displayName}, nil
		},
		idToken: "fresh-token",
	}
	store := &mockSessionStore{}
	metrics := newMockAuthMetrics()
	h := newTestAuthHandler(session, store, metrics)

	req := httptest.NewRequest(http.MethodPatch, "/api/auth/profile", strings.NewReader(`{"display_name":"Straw Hat"}`))
	req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{
		ID: "session-1", UID: "uid-1", IDToken: "stale-token",
	}))
	rec := httptest.NewRecorder()

	h.UpdateProfile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != "uid-1" || gotDisplayName != "Straw Hat" {
		t.Errorf("UpdateProfile(%q, %q), want uid-1/Straw Hat", gotUserID, gotDisplayName)
	}

	// 強制トークン更新の結果を永続化する
	if len(store.updated) != 1 {
		t.Errorf("updated sessions = %d, want 1", len(store.updated))
	}
	if metrics.success["update_profile"] != 1 {
		t.Errorf("update_profile success count = %d, want 1", metrics.success["update_profile"])
	}
}

func TestAuthHandler_UpdateProfile_Failure(t *testing.T) {
	session := &mockAuthSession{
		restoreFn: func(ctx context.Context, s *model.Session) (*model.User, error) {
			return &model.User{ID: s.UID}, nil
		},
		updateProfileFn: func(ctx context.Context, userID, displayName string) (*model.User, error) {
			return nil, errors.New("再認証が必要です。ログインし直してください")
		},
	}
	metrics := newMockAuthMetrics()
	h := newTestAuthHandler(session, &mockSessionStore{}, metrics)

	req := httptest.NewRequest(http.MethodPatch, "/api/auth/profile", strings.NewReader(`{"display_name":"X"}`))
	req = req.WithContext(middleware.ContextWithSession(req.Context(), &model.Session{ID: "session-1", UID: "uid-1"}))
	rec := httptest.NewRecorder()

	h.UpdateProfile(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if metrics.failure["update_profile"] != 1 {
		t.Errorf("update_profile failure count = %d, want 1", metrics.failure["update_profile"])
	}
}

// --- POST /api/auth/password-reset テスト ---

func TestAuthHandler_SendPasswordResetEmail_Success(t *testing.T) {
	var gotEmail string
	session := &mockAuthSession{
		resetFn: func(ctx context.Context, email string) error {
			gotEmail = email
			return nil
		},
	}
	h := newTestAuthHandler(session, &mockSessionStore{}, newMockAuthMetrics())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/password-reset", strings.NewReader(`{"email":"luffy@example.com"}`))
	rec := httptest.NewRecorder()

	h.SendPasswordResetEmail(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if gotEmail != "luffy@example.com" {
		t.Errorf("email = %q, want luffy@example.com", gotEmail)
	}
}

func TestAuthHandler_SendPasswordResetEmail_ValidationFailure(t *testing.T) {
	session := &mockAuthSession{
		resetFn: func(ctx context.Context, email string) error {
			return errors.New("メールアドレスの形式が正しくありません")
		},
	}
	h := newTestAuthHandler(session, &mockSessionStore{}, newMockAuthMetrics())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/password-reset", strings.NewReader(`{"email":"bad"}`))
	rec := httptest.NewRecorder()

	h.SendPasswordResetEmail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
