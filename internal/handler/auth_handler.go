// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jmvillanueva/grandline/internal/middleware"
	"github.com/jmvillanueva/grandline/internal/model"
)

// AuthSessionService は1リクエスト分の認証操作を提供するインターフェース。
// セッションはリクエストごとに再構築されるため、実装はリクエストスコープで
// 生成される（AuthSessionFactory参照）。
type AuthSessionService interface {
	Register(ctx context.Context, email, password, displayName string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID, displayName string) (*model.User, error)
	SendPasswordResetEmail(ctx context.Context, email string) error

	// Restore は永続化されたセッションからセッション状態を再構築する。
	Restore(ctx context.Context, session *model.Session) (*model.User, error)

	// SessionTokens は現在のセッショントークンを返す。
	// ログイン直後およびトークン更新後の永続化に使用する。
	SessionTokens() (idToken, refreshToken string, expiresAt time.Time)
}

// AuthSessionFactory はリクエストごとにAuthSessionServiceを生成する。
type AuthSessionFactory func() AuthSessionService

// SessionStore は認証ハンドラーが必要とするセッション永続化インターフェース。
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	UpdateTokens(ctx context.Context, session *model.Session) error
	DeleteByID(ctx context.Context, id string) error
}

// AuthMetrics は認証ハンドラーが記録するメトリクスのインターフェース。
type AuthMetrics interface {
	RecordAuthSuccess(operation string)
	RecordAuthFailure(operation string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	sessions SessionStore
	factory  AuthSessionFactory
	config   AuthHandlerConfig
	metrics  AuthMetrics
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(sessions SessionStore, factory AuthSessionFactory, config AuthHandlerConfig, metrics AuthMetrics) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		factory:  factory,
		config:   config,
		metrics:  metrics,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toUserResponse(user *model.User) userResponse {
	resp := userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
	if !user.CreatedAt.IsZero() {
		resp.CreatedAt = user.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// Register は新規アカウントを登録し、セッションを開始する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	svc := h.factory()
	user, err := svc.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.metrics.RecordAuthFailure("register")
		writeAuthError(w, err, http.StatusBadRequest)
		return
	}

	session, err := h.createSession(r.Context(), svc, user.ID)
	if err != nil {
		h.metrics.RecordAuthFailure("register")
		slog.Error("failed to create session", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.metrics.RecordAuthSuccess("register")
	h.setSessionCookie(w, session.ID)
	writeJSONResponse(w, http.StatusCreated, toUserResponse(user))
}

// Login はメールアドレスとパスワードで認証し、セッションを開始する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	svc := h.factory()
	user, err := svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordAuthFailure("login")
		writeAuthError(w, err, http.StatusUnauthorized)
		return
	}

	session, err := h.createSession(r.Context(), svc, user.ID)
	if err != nil {
		h.metrics.RecordAuthFailure("login")
		slog.Error("failed to create session", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.metrics.RecordAuthSuccess("login")
	h.setSessionCookie(w, session.ID)
	writeJSONResponse(w, http.StatusOK, toUserResponse(user))
}

// Logout はセッションを破棄する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedAPIError())
		return
	}

	// 削除に失敗してもCookieはクリアする
	if err := h.sessions.DeleteByID(r.Context(), session.ID); err != nil {
		slog.Error("failed to delete session", slog.String("error", err.Error()))
	}

	h.metrics.RecordAuthSuccess("logout")
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedAPIError())
		return
	}

	svc := h.factory()
	user, err := svc.Restore(r.Context(), session)
	if err != nil {
		// 復元できないセッションは失効扱い
		slog.Warn("failed to restore session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
		h.clearSessionCookie(w)
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedAPIError())
		return
	}

	h.persistRefreshedTokens(r.Context(), svc, session)
	writeJSONResponse(w, http.StatusOK, toUserResponse(user))
}

// UpdateProfile は表示名を更新する。
// PATCH /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedAPIError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	svc := h.factory()
	if _, err := svc.Restore(r.Context(), session); err != nil {
		slog.Warn("failed to restore session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
		h.clearSessionCookie(w)
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedAPIError())
		return
	}

	user, err := svc.UpdateProfile(r.Context(), session.UID, req.DisplayName)
	if err != nil {
		h.metrics.RecordAuthFailure("update_profile")
		writeAuthError(w, err, http.StatusBadRequest)
		return
	}

	// 表示名更新はトークンの強制更新を伴う
	h.persistRefreshedTokens(r.Context(), svc, session)
	h.metrics.RecordAuthSuccess("update_profile")
	writeJSONResponse(w, http.StatusOK, toUserResponse(user))
}

// SendPasswordResetEmail はパスワード再設定メールの送信を要求する。
// POST /api/auth/password-reset
func (h *AuthHandler) SendPasswordResetEmail(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	svc := h.factory()
	if err := svc.SendPasswordResetEmail(r.Context(), req.Email); err != nil {
		h.metrics.RecordAuthFailure("password_reset")
		writeAuthError(w, err, http.StatusBadRequest)
		return
	}

	h.metrics.RecordAuthSuccess("password_reset")
	w.WriteHeader(http.StatusAccepted)
}

// createSession はセッショントークンを永続化し、新しいセッションレコードを返す。
func (h *AuthHandler) createSession(ctx context.Context, svc AuthSessionService, uid string) (*model.Session, error) {
	idToken, refreshToken, expiresAt := svc.SessionTokens()
	session := &model.Session{
		ID:           uuid.NewString(),
		UID:          uid,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}
	if err := h.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// persistRefreshedTokens は復元時にトークンが更新されていればセッションレコードに反映する。
// 永続化の失敗はリクエストを失敗させず、ログに記録するだけに留める。
func (h *AuthHandler) persistRefreshedTokens(ctx context.Context, svc AuthSessionService, session *model.Session) {
	idToken, refreshToken, expiresAt := svc.SessionTokens()
	if idToken == session.IDToken {
		return
	}

	updated := *session
	updated.IDToken = idToken
	updated.RefreshToken = refreshToken
	updated.ExpiresAt = expiresAt
	if err := h.sessions.UpdateTokens(ctx, &updated); err != nil {
		slog.Error("failed to persist refreshed tokens",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
}

// setSessionCookie はセッションCookie（HTTP Only）を設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieをクリアする。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeAuthError は認証サービスから返されたエラーをHTTPレスポンスに変換する。
// 区別された2種類のエラーは専用のステータスコードにマッピングし、
// それ以外はgenericStatusで汎用認証エラーとして返す。
func writeAuthError(w http.ResponseWriter, err error, genericStatus int) {
	var existsErr *model.EmailAlreadyExistsError
	if errors.As(err, &existsErr) {
		writeAPIErrorResponse(w, http.StatusConflict, model.NewEmailAlreadyExistsAPIError(existsErr.Error()))
		return
	}

	var invalidErr *model.InvalidEmailError
	if errors.As(err, &invalidErr) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidEmailAPIError(invalidErr.Error()))
		return
	}

	writeAPIErrorResponse(w, genericStatus, model.NewAuthFailedAPIError(err.Error()))
}

// invalidRequestBodyError はリクエストボディの解析失敗を表すAPIエラーを生成する。
func invalidRequestBodyError() *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeValidationFailed,
		Message:  "リクエストボディを解析できません。",
		Category: "validation",
		Action:   "リクエスト形式を確認してください。",
	}
}
