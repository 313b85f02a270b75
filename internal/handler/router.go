package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmvillanueva/grandline/internal/metrics"
	"github.com/jmvillanueva/grandline/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	SessionStore   SessionStore
	SessionFactory AuthSessionFactory
	AuthConfig     AuthHandlerConfig
	AuthMetrics    AuthMetrics

	// カタログ
	CatalogService CatalogServiceInterface

	// ヘルスチェック
	Ping func() error

	// メトリクス公開（nilの場合は/metricsを公開しない）
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS
//	→ （認証ルート）RateLimit(Auth)
//	→ （保護ルート）Session → RateLimit(General)
//
// 登録・ログイン・パスワード再設定は未認証で到達できるため、
// クライアントIP単位のレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.SessionStore, deps.SessionFactory, deps.AuthConfig, deps.AuthMetrics)
	catalogHandler := NewCatalogHandler(deps.CatalogService)

	// --- 認証不要のルート ---

	r.Get("/healthz", newHealthzHandler(deps.Ping))

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// 認証エンドポイント（クライアントIP単位のレート制限）
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/password-reset", authHandler.SendPasswordResetEmail)
		})

		// セッション管理（認証必須）
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
			r.Patch("/profile", authHandler.UpdateProfile)
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// キャラクター閲覧
		r.Route("/api/characters", func(r chi.Router) {
			r.Get("/", catalogHandler.ListCharacters)
			r.Get("/search", catalogHandler.SearchCharacters)
			r.Get("/{id}", catalogHandler.GetCharacter)
		})

		// 悪魔の実閲覧
		r.Route("/api/fruits", func(r chi.Router) {
			r.Get("/", catalogHandler.ListFruits)
			r.Get("/{id}", catalogHandler.GetFruit)
		})
	})

	return r
}

// newHealthzHandler はヘルスチェックエンドポイントのハンドラーを返す。
// pingがnilの場合は常に200を返す。
func newHealthzHandler(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
