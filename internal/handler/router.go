package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bprecord/internal/middleware"
)

// HealthChecker はヘルスチェックで疎通確認する依存のインターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPMetrics       func(next http.Handler) http.Handler
	Logger            *slog.Logger

	// サービス
	AuthService   AuthServiceInterface
	MemberService MemberServiceInterface
	RecordService RecordServiceInterface

	// メトリクス
	LoginMetrics       LoginMetrics
	RecordWriteMetrics RecordWriteMetrics

	// ヘルスチェック
	DB HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging → Metrics → [Auth → RateLimit(General)]
//
// ログイン（POST /api/login）は認証ミドルウェアの外に置き、IPキーの専用レート制限をかける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.LoginMetrics)
	memberHandler := NewMemberHandler(deps.MemberService)
	recordHandler := NewRecordHandler(deps.RecordService, deps.RecordWriteMetrics)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.DB))

	// ログイン（IPキーの専用レート制限）
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/login", authHandler.Login)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー情報
		r.Get("/api/user", authHandler.Me)

		// 成員管理
		r.Route("/api/members", func(r chi.Router) {
			r.Get("/", memberHandler.List)
			r.Post("/", memberHandler.Create)

			r.Route("/{memberID}", func(r chi.Router) {
				r.Get("/", memberHandler.Get)
				r.Put("/", memberHandler.Update)
				r.Delete("/", memberHandler.Delete)

				// 血圧レコード管理
				r.Route("/records", func(r chi.Router) {
					r.Get("/", recordHandler.List)
					r.Post("/", recordHandler.Create)

					r.Route("/{recordID}", func(r chi.Router) {
						r.Get("/", recordHandler.Get)
						r.Put("/", recordHandler.Update)
						r.Delete("/", recordHandler.Delete)
					})
				})
			})
		})
	})

	return r
}

// healthHandler はDBへの疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
