package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mentordesk/internal/metrics"
	"github.com/hitoshi/mentordesk/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 可観測性
	Logger        *slog.Logger
	Metrics       middleware.StatusRecorderMetrics
	MetricsGather prometheus.Gatherer
	HealthChecker HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// メンター
	MentorService MentorServiceInterface

	// 予約
	BookingService BookingServiceInterface
	BookingWatcher BookingWatcherInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS
//	→ (APIルートのみ) Session → RateLimit(General) → CSRF
//
// 認証ルート（/auth/*）、ログインページ、/health、/metricsは
// セッション検証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	mentorHandler := NewMentorHandler(deps.MentorService)
	bookingHandler := NewBookingHandler(deps.BookingService, deps.BookingWatcher)
	pageHandler := NewPageHandler()

	// --- 認証不要のルート ---

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// ログインページ
	r.Get("/login", pageHandler.Login)

	// ヘルスチェック
	r.Get("/health", newHealthHandler(deps.HealthChecker))

	// Prometheusスクレイプ
	if deps.MetricsGather != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGather))
	}

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 認証が必要なページ ---
	// 未認証はログインページへリダイレクトする
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewPageSessionMiddleware(deps.SessionFinder))
		r.Get("/", pageHandler.Dashboard)
	})

	// --- 認証が必要なAPIルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// メンタープロフィールと予約枠
		r.Route("/api/mentors/me", func(r chi.Router) {
			r.Get("/", mentorHandler.GetProfile)

			// 予約枠の追加・削除は専用レート制限を追加
			r.With(deps.RateLimiter.SlotMutationMiddleware()).Post("/slots", mentorHandler.AddSlot)
			r.With(deps.RateLimiter.SlotMutationMiddleware()).Delete("/slots", mentorHandler.RemoveSlot)
		})

		// 予約ビュー
		r.Route("/api/bookings", func(r chi.Router) {
			r.Get("/", bookingHandler.ListBookings)
			r.Get("/stream", bookingHandler.StreamBookings)
		})
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		statusCode := http.StatusOK

		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check: database unreachable", slog.String("error", err.Error()))
				status = "unavailable"
				statusCode = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
