package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate       rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst      int           // API全般のバーストサイズ
	SlotMutationRate  rate.Limit    // 予約枠更新のレート（req/sec）。30/60
	SlotMutationBurst int           // 予約枠更新のバーストサイズ
	CleanupInterval   time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/mentor、予約枠更新 30 req/min/mentor
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:       rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:      120,
		SlotMutationRate:  rate.Limit(30.0 / 60.0), // 0.5 req/sec
		SlotMutationBurst: 30,
		CleanupInterval:   5 * time.Minute,
	}
}

// mentorLimiter はメンターごとのレートリミッターとアクセス時刻を保持する。
type mentorLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はメンターごとのレート制限を管理する。
// API全般のレート制限と予約枠更新のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*mentorLimiter

	slotMu       sync.RWMutex
	slotLimiters map[string]*mentorLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*mentorLimiter),
		slotLimiters:    make(map[string]*mentorLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// リクエストコンテキストにメンターIDが含まれている必要がある（SessionMiddlewareの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mentorID, err := MentorIDFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			limiter := rl.getOrCreateLimiter(&rl.generalMu, rl.generalLimiters, mentorID, rl.config.GeneralRate, rl.config.GeneralBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("mentor_id", mentorID),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SlotMutationMiddleware は予約枠更新専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) SlotMutationMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mentorID, err := MentorIDFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			limiter := rl.getOrCreateLimiter(&rl.slotMu, rl.slotLimiters, mentorID, rl.config.SlotMutationRate, rl.config.SlotMutationBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.SlotMutationRate)
				slog.Warn("rate limit exceeded",
					slog.String("mentor_id", mentorID),
					slog.String("limit_type", "slot_mutation"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// SlotMutationLimiterCount は現在管理されている予約枠更新リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) SlotMutationLimiterCount() int {
	rl.slotMu.RLock()
	defer rl.slotMu.RUnlock()
	return len(rl.slotLimiters)
}

// getOrCreateLimiter は指定のマップからメンターのリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateLimiter(mu *sync.RWMutex, limiters map[string]*mentorLimiter, mentorID string, r rate.Limit, burst int) *rate.Limiter {
	mu.RLock()
	ml, exists := limiters[mentorID]
	mu.RUnlock()

	if exists {
		mu.Lock()
		ml.lastAccess = time.Now()
		mu.Unlock()
		return ml.limiter
	}

	mu.Lock()
	defer mu.Unlock()

	// ダブルチェック
	if ml, exists := limiters[mentorID]; exists {
		ml.lastAccess = time.Now()
		return ml.limiter
	}

	limiter := rate.NewLimiter(r, burst)
	limiters[mentorID] = &mentorLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for mentorID, ml := range rl.generalLimiters {
		if now.Sub(ml.lastAccess) > ttl {
			delete(rl.generalLimiters, mentorID)
		}
	}
	rl.generalMu.Unlock()

	rl.slotMu.Lock()
	for mentorID, ml := range rl.slotLimiters {
		if now.Sub(ml.lastAccess) > ttl {
			delete(rl.slotLimiters, mentorID)
		}
	}
	rl.slotMu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "rate_limit_exceeded",
		"message":  "Too many requests. Please try again later.",
		"category": "system",
		"action":   "Please wait and retry after the specified time.",
	})
}
