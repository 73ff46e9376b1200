// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mentordesk/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// mentorIDContextKey はリクエストコンテキストにメンターIDを格納するためのキー。
var mentorIDContextKey = contextKey("mentor_id")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みメンターIDをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return newSessionMiddleware(sessionFinder, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// NewPageSessionMiddleware はページ向けのセッション検証ミドルウェアを返す。
// API向けと異なり、未認証リクエストはログインページへリダイレクトする。
func NewPageSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return newSessionMiddleware(sessionFinder, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
}

func newSessionMiddleware(sessionFinder SessionFinder, reject http.HandlerFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				reject(w, r)
				return
			}

			// 2. セッションの有効性を検証
			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				reject(w, r)
				return
			}
			if session == nil {
				reject(w, r)
				return
			}

			// 3. 認証済みメンターIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), mentorIDContextKey, session.MentorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MentorIDFromContext はリクエストコンテキストからメンターIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func MentorIDFromContext(ctx context.Context) (string, error) {
	mentorID, ok := ctx.Value(mentorIDContextKey).(string)
	if !ok || mentorID == "" {
		return "", fmt.Errorf("mentor ID not found in context")
	}
	return mentorID, nil
}

// ContextWithMentorID はコンテキストにメンターIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithMentorID(ctx context.Context, mentorID string) context.Context {
	return context.WithValue(ctx, mentorIDContextKey, mentorID)
}
