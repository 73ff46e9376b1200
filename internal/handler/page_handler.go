package handler

import (
	"embed"
	"net/http"
)

//go:embed static/*.html
var staticFS embed.FS

// PageHandler はダッシュボードとログインページを提供するハンドラー。
// ページ本体は埋め込み済みの静的HTMLで、データはすべてAPI経由で取得する。
type PageHandler struct{}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Dashboard はメンターダッシュボードを返す。
// GET /
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, "static/dashboard.html")
}

// Login はログインページを返す。
// GET /login
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, "static/login.html")
}

func (h *PageHandler) servePage(w http.ResponseWriter, name string) {
	page, err := staticFS.ReadFile(name)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
