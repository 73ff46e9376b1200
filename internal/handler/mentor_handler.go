package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mentordesk/internal/middleware"
	"github.com/hitoshi/mentordesk/internal/model"
)

// MentorServiceInterface はメンターハンドラーが必要とするサービスインターフェース。
type MentorServiceInterface interface {
	// Profile はメンターのプロフィールを取得する。未登録の場合はnilを返す。
	Profile(ctx context.Context, mentorID string) (*model.MentorProfile, error)
	// AddSlot は予約枠を公開し、更新後のプロフィールを返す。
	AddSlot(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error)
	// RemoveSlot は予約枠を取り下げ、更新後のプロフィールを返す。
	RemoveSlot(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error)
}

// MentorHandler はメンタープロフィールと予約枠管理のHTTPハンドラー。
type MentorHandler struct {
	service MentorServiceInterface
}

// NewMentorHandler はMentorHandlerを生成する。
func NewMentorHandler(service MentorServiceInterface) *MentorHandler {
	return &MentorHandler{service: service}
}

// slotRequest は予約枠の追加・削除リクエストのボディ。
type slotRequest struct {
	Slot string `json:"slot"`
}

// mentorResponse はメンタープロフィールのAPIレスポンス。
// slotsは常に空配列以上で返す（nullは返さない）。
type mentorResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Slots       []string `json:"slots"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// GetProfile は現在のメンターのプロフィールを取得する。
// GET /api/mentors/me
// 予約枠が未公開のメンターには空のslotsを返す。
func (h *MentorHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	mentorID, err := middleware.MentorIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	mentor, err := h.service.Profile(r.Context(), mentorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if mentor == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewMentorNotFoundError(""))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMentorResponse(mentor))
}

// AddSlot は予約枠を公開する。
// POST /api/mentors/me/slots
// 同じ枠の二重追加は成功として扱い、更新後の枠集合を返す。
func (h *MentorHandler) AddSlot(w http.ResponseWriter, r *http.Request) {
	mentorID, err := middleware.MentorIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	req, ok := decodeSlotRequest(w, r)
	if !ok {
		return
	}

	mentor, err := h.service.AddSlot(r.Context(), mentorID, req.Slot)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 更新と再取得の間にプロフィールが削除された場合
	if mentor == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewMentorNotFoundError(""))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMentorResponse(mentor))
}

// RemoveSlot は予約枠を取り下げる。
// DELETE /api/mentors/me/slots
// 存在しない枠の削除は成功として扱い、更新後の枠集合を返す。
func (h *MentorHandler) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	mentorID, err := middleware.MentorIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	req, ok := decodeSlotRequest(w, r)
	if !ok {
		return
	}

	mentor, err := h.service.RemoveSlot(r.Context(), mentorID, req.Slot)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 更新と再取得の間にプロフィールが削除された場合
	if mentor == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewMentorNotFoundError(""))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMentorResponse(mentor))
}

// decodeSlotRequest はslotリクエストボディを解析する。
// 解析に失敗した場合はエラーレスポンスを書き込み、falseを返す。
func decodeSlotRequest(w http.ResponseWriter, r *http.Request) (slotRequest, bool) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return slotRequest{}, false
	}
	return req, true
}

// --- ヘルパー関数 ---

// toMentorResponse はmodel.MentorProfileからAPIレスポンスに変換する。
func toMentorResponse(mentor *model.MentorProfile) mentorResponse {
	slots := mentor.Slots
	if slots == nil {
		slots = []string{}
	}
	return mentorResponse{
		ID:          mentor.ID,
		Email:       mentor.Email,
		Name:        mentor.Name,
		DisplayName: mentor.DisplayName(),
		Slots:       slots,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMentorNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmptySlot:
		return http.StatusBadRequest
	case model.ErrCodeSlotUpdateFailed:
		return http.StatusInternalServerError
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
