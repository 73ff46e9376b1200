package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/mentordesk/internal/booking"
	"github.com/hitoshi/mentordesk/internal/middleware"
	"github.com/hitoshi/mentordesk/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	// ListByMentor はメンターの予約一覧を作成順で返す。
	ListByMentor(ctx context.Context, mentorID string) ([]model.Booking, error)
}

// BookingWatcherInterface は予約ビューのライブ購読インターフェース。
type BookingWatcherInterface interface {
	// Subscribe は購読を開始し、初回スナップショットと以後の変更を配信するチャネルを返す。
	Subscribe(ctx context.Context, mentorID string) (<-chan booking.SnapshotEvent, func(), error)
}

// BookingHandler は予約ビューのHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
	watcher BookingWatcherInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface, watcher BookingWatcherInterface) *BookingHandler {
	return &BookingHandler{
		service: service,
		watcher: watcher,
	}
}

// bookingResponse は予約情報のAPIレスポンス。
type bookingResponse struct {
	ID           string    `json:"id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	Slot         string    `json:"slot"`
	CreatedAt    time.Time `json:"created_at"`
}

// bookingsResponse は予約一覧のAPIレスポンス。
type bookingsResponse struct {
	Bookings []bookingResponse `json:"bookings"`
}

// ListBookings は現在のメンターの予約一覧を返す。
// GET /api/bookings
// 予約がないメンターには空のリストを返す。
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	mentorID, err := middleware.MentorIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	bookings, err := h.service.ListByMentor(r.Context(), mentorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookingsResponse(bookings))
}

// StreamBookings は予約ビューをServer-Sent Eventsで配信する。
// GET /api/bookings/stream
// 接続直後に現在のスナップショットを送り、以後は変更のたびに
// 一覧全体を再送する。クライアントは受信したスナップショットで
// 表示を丸ごと置き換えればよい。
func (h *BookingHandler) StreamBookings(w http.ResponseWriter, r *http.Request) {
	mentorID, err := middleware.MentorIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "STREAMING_UNSUPPORTED",
			Message:  "ストリーミングに対応していない接続です。",
			Category: "system",
			Action:   "通常の一覧取得APIをご利用ください。",
		})
		return
	}

	events, unsubscribe, err := h.watcher.Subscribe(r.Context(), mentorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// 接続維持のためのkeep-aliveコメント送出間隔
	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(toBookingsResponse(ev.Bookings))
			if err != nil {
				slog.Error("failed to encode booking snapshot",
					slog.String("mentor_id", mentorID),
					slog.String("error", err.Error()),
				)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: bookings\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// toBookingsResponse はmodel.Bookingのスライスから一覧レスポンスに変換する。
func toBookingsResponse(bookings []model.Booking) bookingsResponse {
	res := bookingsResponse{Bookings: make([]bookingResponse, 0, len(bookings))}
	for _, b := range bookings {
		res.Bookings = append(res.Bookings, bookingResponse{
			ID:           b.ID,
			StudentName:  b.StudentName,
			StudentEmail: b.StudentEmail,
			Slot:         b.Slot,
			CreatedAt:    b.CreatedAt,
		})
	}
	return res
}
