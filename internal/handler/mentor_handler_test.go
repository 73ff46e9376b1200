package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/mentordesk/internal/middleware"
	"github.com/hitoshi/mentordesk/internal/model"
)

// --- モック定義 ---

type mockMentorService struct {
	profileFn    func(ctx context.Context, mentorID string) (*model.MentorProfile, error)
	addSlotFn    func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error)
	removeSlotFn func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error)
}

func (m *mockMentorService) Profile(ctx context.Context, mentorID string) (*model.MentorProfile, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, mentorID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMentorService) AddSlot(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
	if m.addSlotFn != nil {
		return m.addSlotFn(ctx, mentorID, slot)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMentorService) RemoveSlot(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
	if m.removeSlotFn != nil {
		return m.removeSlotFn(ctx, mentorID, slot)
	}
	return nil, errors.New("not implemented")
}

// withMentorID は認証済みコンテキストを持つリクエストを生成する。
func withMentorID(req *http.Request, mentorID string) *http.Request {
	return req.WithContext(middleware.ContextWithMentorID(req.Context(), mentorID))
}

// --- テスト ---

func TestGetProfile_ReturnsProfileWithSlots(t *testing.T) {
	service := &mockMentorService{
		profileFn: func(ctx context.Context, mentorID string) (*model.MentorProfile, error) {
			return &model.MentorProfile{
				ID:    mentorID,
				Email: "mentor@example.com",
				Name:  "山田メンター",
				Slots: []string{"2026-09-10 10:00", "2026-09-10 11:00"},
			}, nil
		},
	}
	h := NewMentorHandler(service)

	req := withMentorID(httptest.NewRequest(http.MethodGet, "/api/mentors/me", nil), "mentor-1")
	w := httptest.NewRecorder()

	h.GetProfile(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body mentorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(body.Slots) != 2 {
		t.Errorf("slots = %v, want 2 entries", body.Slots)
	}
	if body.DisplayName != "山田メンター" {
		t.Errorf("display_name = %q", body.DisplayName)
	}
}

func TestGetProfile_NoSlots_ReturnsEmptyArray(t *testing.T) {
	service := &mockMentorService{
		profileFn: func(ctx context.Context, mentorID string) (*model.MentorProfile, error) {
			return &model.MentorProfile{ID: mentorID, Email: "mentor@example.com"}, nil
		},
	}
	h := NewMentorHandler(service)

	req := withMentorID(httptest.NewRequest(http.MethodGet, "/api/mentors/me", nil), "mentor-1")
	w := httptest.NewRecorder()

	h.GetProfile(w, req)

	// nullではなく[]で返す
	if !strings.Contains(w.Body.String(), `"slots":[]`) {
		t.Errorf("slots should be an empty array: %s", w.Body.String())
	}
}

func TestGetProfile_Unauthenticated_Returns401(t *testing.T) {
	h := NewMentorHandler(&mockMentorService{})

	req := httptest.NewRequest(http.MethodGet, "/api/mentors/me", nil)
	w := httptest.NewRecorder()

	h.GetProfile(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAddSlot_ReturnsUpdatedSlots(t *testing.T) {
	service := &mockMentorService{
		addSlotFn: func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
			if slot != "2026-09-12 14:00" {
				t.Errorf("slot = %q", slot)
			}
			return &model.MentorProfile{
				ID:    mentorID,
				Email: "mentor@example.com",
				Slots: []string{"2026-09-10 10:00", "2026-09-12 14:00"},
			}, nil
		},
	}
	h := NewMentorHandler(service)

	body := strings.NewReader(`{"slot":"2026-09-12 14:00"}`)
	req := withMentorID(httptest.NewRequest(http.MethodPost, "/api/mentors/me/slots", body), "mentor-1")
	w := httptest.NewRecorder()

	h.AddSlot(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var res mentorResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(res.Slots) != 2 {
		t.Errorf("slots = %v, want 2 entries", res.Slots)
	}
}

func TestAddSlot_EmptySlot_Returns400(t *testing.T) {
	service := &mockMentorService{
		addSlotFn: func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
			return nil, model.NewEmptySlotError()
		},
	}
	h := NewMentorHandler(service)

	body := strings.NewReader(`{"slot":""}`)
	req := withMentorID(httptest.NewRequest(http.MethodPost, "/api/mentors/me/slots", body), "mentor-1")
	w := httptest.NewRecorder()

	h.AddSlot(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var res apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if res.Code != model.ErrCodeEmptySlot {
		t.Errorf("code = %q, want %q", res.Code, model.ErrCodeEmptySlot)
	}
}

func TestAddSlot_StoreFailure_Returns500WithCode(t *testing.T) {
	service := &mockMentorService{
		addSlotFn: func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
			return nil, model.NewSlotUpdateFailedError()
		},
	}
	h := NewMentorHandler(service)

	body := strings.NewReader(`{"slot":"2026-09-12 14:00"}`)
	req := withMentorID(httptest.NewRequest(http.MethodPost, "/api/mentors/me/slots", body), "mentor-1")
	w := httptest.NewRecorder()

	h.AddSlot(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var res apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if res.Code != model.ErrCodeSlotUpdateFailed {
		t.Errorf("code = %q, want %q", res.Code, model.ErrCodeSlotUpdateFailed)
	}
	if res.Action == "" {
		t.Error("action should guide the user to retry")
	}
}

func TestAddSlot_ProfileDeletedDuringUpdate_Returns404(t *testing.T) {
	// 更新と再取得の間にプロフィールが削除されるとサービスはnilを返す
	service := &mockMentorService{
		addSlotFn: func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
			return nil, nil
		},
	}
	h := NewMentorHandler(service)

	body := strings.NewReader(`{"slot":"2026-09-12 14:00"}`)
	req := withMentorID(httptest.NewRequest(http.MethodPost, "/api/mentors/me/slots", body), "mentor-1")
	w := httptest.NewRecorder()

	h.AddSlot(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	var res apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if res.Code != model.ErrCodeMentorNotFound {
		t.Errorf("code = %q, want %q", res.Code, model.ErrCodeMentorNotFound)
	}
}

func TestAddSlot_InvalidJSON_Returns400(t *testing.T) {
	h := NewMentorHandler(&mockMentorService{})

	body := strings.NewReader(`not json`)
	req := withMentorID(httptest.NewRequest(http.MethodPost, "/api/mentors/me/slots", body), "mentor-1")
	w := httptest.NewRecorder()

	h.AddSlot(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestRemoveSlot_ReturnsUpdatedSlots(t *testing.T) {
	service := &mockMentorService{
		removeSlotFn: func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
			return &model.MentorProfile{
				ID:    mentorID,
				Email: "mentor@example.com",
				Slots: []string{"2026-09-10 10:00"},
			}, nil
		},
	}
	h := NewMentorHandler(service)

	body := strings.NewReader(`{"slot":"2026-09-12 14:00"}`)
	req := withMentorID(httptest.NewRequest(http.MethodDelete, "/api/mentors/me/slots", body), "mentor-1")
	w := httptest.NewRecorder()

	h.RemoveSlot(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var res mentorResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(res.Slots) != 1 {
		t.Errorf("slots = %v, want 1 entry", res.Slots)
	}
}

func TestRemoveSlot_ProfileDeletedDuringUpdate_Returns404(t *testing.T) {
	service := &mockMentorService{
		removeSlotFn: func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
			return nil, nil
		},
	}
	h := NewMentorHandler(service)

	body := strings.NewReader(`{"slot":"2026-09-12 14:00"}`)
	req := withMentorID(httptest.NewRequest(http.MethodDelete, "/api/mentors/me/slots", body), "mentor-1")
	w := httptest.NewRecorder()

	h.RemoveSlot(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestRemoveSlot_AbsentSlot_StillSucceeds(t *testing.T) {
	// 存在しない枠の削除は成功として扱う
	service := &mockMentorService{
		removeSlotFn: func(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
			return &model.MentorProfile{ID: mentorID, Email: "mentor@example.com", Slots: []string{}}, nil
		},
	}
	h := NewMentorHandler(service)

	body := strings.NewReader(`{"slot":"never-existed"}`)
	req := withMentorID(httptest.NewRequest(http.MethodDelete, "/api/mentors/me/slots", body), "mentor-1")
	w := httptest.NewRecorder()

	h.RemoveSlot(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}
