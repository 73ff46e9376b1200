package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveDashboard(t *testing.T) string {
	t.Helper()
	h := NewPageHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	h.Dashboard(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	return w.Body.String()
}

func TestDashboardPage_ContainsCoreElements(t *testing.T) {
	body := serveDashboard(t)

	for _, want := range []string{"slot-form", "slot-input", "bookings", "logout", "/api/bookings/stream"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard should contain %q", want)
		}
	}
}

func TestDashboardPage_PromptsOnEmptySlotInput(t *testing.T) {
	// 空入力はストアに触れず、入力を促すプロンプトを表示する
	body := serveDashboard(t)

	if !strings.Contains(body, "日時を選択してください。") {
		t.Error("dashboard should prompt when the slot input is empty")
	}
}

func TestDashboardPage_KeepsInputUntilAddSucceeds(t *testing.T) {
	// 入力欄のクリアは追加成功時のみ。失敗時は再試行のため入力を保持する。
	body := serveDashboard(t)

	start := strings.Index(body, "const addSlot")
	end := strings.Index(body, "const removeSlot")
	if start < 0 || end < 0 || start > end {
		t.Fatal("dashboard should define addSlot before removeSlot")
	}
	addSection := body[start:end]

	clearIdx := strings.Index(addSection, "slot-input').value = ''")
	if clearIdx < 0 {
		t.Fatal("addSlot should clear the input on success")
	}
	okIdx := strings.Index(addSection, "res.ok")
	if okIdx < 0 || clearIdx < okIdx {
		t.Error("the input should be cleared only after the mutation succeeds")
	}

	submitStart := strings.Index(body, "addEventListener('submit'")
	if submitStart < 0 {
		t.Fatal("dashboard should register a submit handler")
	}
	submitSection := body[submitStart : submitStart+strings.Index(body[submitStart:], "});")]
	if strings.Contains(submitSection, "value = ''") {
		t.Error("the submit handler must not clear the input before the request")
	}
}

func TestLoginPage_ShowsMentorNotFoundError(t *testing.T) {
	h := NewPageHandler()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "mentor_not_found") {
		t.Error("login page should handle the mentor_not_found error parameter")
	}
}
