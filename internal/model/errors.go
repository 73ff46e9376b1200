// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, slot, booking, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMentorNotFound   = "MENTOR_NOT_FOUND"
	ErrCodeEmptySlot        = "EMPTY_SLOT"
	ErrCodeSlotUpdateFailed = "SLOT_UPDATE_FAILED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
)

// NewMentorNotFoundError は認証済みアイデンティティに対応する
// メンタープロフィールが存在しない場合のエラーを生成する。
func NewMentorNotFoundError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeMentorNotFound,
		Message:  fmt.Sprintf("このアカウントに対応するメンタープロフィールが見つかりません: %s", email),
		Category: "auth",
		Action:   "登録済みのメンターアカウントでログインするか、運営に問い合わせてください。",
	}
}

// NewEmptySlotError は空のスロット値が指定された場合のエラーを生成する。
func NewEmptySlotError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptySlot,
		Message:  "日時が指定されていません。",
		Category: "validation",
		Action:   "日時を選択してから追加してください。",
	}
}

// NewSlotUpdateFailedError はスロット集合の更新に失敗した場合のエラーを生成する。
func NewSlotUpdateFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSlotUpdateFailed,
		Message:  "スロットの更新に失敗しました。",
		Category: "slot",
		Action:   "しばらく待ってから再度お試しください。入力内容は保持されています。",
	}
}

// NewUnauthorizedError は未認証リクエストに対するエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
