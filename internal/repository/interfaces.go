// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/mentordesk/internal/model"
)

// MentorRepository はメンタープロフィールの永続化インターフェース。
// プロフィール行の作成・削除は管轄外で、変更できるのはスロット集合のみ。
type MentorRepository interface {
	// FindByEmail はemailが一致するプロフィールを1件取得する。
	// 複数一致する場合は作成日時が最も古い1件を返す（first-match）。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.MentorProfile, error)

	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.MentorProfile, error)

	// AddSlot はスロット集合に値を追加する。既に存在する値の追加は変更なしで成功する（冪等）。
	// 集合デルタを単一UPDATEでサーバー側適用するため、並行する追加・削除と競合しても
	// 更新が失われることはない。対象メンターが存在しない場合はエラーを返す。
	AddSlot(ctx context.Context, mentorID, slot string) error

	// RemoveSlot はスロット集合から値を削除する。存在しない値の削除は変更なしで成功する（冪等）。
	// 対象メンターが存在しない場合はエラーを返す。
	RemoveSlot(ctx context.Context, mentorID, slot string) error
}

// BookingRepository は予約データの読み取りインターフェース。
// 予約の作成・削除は学生向けコンポーネントの管轄で、本サービスは読み取り専用。
type BookingRepository interface {
	// ListByMentorID は指定メンター宛ての予約全件を返す。
	// 並び順は作成日時昇順（ストアの挿入順に相当）。
	ListByMentorID(ctx context.Context, mentorID string) ([]model.Booking, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByMentorID は指定メンターの全セッションを削除する。
	DeleteByMentorID(ctx context.Context, mentorID string) error
}
