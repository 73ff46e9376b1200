// Package model はドメインモデルを定義する。
package model

import "time"

// Booking は学生による予約レコードを表す。
// 学生向けコンポーネントが作成し、本システムからは読み取り専用。
// MentorIDはMentorProfile.IDへの参照だが、スロット削除が既存予約を
// 無効化することはない（カスケードしない）。
type Booking struct {
	ID           string
	MentorID     string
	StudentName  string
	StudentEmail string
	Slot         string
	CreatedAt    time.Time
}
