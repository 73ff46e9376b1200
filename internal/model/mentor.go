// Package model はドメインモデルを定義する。
package model

import "time"

// MentorProfile はメンター1人分のプロフィールと提供スロット集合を表す。
// レコードの作成・削除は本システムの管轄外（管理ツール側で行う）。
// 本システムが変更するのはSlotsのみ。
type MentorProfile struct {
	ID        string
	Email     string
	Name      string
	Slots     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName は画面表示用の名前を返す。
// Nameが未設定の場合はEmailにフォールバックする。
func (m *MentorProfile) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Email
}

// HasSlot は指定スロットが集合に含まれるかを返す。
func (m *MentorProfile) HasSlot(slot string) bool {
	for _, s := range m.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Session はメンターのログインセッションを表す。
type Session struct {
	ID        string
	MentorID  string
	ExpiresAt time.Time
	CreatedAt time.Time
}
