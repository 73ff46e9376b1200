// Package booking は予約ビューのドメインロジックを提供する。
//
// 予約は学生向けコンポーネントが作成するレコードで、本サービスからは
// 読み取り専用。スロット削除が既存予約に波及することはない。
package booking

import (
	"context"
	"fmt"

	"github.com/hitoshi/mentordesk/internal/model"
	"github.com/hitoshi/mentordesk/internal/repository"
)

// Sanitizer は表示用フィールドのサニタイズインターフェース。
// security.DisplaySanitizerServiceの部分集合として定義する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Service は予約ビューのサービス層。
type Service struct {
	repo      repository.BookingRepository
	sanitizer Sanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.BookingRepository, sanitizer Sanitizer) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// ListByMentor は指定メンター宛ての予約全件を返す。
// 学生が入力した表示用フィールドはサニタイズしてから返す。
// ページネーションは行わない。
func (s *Service) ListByMentor(ctx context.Context, mentorID string) ([]model.Booking, error) {
	bookings, err := s.repo.ListByMentorID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}

	for i := range bookings {
		bookings[i].StudentName = s.sanitizer.Sanitize(bookings[i].StudentName)
		bookings[i].StudentEmail = s.sanitizer.Sanitize(bookings[i].StudentEmail)
	}

	return bookings, nil
}
