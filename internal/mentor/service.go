// Package mentor はメンタープロフィールの解決とスロット集合管理の
// ドメインロジックを提供する。
//
// スロット集合の追加・削除はストア側で集合デルタとして適用されるため
// 冪等かつ可換で、完了順序の入れ替わりに関わらず最終状態は操作列の
// 集合演算の畳み込みと一致する。
package mentor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mentordesk/internal/model"
	"github.com/hitoshi/mentordesk/internal/repository"
)

// MetricsRecorder はスロット操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordSlotAdded()
	RecordSlotRemoved()
	RecordSlotMutationFailure()
}

// Service はメンターのアイデンティティ解決とスロット集合管理のサービス層。
type Service struct {
	repo    repository.MentorRepository
	metrics MetricsRecorder // nilの場合は記録しない
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(repo repository.MentorRepository, metrics MetricsRecorder) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
	}
}

// ResolveByEmail は認証済みアイデンティティのemailをメンタープロフィールに解決する。
// 一致するプロフィールが0件の場合はmodel.APIError(MENTOR_NOT_FOUND)を返す。
// 複数件一致する場合の挙動はリポジトリのfirst-match規約に従う。
func (s *Service) ResolveByEmail(ctx context.Context, email string) (*model.MentorProfile, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	mentor, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("メンタープロフィールの検索に失敗しました: %w", err)
	}
	if mentor == nil {
		return nil, model.NewMentorNotFoundError(email)
	}

	return mentor, nil
}

// Profile は指定メンターの現在のプロフィールスナップショットを返す。
// プロフィールが解決後に削除されていた場合はnilを返す（エラーではなく空状態）。
func (s *Service) Profile(ctx context.Context, mentorID string) (*model.MentorProfile, error) {
	mentor, err := s.repo.FindByID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	return mentor, nil
}

// AddSlot はスロット集合に値を追加し、更新後のプロフィールを再取得して返す。
// 空値はストアに触れずに拒否する。既存値の追加は変更なしで成功する（冪等）。
// ストア更新の失敗はログに記録し、リトライ可能な汎用エラーを返す。
func (s *Service) AddSlot(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
	if slot == "" {
		return nil, model.NewEmptySlotError()
	}

	if err := s.repo.AddSlot(ctx, mentorID, slot); err != nil {
		slog.Error("failed to add slot",
			slog.String("mentor_id", mentorID),
			slog.String("slot", slot),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.RecordSlotMutationFailure()
		}
		return nil, model.NewSlotUpdateFailedError()
	}

	if s.metrics != nil {
		s.metrics.RecordSlotAdded()
	}

	return s.Profile(ctx, mentorID)
}

// RemoveSlot はスロット集合から値を削除し、更新後のプロフィールを再取得して返す。
// 存在しない値の削除は変更なしで成功する（冪等）。
func (s *Service) RemoveSlot(ctx context.Context, mentorID, slot string) (*model.MentorProfile, error) {
	if err := s.repo.RemoveSlot(ctx, mentorID, slot); err != nil {
		slog.Error("failed to remove slot",
			slog.String("mentor_id", mentorID),
			slog.String("slot", slot),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.RecordSlotMutationFailure()
		}
		return nil, model.NewSlotUpdateFailedError()
	}

	if s.metrics != nil {
		s.metrics.RecordSlotRemoved()
	}

	return s.Profile(ctx, mentorID)
}
