package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/mentordesk/internal/model"
)

// PostgresMentorRepo はPostgreSQLを使用したメンターリポジトリ。
// slotsはTEXT[]カラムとして保持し、追加・削除は配列への集合デルタ更新で行う。
type PostgresMentorRepo struct {
	db *sql.DB
}

// NewPostgresMentorRepo はPostgresMentorRepoを生成する。
func NewPostgresMentorRepo(db *sql.DB) *PostgresMentorRepo {
	return &PostgresMentorRepo{db: db}
}

// FindByEmail はemailが一致するプロフィールを1件取得する。見つからない場合はnilを返す。
// emailに一意制約は張っていないため、重複時は作成日時が最も古い行を返す。
func (r *PostgresMentorRepo) FindByEmail(ctx context.Context, email string) (*model.MentorProfile, error) {
	mentor := &model.MentorProfile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, slots, created_at, updated_at
		 FROM mentors
		 WHERE email = $1
		 ORDER BY created_at
		 LIMIT 1`,
		email,
	).Scan(&mentor.ID, &mentor.Email, &mentor.Name, pq.Array(&mentor.Slots), &mentor.CreatedAt, &mentor.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find mentor by email: %w", err)
	}

	return mentor, nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresMentorRepo) FindByID(ctx context.Context, id string) (*model.MentorProfile, error) {
	mentor := &model.MentorProfile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, slots, created_at, updated_at
		 FROM mentors WHERE id = $1`,
		id,
	).Scan(&mentor.ID, &mentor.Email, &mentor.Name, pq.Array(&mentor.Slots), &mentor.CreatedAt, &mentor.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find mentor by ID: %w", err)
	}

	return mentor, nil
}

// AddSlot はスロット集合に値を追加する。
// 読み取り・変更・書き込みをクライアント側で行わず、単一UPDATEで
// 「含まれていなければ追加」をサーバー側に適用するため、並行する
// 変更と交錯しても重複も更新消失も起きない。
func (r *PostgresMentorRepo) AddSlot(ctx context.Context, mentorID, slot string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE mentors
		 SET slots = CASE WHEN slots @> ARRAY[$2] THEN slots ELSE array_append(slots, $2) END,
		     updated_at = now()
		 WHERE id = $1`,
		mentorID, slot,
	)
	if err != nil {
		return fmt.Errorf("failed to add slot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("mentor not found: %s", mentorID)
	}

	return nil
}

// RemoveSlot はスロット集合から値を削除する。
// array_removeは値が存在しない場合に何もしないため、削除は冪等になる。
func (r *PostgresMentorRepo) RemoveSlot(ctx context.Context, mentorID, slot string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE mentors
		 SET slots = array_remove(slots, $2),
		     updated_at = now()
		 WHERE id = $1`,
		mentorID, slot,
	)
	if err != nil {
		return fmt.Errorf("failed to remove slot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("mentor not found: %s", mentorID)
	}

	return nil
}

// compile-time interface check
var _ MentorRepository = (*PostgresMentorRepo)(nil)
