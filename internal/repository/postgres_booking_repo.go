package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mentordesk/internal/model"
)

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ（読み取り専用）。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

// ListByMentorID は指定メンター宛ての予約全件を作成日時昇順で返す。
// ページネーションは行わない（全件描画が予約ビューの契約）。
func (r *PostgresBookingRepo) ListByMentorID(ctx context.Context, mentorID string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, mentor_id, student_name, student_email, slot, created_at
		 FROM bookings
		 WHERE mentor_id = $1
		 ORDER BY created_at`,
		mentorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.MentorID, &b.StudentName, &b.StudentEmail, &b.Slot, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
