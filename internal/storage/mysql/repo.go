package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"review_analyzer/internal/domain"
)

// Repo is the MySQL-backed review dataset. It implements domain.ReviewSource.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertReviews writes rs in one multi-row statement. Row i gets sequence
// number offset+i+1, so batches may be written in any order.
func (r *Repo) UpsertReviews(ctx context.Context, offset int, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*5)
	for i, rv := range rs {
		values = append(values, "(?,?,?,?,?)")
		args = append(args,
			rv.ID,        // review_id
			offset+i+1,   // seq
			rv.Body,      // review_body
			rv.Location,  // location
			rv.Time.Time, // created_at
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert %d reviews: %w", len(rs), err)
	}
	return nil
}

func (r *Repo) LoadReviews(ctx context.Context) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var createdAt sql.NullTime
		if err := rows.Scan(&rv.ID, &rv.Body, &rv.Location, &createdAt); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			rv.Time = domain.NewTimestamp(createdAt.Time)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countReviewsSQL).Scan(&n)
	return n, err
}
