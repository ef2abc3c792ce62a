//go:build integration

package mysql_test

import (
	"context"
	"testing"

	"review_analyzer/internal/domain"
	mysqlrepo "review_analyzer/internal/storage/mysql"
	"review_analyzer/internal/storage/mysql/mysqltest"
)

func ts(t *testing.T, s string) domain.Timestamp {
	t.Helper()
	v, err := domain.ParseTimestamp(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}

func TestRepo_MySQL_UpsertAndLoad(t *testing.T) {
	db := mysqltest.Start(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	rs := []domain.Review{
		{ID: "r-2", Body: "second by id, first by insertion", Location: "Denver, Colorado", Time: ts(t, "2023-01-02 03:04:05")},
		{ID: "r-1", Body: "ok", Location: "Phoenix, Arizona", Time: ts(t, "2022-12-31 23:59:59")},
	}
	if err := repo.UpsertReviews(ctx, 0, rs); err != nil {
		t.Fatalf("UpsertReviews: %v", err)
	}
	// re-seeding is idempotent
	if err := repo.UpsertReviews(ctx, 0, rs); err != nil {
		t.Fatalf("UpsertReviews again: %v", err)
	}

	// a later batch written first still loads after the earlier one
	late := []domain.Review{{ID: "r-0", Body: "late batch", Location: "Tucson, Arizona", Time: ts(t, "2020-01-01 00:00:00")}}
	if err := repo.UpsertReviews(ctx, 2, late); err != nil {
		t.Fatalf("UpsertReviews late: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count: n=%d err=%v", n, err)
	}

	got, err := repo.LoadReviews(ctx)
	if err != nil {
		t.Fatalf("LoadReviews: %v", err)
	}
	if len(got) != 3 || got[0].ID != "r-2" || got[1].ID != "r-1" || got[2].ID != "r-0" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Time.String() != "2023-01-02 03:04:05" || got[1].Location != "Phoenix, Arizona" {
		t.Fatalf("unexpected values: %+v", got)
	}
}
