package entities

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupPostgresTest(t *testing.T) (*PostgresDirectory, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	return NewPostgresDirectoryFromDB(db), mock, func() { db.Close() }
}

func TestPostgresDirectory_Get(t *testing.T) {
	dir, mock, cleanup := setupPostgresTest(t)
	defer cleanup()

	added := time.Date(2020, 1, 10, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "domain_id", "added_time"}).
		AddRow(int64(42), int64(7), added)

	mock.ExpectQuery("SELECT id, domain_id, added_time FROM talent_pools WHERE id = \\$1 AND deleted_at IS NULL").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	e, err := dir.Get(context.Background(), TalentPool, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if e.ID != 42 || e.DomainID != 7 || e.Kind != TalentPool {
		t.Fatalf("Unexpected entity: %+v", e)
	}
	if !e.AddedTime.Equal(added) {
		t.Fatalf("Expected added time %v, got %v", added, e.AddedTime)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPostgresDirectory_GetNotFound(t *testing.T) {
	dir, mock, cleanup := setupPostgresTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, domain_id, added_time FROM smart_lists").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "domain_id", "added_time"}))

	_, err := dir.Get(context.Background(), SmartList, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestPostgresDirectory_List(t *testing.T) {
	dir, mock, cleanup := setupPostgresTest(t)
	defer cleanup()

	added := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "domain_id", "added_time"}).
		AddRow(int64(1), int64(7), added).
		AddRow(int64(2), int64(8), added)

	mock.ExpectQuery("SELECT id, domain_id, added_time FROM talent_pipelines WHERE deleted_at IS NULL ORDER BY id").
		WillReturnRows(rows)

	list, err := dir.List(context.Background(), TalentPipeline)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(list))
	}
	if list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("Unexpected list: %+v", list)
	}
	for _, e := range list {
		if e.Kind != TalentPipeline {
			t.Errorf("Expected kind talent_pipelines, got %v", e.Kind)
		}
	}
}

func TestPostgresDirectory_Exists(t *testing.T) {
	dir, mock, cleanup := setupPostgresTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT 1 FROM talent_pools WHERE id = \\$1 AND deleted_at IS NULL").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM talent_pools WHERE id = \\$1 AND deleted_at IS NULL").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	alive, err := dir.Exists(context.Background(), TalentPool, 1)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !alive {
		t.Fatal("Expected entity 1 to exist")
	}

	alive, err = dir.Exists(context.Background(), TalentPool, 2)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if alive {
		t.Fatal("Expected entity 2 to not exist")
	}
}

func TestMemoryDirectory(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	dir.Put(Entity{Kind: TalentPool, ID: 1, DomainID: 5})
	dir.Put(Entity{Kind: TalentPool, ID: 2, DomainID: 5})
	dir.Put(Entity{Kind: SmartList, ID: 1, DomainID: 5})

	e, err := dir.Get(ctx, TalentPool, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if e.ID != 1 || e.Kind != TalentPool {
		t.Fatalf("Unexpected entity: %+v", e)
	}

	list, err := dir.List(ctx, TalentPool)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 pools, got %d", len(list))
	}

	dir.Remove(TalentPool, 1)
	if alive, _ := dir.Exists(ctx, TalentPool, 1); alive {
		t.Fatal("Expected removed entity to not exist")
	}
	if _, err := dir.Get(ctx, TalentPool, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
