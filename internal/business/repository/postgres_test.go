package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/business/domain"
	"bizzytrack/backend/internal/db"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewPostgresRepository(db.NewGateway(sqlDB, zap.NewNop())), mock
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(selectBusiness).WithArgs("biz-1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "currency", "timezone", "status", "created_at", "updated_at"}).
			AddRow("biz-1", "Demo Shop", "KES", "Africa/Nairobi", "active", now, now))

	b, err := repo.GetByID(context.Background(), "biz-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if b == nil || b.Name != "Demo Shop" || b.Timezone != "Africa/Nairobi" || b.Status != domain.BusinessStatusActive {
		t.Errorf("GetByID = %+v", b)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(selectBusiness).WithArgs("missing").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "currency", "timezone", "status", "created_at", "updated_at"}))

	b, err := repo.GetByID(context.Background(), "missing")
	if err != nil || b != nil {
		t.Fatalf("GetByID = %v, %v; want nil, nil", b, err)
	}
}

func TestCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec(insertBusiness).
		WithArgs("biz-1", "Demo Shop", "USD", "UTC", "active", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := &domain.Business{ID: "biz-1", Name: "Demo Shop", Currency: "USD", Timezone: "UTC", Status: domain.BusinessStatusActive, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
