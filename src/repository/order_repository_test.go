package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Legiang98/hyperliquid-trading/src/model"
)

func TestOrderRepositoryFindOpen(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	createdAt := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("returns latest open record", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "symbol", "strategy", "quantity", "price", "status", "created_at"}).
			AddRow(1, "BTC", "s1", 0.004, 95010.0, "open", createdAt)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE symbol = $1 AND strategy = $2 AND status = $3 ORDER BY created_at DESC`)).
			WithArgs("BTC", "s1", model.OrderStatusOpen, 1).
			WillReturnRows(rows)

		order, err := repo.FindOpen(context.Background(), "BTC", "s1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order == nil || order.ID != 1 || order.Symbol != "BTC" {
			t.Fatalf("unexpected order: %+v", order)
		}
	})

	t.Run("returns nil when no record", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE symbol = $1 AND strategy = $2 AND status = $3 ORDER BY created_at DESC`)).
			WithArgs("ETH", "s1", model.OrderStatusOpen, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		order, err := repo.FindOpen(context.Background(), "ETH", "s1")
		if err != nil {
			t.Fatalf("expected nil error for missing record, got %v", err)
		}
		if order != nil {
			t.Fatalf("expected nil order, got %+v", order)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryFindOpenEntry(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	createdAt := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("selects the entry leg only", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "symbol", "strategy", "quantity", "price", "order_type", "status", "created_at"}).
			AddRow(1, "BTC", "s1", 0.004, 95010.0, "limit", "open", createdAt)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE symbol = $1 AND strategy = $2 AND status = $3 AND order_type = $4 ORDER BY created_at DESC`)).
			WithArgs("BTC", "s1", model.OrderStatusOpen, model.OrderTypeLimit, 1).
			WillReturnRows(rows)

		order, err := repo.FindOpenEntry(context.Background(), "BTC", "s1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order == nil || order.OrderType != model.OrderTypeLimit || order.Price != 95010.0 {
			t.Fatalf("unexpected order: %+v", order)
		}
	})

	t.Run("returns nil when only stop legs are open", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE symbol = $1 AND strategy = $2 AND status = $3 AND order_type = $4 ORDER BY created_at DESC`)).
			WithArgs("ETH", "s1", model.OrderStatusOpen, model.OrderTypeLimit, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		order, err := repo.FindOpenEntry(context.Background(), "ETH", "s1")
		if err != nil {
			t.Fatalf("expected nil error for missing record, got %v", err)
		}
		if order != nil {
			t.Fatalf("expected nil order, got %+v", order)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryCreate(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	stop := 94000.0
	order := &model.Order{
		UserAddress: "0xabc",
		Symbol:      "BTC",
		Strategy:    "s1",
		Quantity:    0.004,
		OrderType:   model.OrderTypeLimit,
		Action:      "ENTRY",
		Side:        "BUY",
		Price:       95010,
		StopLoss:    &stop,
		Status:      model.OrderStatusOpen,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders" (`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if order.ID != 1 {
		t.Fatalf("expected generated id 1, got %d", order.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryUpdateOid(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpdateOid(context.Background(), 1, "111"); err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryClose(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Close(context.Background(), 1, 2.45); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestOrderRepositoryCloseAll(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	// entry record and its stop-loss leg retired together
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.CloseAll(context.Background(), "BTC", "s1", 2.45); err != nil {
		t.Fatalf("expected close-all to succeed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}
