package product

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stockroom/internal/database"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	return NewService(db), mock
}

var productColumns = []string{
	"id", "code", "name", "uom", "price", "stock", "restock_level",
	"stock_location", "supplied_by", "notes", "created_at", "updated_at",
}

func productRow(rows *sqlmock.Rows, id int, code string, stock int) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, code, "Hex bolt M8", "pcs", 0.25, stock, 10, nil, nil, nil, now, now)
}

func TestDeductStock_Success(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "products" SET "stock"=stock - $1`)).
		WillReturnRows(productRow(sqlmock.NewRows(productColumns), 3, "BOLT-M8", 7))

	p, err := s.DeductStock(context.Background(), "BOLT-M8", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, p.ID)
	assert.Equal(t, 7, p.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeductStock_Insufficient(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "products" SET "stock"=stock - $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE code = $1`)).
		WillReturnRows(productRow(sqlmock.NewRows(productColumns), 3, "BOLT-M8", 2))

	_, err := s.DeductStock(context.Background(), "BOLT-M8", 5)
	require.Error(t, err)

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Stock)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, "current stock (2) is less than requested quantity (5)", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeductStock_UnknownCode(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "products" SET "stock"=stock - $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE code = $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := s.DeductStock(context.Background(), "NOPE", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStock_Add(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "products" SET "stock"=stock + $1`)).
		WillReturnRows(productRow(sqlmock.NewRows(productColumns), 3, "BOLT-M8", 15))

	p, err := s.AdjustStock(context.Background(), 3, ActionAdd, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, p.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStock_RemoveInsufficient(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "products" SET "stock"=stock - $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1`)).
		WillReturnRows(productRow(sqlmock.NewRows(productColumns), 3, "BOLT-M8", 4))

	_, err := s.AdjustStock(context.Background(), 3, ActionRemove, 10)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, insufficient.Stock)
	assert.Equal(t, 10, insufficient.Requested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStock_RemoveRequiresStock(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`UPDATE "products" SET "stock"=stock - $1,"updated_at"=$2 WHERE id = $3 AND stock >= $4`)).
		WithArgs(2, sqlmock.AnyArg(), 3, 2).
		WillReturnRows(productRow(sqlmock.NewRows(productColumns), 3, "BOLT-M8", 8))

	p, err := s.AdjustStock(context.Background(), 3, ActionRemove, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateCode(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "products"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_products_code"})

	err := s.Create(context.Background(), &database.Product{Code: "BOLT-M8", Name: "Hex bolt M8", UOM: "pcs"})
	assert.ErrorIs(t, err, ErrCodeTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_DuplicateCode(t *testing.T) {
	s, mock := newMockService(t)
	code := "NUT-M8"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET "code"=$1`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.Update(context.Background(), 3, UpdateInput{Code: &code})
	assert.ErrorIs(t, err, ErrCodeTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStock_InvalidAction(t *testing.T) {
	s, mock := newMockService(t)

	_, err := s.AdjustStock(context.Background(), 3, "steal", 5)
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockStats(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(`SELECT\s+count\(CASE WHEN stock <= 0`).
		WithArgs(3.0, 3.0).
		WillReturnRows(sqlmock.NewRows([]string{"sold_out", "low_stock", "medium_stock", "high_stock"}).
			AddRow(1, 2, 3, 4))

	stats, err := s.StockStats(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, StockStats{SoldOut: 1, LowStock: 2, MediumStock: 3, HighStock: 4}, *stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_Pagination(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products" WHERE`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE`)).
		WillReturnRows(productRow(sqlmock.NewRows(productColumns), 41, "BOLT-M8", 7))

	result, err := s.Search(context.Background(), "bolt", 3)
	require.NoError(t, err)
	assert.Len(t, result.Products, 1)
	assert.Equal(t, Pagination{CurrentPage: 3, TotalPages: 3, TotalItems: 41}, result.Pagination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_EmptyQueryListsEverything(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	result, err := s.Search(context.Background(), "  ", 0)
	require.NoError(t, err)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 0, TotalItems: 0}, result.Pagination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateInputUpdates(t *testing.T) {
	name := "Hex bolt M10"
	stock := 0
	in := UpdateInput{Name: &name, Stock: &stock}

	assert.Equal(t, map[string]any{"name": "Hex bolt M10", "stock": 0}, in.updates())
	assert.Empty(t, UpdateInput{}.updates())
}
