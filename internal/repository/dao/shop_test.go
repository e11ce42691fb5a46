package dao

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EERN0/dianping/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestShopDAO_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewShopDAO(db)

	rows := sqlmock.NewRows([]string{"id", "name", "type_id", "area", "score"}).
		AddRow(1, "一点点", 2, "三里屯", 47)
	mock.ExpectQuery("SELECT \\* FROM `tb_shop` WHERE id = \\?.*").
		WithArgs(1, 1).
		WillReturnRows(rows)

	shop, err := d.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "一点点", shop.Name)
	assert.Equal(t, 47, shop.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShopDAO_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewShopDAO(db)

	mock.ExpectQuery("SELECT \\* FROM `tb_shop` WHERE id = \\?.*").
		WithArgs(404, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := d.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, errs.ErrShopNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShopDAO_Update(t *testing.T) {
	db, mock := newMockDB(t)
	d := NewShopDAO(db)

	mock.ExpectBegin()
	// 更新语句必须带utime，参数顺序跟着非零字段走，这里只校验语句形状
	mock.ExpectExec("UPDATE `tb_shop` SET .*`utime`=.* WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := d.Update(context.Background(), Shop{ID: 1, Name: "一点点(翻新)", Score: 48})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
