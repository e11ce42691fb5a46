package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/EERN0/dianping/internal/errs"
	"github.com/EERN0/dianping/internal/repository"
	"github.com/EERN0/dianping/internal/repository/dao"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPhone = "13812345678"

func newTestService(t *testing.T) (Service, *miniredis.Miniredis, *gorm.DB) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	dsn := fmt.Sprintf("file:user_%s?mode=memory&cache=shared", uuid.Must(uuid.NewV4()).String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&dao.User{}))

	return NewService(rdb, repository.NewUserRepository(dao.NewUserDAO(db))), mr, db
}

// loginCode 不走短信，直接从redis里把验证码捞出来
func loginCode(t *testing.T, mr *miniredis.Miniredis, phone string) string {
	t.Helper()
	code, err := mr.Get(codeKeyPrefix + phone)
	require.NoError(t, err)
	return code
}

func TestSendCode(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, testPhone))

	code := loginCode(t, mr, testPhone)
	assert.Len(t, code, 6)
	// 验证码是短TTL的一次性凭证
	ttl := mr.TTL(codeKeyPrefix + testPhone)
	assert.Greater(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, codeTTL)
}

func TestLogin_RegistersNewUser(t *testing.T) {
	svc, mr, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, testPhone))
	token, err := svc.Login(ctx, testPhone, loginCode(t, mr, testPhone))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// 首次登录顺手注册
	var u dao.User
	require.NoError(t, db.Where("phone = ?", testPhone).First(&u).Error)
	assert.Positive(t, u.ID)
	assert.Equal(t, "user_5678", u.NickName)

	// 会话能取回同一个用户
	got, err := svc.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.NickName, got.NickName)
}

func TestLogin_ExistingUserKeepsID(t *testing.T) {
	svc, mr, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, testPhone))
	_, err := svc.Login(ctx, testPhone, loginCode(t, mr, testPhone))
	require.NoError(t, err)
	var first dao.User
	require.NoError(t, db.Where("phone = ?", testPhone).First(&first).Error)

	// 二次登录不会重复注册
	require.NoError(t, svc.SendCode(ctx, testPhone))
	token, err := svc.Login(ctx, testPhone, loginCode(t, mr, testPhone))
	require.NoError(t, err)

	got, err := svc.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	var count int64
	require.NoError(t, db.Model(&dao.User{}).Where("phone = ?", testPhone).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLogin_WrongCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, testPhone))
	_, err := svc.Login(ctx, testPhone, "000000x")
	assert.ErrorIs(t, err, errs.ErrVerifyCodeMismatch)

	// 没发过验证码直接登录
	_, err = svc.Login(ctx, "13900000000", "123456")
	assert.ErrorIs(t, err, errs.ErrVerifyCodeMismatch)
}

func TestLogin_CodeIsSingleUse(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, testPhone))
	code := loginCode(t, mr, testPhone)
	_, err := svc.Login(ctx, testPhone, code)
	require.NoError(t, err)

	// 同一个验证码不能再登录一次
	_, err = svc.Login(ctx, testPhone, code)
	assert.ErrorIs(t, err, errs.ErrVerifyCodeMismatch)
}

func TestGetByToken_ExpiredSession(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, testPhone))
	token, err := svc.Login(ctx, testPhone, loginCode(t, mr, testPhone))
	require.NoError(t, err)

	// 会话过期后token失效
	mr.FastForward(tokenTTL + time.Second)
	_, err = svc.GetByToken(ctx, token)
	assert.ErrorIs(t, err, errs.ErrLoginSessionExpired)
}

func TestGetByToken_RefreshesTTL(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, testPhone))
	token, err := svc.Login(ctx, testPhone, loginCode(t, mr, testPhone))
	require.NoError(t, err)

	// 快过期前访问一次，会话被顺延
	mr.FastForward(tokenTTL - time.Minute)
	_, err = svc.GetByToken(ctx, token)
	require.NoError(t, err)
	mr.FastForward(tokenTTL - time.Minute)
	_, err = svc.GetByToken(ctx, token)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, testPhone))
	token, err := svc.Login(ctx, testPhone, loginCode(t, mr, testPhone))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.GetByToken(ctx, token)
	assert.ErrorIs(t, err, errs.ErrLoginSessionExpired)
}
