package shop

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/errs"
	"github.com/EERN0/dianping/internal/pkg/cache"
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

func newTestService(t *testing.T) (Service, *miniredis.Miniredis, *gorm.DB) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	dsn := fmt.Sprintf("file:shop_%s?mode=memory&cache=shared", uuid.Must(uuid.NewV4()).String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&dao.Shop{}))

	repo := repository.NewShopRepository(dao.NewShopDAO(db), cache.NewClient(rdb))
	return NewService(repo), mr, db
}

func seedShop(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	shop := dao.Shop{
		Name:     "很久以前羊肉串",
		TypeID:   1,
		Address:  "望京小街",
		Area:     "望京",
		AvgPrice: 120,
		Score:    45,
	}
	require.NoError(t, db.Create(&shop).Error)
	return shop.ID
}

func TestGetByID_CachesValue(t *testing.T) {
	svc, mr, db := newTestService(t)
	ctx := context.Background()
	id := seedShop(t, db)

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "很久以前羊肉串", got.Name)

	// 第二次命中缓存：把数据库里的记录删掉后依旧读得到
	require.NoError(t, db.Delete(&dao.Shop{}, id).Error)
	got, err = svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "很久以前羊肉串", got.Name)

	// 缓存里确实有这个key
	assert.True(t, mr.Exists(fmt.Sprintf("cache:shop:%d", id)))
}

func TestGetByID_NotFound(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, 404)
	assert.ErrorIs(t, err, errs.ErrShopNotFound)
	// 不存在的id也会在缓存里留下空值哨兵
	val, err := mr.Get("cache:shop:404")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	svc, mr, db := newTestService(t)
	ctx := context.Background()
	id := seedShop(t, db)

	_, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, mr.Exists(fmt.Sprintf("cache:shop:%d", id)))

	shop, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	shop.Name = "很久以前(新店)"
	require.NoError(t, svc.Update(ctx, shop))

	// 先更新库再删缓存，下一次读取回源拿到新名字
	assert.False(t, mr.Exists(fmt.Sprintf("cache:shop:%d", id)))
	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "很久以前(新店)", got.Name)
}

func TestUpdate_RejectsInvalidShop(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Update(context.Background(), domain.Shop{ID: 0, Name: "没有ID的店"})
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestWarmupAndHotRead(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	id := seedShop(t, db)

	// 没预热过的店铺走热点接口读不到
	_, err := svc.GetHotByID(ctx, id)
	assert.ErrorIs(t, err, errs.ErrShopNotFound)

	require.NoError(t, svc.Warmup(ctx, id, 10*time.Minute))
	got, err := svc.GetHotByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "很久以前羊肉串", got.Name)
}

// 两种读策略的缓存格式互不兼容，各占一个key前缀，互相不能串台
func TestWarmupDoesNotPolluteGetByID(t *testing.T) {
	svc, mr, db := newTestService(t)
	ctx := context.Background()
	id := seedShop(t, db)

	// 预热只写热点key，普通读依旧回源拿到完整数据
	require.NoError(t, svc.Warmup(ctx, id, 10*time.Minute))
	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "很久以前羊肉串", got.Name)
	assert.True(t, mr.Exists(fmt.Sprintf("cache:shop:hot:%d", id)))

	// 反方向：普通读写入的缓存不影响热点读的冷key判定
	svc2, _, db2 := newTestService(t)
	id2 := seedShop(t, db2)
	_, err = svc2.GetByID(ctx, id2)
	require.NoError(t, err)
	_, err = svc2.GetHotByID(ctx, id2)
	assert.ErrorIs(t, err, errs.ErrShopNotFound)

	got, err = svc.GetHotByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "很久以前羊肉串", got.Name)
}
