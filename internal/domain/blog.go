package domain

import "time"

// Blog 探店笔记
type Blog struct {
	ID      int64  // 笔记唯一标识
	ShopID  int64  // 关联的店铺
	UserID  int64  // 作者
	Title   string // 标题
	Content string // 正文
	Liked   int    // 点赞数量
	IsLike  bool   // 当前用户是否已点赞，不落库，查询时根据zset填充
	Ctime   time.Time
	Utime   time.Time
}
