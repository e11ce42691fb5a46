package domain

import (
	"fmt"
	"time"

	"github.com/EERN0/dianping/internal/errs"
)

// Shop 店铺领域模型
type Shop struct {
	ID       int64  // 店铺唯一标识
	Name     string // 店铺名称
	TypeID   int64  // 店铺类型
	Address  string // 地址
	Area     string // 商圈
	AvgPrice int64  // 人均价格
	Sold     int    // 销量
	Comments int    // 评论数量
	Score    int    // 评分，1~50
	Ctime    time.Time
	Utime    time.Time
}

func (s *Shop) Validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("%w: ID = %d", errs.ErrInvalidParameter, s.ID)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: Name = %q", errs.ErrInvalidParameter, s.Name)
	}
	return nil
}
