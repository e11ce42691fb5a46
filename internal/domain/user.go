package domain

import "time"

// User 用户领域模型
type User struct {
	ID       int64  // 用户唯一标识
	Phone    string // 手机号
	NickName string // 昵称
	Icon     string // 头像
	Ctime    time.Time
	Utime    time.Time
}
