package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/EERN0/dianping/internal/domain"
	"github.com/EERN0/dianping/internal/errs"
	"github.com/EERN0/dianping/internal/pkg/idgen"
	"github.com/EERN0/dianping/internal/repository"
	"github.com/gofrs/uuid"
	"github.com/gotomicro/ego/core/elog"
	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix  = "login:code:"
	tokenKeyPrefix = "login:token:"

	codeTTL  = 2 * time.Minute
	tokenTTL = 30 * time.Minute
)

// Service 手机验证码登录，会话在redis里以hash存储，token是不透明的uuid
type Service interface {
	// SendCode 为手机号生成6位数字验证码，写入redis短TTL。
	// 短信发送不在范围内，验证码只落在redis里
	SendCode(ctx context.Context, phone string) error
	// Login 校验验证码，用户不存在时顺手注册，返回会话token
	Login(ctx context.Context, phone, code string) (string, error)
	// GetByToken 根据token取会话用户，命中时顺延TTL
	GetByToken(ctx context.Context, token string) (domain.User, error)
	// Logout 删除会话
	Logout(ctx context.Context, token string) error
}

type service struct {
	client redis.Cmdable
	repo   repository.UserRepository
	idGen  *idgen.Snowflake
	logger *elog.Component
}

func NewService(client redis.Cmdable, repo repository.UserRepository) Service {
	return &service{
		client: client,
		repo:   repo,
		idGen:  idgen.NewSnowflake(),
		logger: elog.DefaultLogger.With(elog.FieldComponent("user.Service")),
	}
}

func (s *service) SendCode(ctx context.Context, phone string) error {
	if phone == "" {
		return fmt.Errorf("%w: 手机号为空", errs.ErrInvalidParameter)
	}
	code, err := randomCode()
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, codeKeyPrefix+phone, code, codeTTL).Err(); err != nil {
		return fmt.Errorf("保存验证码失败: %w", err)
	}
	// 真实环境里这里接短信渠道，开发环境直接看日志
	s.logger.Info("发送验证码", elog.String("phone", phone), elog.String("code", code))
	return nil
}

func (s *service) Login(ctx context.Context, phone, code string) (string, error) {
	want, err := s.client.Get(ctx, codeKeyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrVerifyCodeMismatch
	}
	if err != nil {
		return "", fmt.Errorf("读取验证码失败: %w", err)
	}
	if want != code {
		return "", errs.ErrVerifyCodeMismatch
	}
	// 验证码一次性使用
	if err := s.client.Del(ctx, codeKeyPrefix+phone).Err(); err != nil {
		s.logger.Warn("删除已使用的验证码失败", elog.String("phone", phone), elog.FieldErr(err))
	}

	u, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if u == nil {
		created, err := s.repo.Create(ctx, domain.User{
			ID:       s.idGen.GenerateID(phone),
			Phone:    phone,
			NickName: randomNickName(phone),
		})
		if err != nil {
			return "", err
		}
		u = &created
	}

	token := uuid.Must(uuid.NewV4()).String()
	key := tokenKeyPrefix + token
	err = s.client.HSet(ctx, key,
		"id", strconv.FormatInt(u.ID, 10),
		"nickName", u.NickName,
		"icon", u.Icon,
	).Err()
	if err != nil {
		return "", fmt.Errorf("写入会话失败: %w", err)
	}
	if err := s.client.Expire(ctx, key, tokenTTL).Err(); err != nil {
		return "", fmt.Errorf("设置会话过期时间失败: %w", err)
	}
	return token, nil
}

func (s *service) GetByToken(ctx context.Context, token string) (domain.User, error) {
	key := tokenKeyPrefix + token
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.User{}, fmt.Errorf("读取会话失败: %w", err)
	}
	if len(fields) == 0 {
		return domain.User{}, errs.ErrLoginSessionExpired
	}
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return domain.User{}, fmt.Errorf("会话数据损坏: %w", err)
	}
	// 活跃用户的会话顺延
	if err := s.client.Expire(ctx, key, tokenTTL).Err(); err != nil {
		s.logger.Warn("刷新会话过期时间失败", elog.FieldErr(err))
	}
	return domain.User{
		ID:       id,
		NickName: fields["nickName"],
		Icon:     fields["icon"],
	}, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKeyPrefix+token).Err()
}

// randomNickName 新注册用户的默认昵称，带上手机尾号方便辨认
func randomNickName(phone string) string {
	const tailLen = 4
	if len(phone) > tailLen {
		phone = phone[len(phone)-tailLen:]
	}
	return "user_" + phone
}

// randomCode 密码学随机的6位数字验证码
func randomCode() (string, error) {
	const codeSpace = 1000000
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("生成验证码失败: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
