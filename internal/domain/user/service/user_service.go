package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/domain/user/repository"
	"wonderwomen/internal/pkg/apperr"
	"wonderwomen/pkg/logger"
	baseModel "wonderwomen/pkg/model"
	"wonderwomen/pkg/utils"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBanned      = errors.New("account banned")
)

// UserService 用户服务接口
type UserService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Signup(ctx context.Context, input SignupInput) (*LoginResult, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*model.User, error)

	GetUsers(role model.Role) []model.User
	GetUser(id baseModel.ID) (*model.User, error)
	Approve(ctx context.Context, id baseModel.ID) (*model.User, error)
	Ban(ctx context.Context, id baseModel.ID) (*model.User, error)
}

// LoginResult 登录结果，User 不含密码
type LoginResult struct {
	Token    string     `json:"token"`
	ExpireAt time.Time  `json:"expireAt"`
	User     model.User `json:"user"`
}

type SignupInput struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     model.Role
	Bio      string
}

// 注册时按角色补齐的扩展字段
var roleDefaults = map[model.Role]map[string]json.RawMessage{
	model.RoleMentor: {
		"industry":     json.RawMessage(`""`),
		"skills":       json.RawMessage(`[]`),
		"experience":   json.RawMessage(`""`),
		"availability": json.RawMessage(`[]`),
	},
	model.RoleEntrepreneur: {
		"shopName":        json.RawMessage(`""`),
		"shopDescription": json.RawMessage(`""`),
	},
	model.RoleMentee: {
		"skills": json.RawMessage(`[]`),
		"goals":  json.RawMessage(`""`),
	},
}

// userService 实现
type userService struct {
	repo repository.UserRepository
	ids  baseModel.IDGenerator
	log  *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, ids baseModel.IDGenerator) UserService {
	if ids == nil {
		ids = baseModel.UUIDGenerator{}
	}
	return &userService{repo: repo, ids: ids, log: logger.Named("user")}
}

// Login 明文比对密码，成功后签发 token 并写入会话
func (s *userService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.GetByUsername(strings.TrimSpace(username))
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && user.Password != password) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Banned() {
		return nil, ErrAccountBanned
	}
	return s.startSession(ctx, *user)
}

// Signup 注册并直接登录，导师需要管理员审核
func (s *userService) Signup(ctx context.Context, input SignupInput) (*LoginResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Name = strings.TrimSpace(input.Name)
	switch {
	case input.Username == "":
		return nil, apperr.Validation("username", "username is required")
	case input.Password == "":
		return nil, apperr.Validation("password", "password is required")
	case input.Name == "":
		return nil, apperr.Validation("name", "name is required")
	case !input.Role.Valid() || input.Role == model.RoleAdmin:
		return nil, apperr.Validation("role", "role must be mentor, mentee or entrepreneur")
	}

	user := model.User{
		ID:       s.ids.NewID(),
		Username: input.Username,
		Password: input.Password,
		Name:     input.Name,
		Email:    strings.TrimSpace(input.Email),
		Role:     input.Role,
		Status:   model.StatusActive,
		Bio:      input.Bio,
		Extra:    lo.Assign(roleDefaults[input.Role]),
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info("user signed up", zap.String("user_id", created.ID.String()), zap.String("role", string(created.Role)))
	return s.startSession(ctx, *created)
}

func (s *userService) startSession(ctx context.Context, user model.User) (*LoginResult, error) {
	token, expireAt, err := utils.GenerateToken(user.Actor())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetSession(ctx, user); err != nil {
		s.log.Warn("session not persisted", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return &LoginResult{Token: token, ExpireAt: expireAt, User: user.Public()}, nil
}

// Logout 清除会话
func (s *userService) Logout(ctx context.Context) error {
	err := s.repo.ClearSession(ctx)
	if errors.Is(err, apperr.ErrStorage) {
		s.log.Warn("session not cleared", zap.Error(err))
		return nil
	}
	return err
}

// Current 当前会话中的用户，未登录返回 nil
func (s *userService) Current(ctx context.Context) (*model.User, error) {
	return s.repo.Session(ctx)
}

// GetUsers 用户列表，role 为空返回全部
func (s *userService) GetUsers(role model.Role) []model.User {
	return lo.FilterMap(s.repo.List(), func(u model.User, _ int) (model.User, bool) {
		return u.Public(), role == "" || u.Role == role
	})
}

// GetUser 获取单个用户
func (s *userService) GetUser(id baseModel.ID) (*model.User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// Approve 审核通过导师
func (s *userService) Approve(ctx context.Context, id baseModel.ID) (*model.User, error) {
	u, err := s.repo.Update(ctx, id, func(u *model.User) error {
		if u.Role != model.RoleMentor {
			return apperr.Validation("role", "only mentors need approval")
		}
		u.IsApproved = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// Ban 封禁用户，管理员不能被封禁
func (s *userService) Ban(ctx context.Context, id baseModel.ID) (*model.User, error) {
	u, err := s.repo.Update(ctx, id, func(u *model.User) error {
		if u.Role == model.RoleAdmin {
			return apperr.Validation("role", "admins cannot be banned")
		}
		u.IsBanned = true
		u.Status = model.StatusBanned
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user banned", zap.String("user_id", id.String()))
	pub := u.Public()
	return &pub, nil
}
