package repository

import (
	"context"
	"slices"

	"wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/pkg/apperr"
	"wonderwomen/internal/store"
	baseModel "wonderwomen/pkg/model"

	"github.com/samber/lo"
)

// UserRepository 接口定义
type UserRepository interface {
	List() []model.User
	GetByID(id baseModel.ID) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	Create(ctx context.Context, user model.User) (*model.User, error)
	Update(ctx context.Context, id baseModel.ID, fn func(*model.User) error) (*model.User, error)

	SetSession(ctx context.Context, user model.User) error
	Session(ctx context.Context) (*model.User, error)
	ClearSession(ctx context.Context) error
}

// userRepository 基于文档存储的实现
type userRepository struct {
	store *store.Store
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(s *store.Store) UserRepository {
	return &userRepository{store: s}
}

func (r *userRepository) List() []model.User {
	return r.store.Snapshot().Users
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(id baseModel.ID) (*model.User, error) {
	u, ok := lo.Find(r.List(), func(u model.User) bool {
		return u.ID == id
	})
	if !ok {
		return nil, apperr.NotFound("user", id.String())
	}
	return &u, nil
}

// GetByUsername 根据用户名获取用户
func (r *userRepository) GetByUsername(username string) (*model.User, error) {
	u, ok := lo.Find(r.List(), func(u model.User) bool {
		return u.Username == username
	})
	if !ok {
		return nil, apperr.NotFound("user", username)
	}
	return &u, nil
}

// Create 创建用户，用户名重复时返回 ValidationError
func (r *userRepository) Create(ctx context.Context, user model.User) (*model.User, error) {
	_, err := r.store.Update(ctx, "user.create", func(d store.Document) (store.Document, error) {
		if lo.ContainsBy(d.Users, func(u model.User) bool { return u.Username == user.Username }) {
			return d, apperr.Validation("username", "username already exists")
		}
		d.Users = append(slices.Clone(d.Users), user)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 修改单个用户
func (r *userRepository) Update(ctx context.Context, id baseModel.ID, fn func(*model.User) error) (*model.User, error) {
	var updated model.User
	_, err := r.store.Update(ctx, "user.update", func(d store.Document) (store.Document, error) {
		u, i, ok := lo.FindIndexOf(d.Users, func(u model.User) bool {
			return u.ID == id
		})
		if !ok {
			return d, apperr.NotFound("user", id.String())
		}
		if err := fn(&u); err != nil {
			return d, err
		}
		d.Users = slices.Clone(d.Users)
		d.Users[i] = u
		updated = u
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *userRepository) SetSession(ctx context.Context, user model.User) error {
	return r.store.SetSession(ctx, user)
}

func (r *userRepository) Session(ctx context.Context) (*model.User, error) {
	return r.store.Session(ctx)
}

func (r *userRepository) ClearSession(ctx context.Context) error {
	return r.store.ClearSession(ctx)
}
