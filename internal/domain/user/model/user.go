package model

import (
	"encoding/json"

	baseModel "wonderwomen/pkg/model"
)

// Role 用户角色
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleMentor       Role = "mentor"
	RoleMentee       Role = "mentee"
	RoleEntrepreneur Role = "entrepreneur"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleMentee, RoleEntrepreneur:
		return true
	}
	return false
}

const (
	StatusActive = "active"
	StatusBanned = "banned"
)

// User 用户模型
// 角色相关的扩展字段（expertise、businessName 等）原样保存在 Extra 中
type User struct {
	ID         baseModel.ID `json:"id"`
	Username   string       `json:"username"`
	Password   string       `json:"password,omitempty"`
	Name       string       `json:"name"`
	Email      string       `json:"email,omitempty"`
	Role       Role         `json:"role"`
	Status     string       `json:"status,omitempty"`
	IsBanned   bool         `json:"isBanned,omitempty"`
	IsApproved bool         `json:"isApproved,omitempty"`
	Bio        string       `json:"bio,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Banned 账号是否被封禁
func (u User) Banned() bool {
	return u.Status == StatusBanned || u.IsBanned
}

// Actor 转换为操作者身份
func (u User) Actor() baseModel.Actor {
	return baseModel.Actor{ID: u.ID, Name: u.Name, Role: string(u.Role)}
}

// Public 返回不含密码的副本
func (u User) Public() User {
	u.Password = ""
	return u
}

type userAlias User

var knownFields = []string{
	"id", "username", "password", "name", "email", "role",
	"status", "isBanned", "isApproved", "bio",
}

// UnmarshalJSON 解析已知字段，其余字段保存在 Extra
func (u *User) UnmarshalJSON(data []byte) error {
	var alias userAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(raw, k)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*u = User(alias)
	u.Extra = raw
	return nil
}

// MarshalJSON 输出已知字段并合并 Extra
func (u User) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(userAlias(u))
	if err != nil || len(u.Extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range u.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
