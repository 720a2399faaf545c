package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ID 不透明的实体标识
// 兼容历史数据中的数字 ID（如 1712345678901），统一按字符串比较
type ID string

// String 实现 fmt.Stringer
func (id ID) String() string {
	return string(id)
}

// IsZero 是否为空 ID
func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON 同时接受 JSON 字符串和数字
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// IDPtr 返回 ID 指针，空 ID 返回 nil
func IDPtr(id ID) *ID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// Actor 当前操作者（来自 JWT claims）
type Actor struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Clock 时间源，测试时可替换
type Clock func() time.Time

// FormatTime 统一的时间戳格式
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
