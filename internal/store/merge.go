package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	userModel "wonderwomen/internal/domain/user/model"

	"github.com/samber/lo"
)

// ErrCorruptDocument 持久化的文档无法解析，已回退到种子数据
var ErrCorruptDocument = errors.New("persisted document is corrupt")

// Merge 合并种子数据与持久化数据
//
//   - 持久化数据中存在的集合原样使用，否则使用种子数据
//   - users 额外追加持久化数据中没有的种子用户（按 username 判重），已有用户的字段不做合并
//   - 类型不符的集合单独回退到种子数据，其余集合照常合并，错误包含 ErrCorruptDocument
func Merge(seed, persisted []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(seed, &doc); err != nil {
		return Document{}, fmt.Errorf("decode seed: %w", err)
	}
	doc = doc.normalize()
	seedUsers := doc.Users

	if len(persisted) == 0 {
		return doc, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(persisted, &raw); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	merged := doc
	var bad []string
	for _, key := range Keys {
		data, ok := raw[string(key)]
		if !ok || string(data) == "null" {
			continue
		}
		next, err := merged.With(key, data)
		if err != nil {
			bad = append(bad, string(key))
			continue
		}
		merged = next
	}

	if _, ok := raw[string(KeyUsers)]; ok {
		merged.Users = mergeUsers(merged.Users, seedUsers)
	}
	merged = merged.normalize()
	if len(bad) > 0 {
		return merged, fmt.Errorf("%w: collections %s fell back to seed", ErrCorruptDocument, strings.Join(bad, ", "))
	}
	return merged, nil
}

// mergeUsers 追加 username 尚不存在的种子用户
func mergeUsers(persisted, seed []userModel.User) []userModel.User {
	known := lo.KeyBy(persisted, func(u userModel.User) string {
		return u.Username
	})
	missing := lo.Filter(seed, func(u userModel.User, _ int) bool {
		_, ok := known[u.Username]
		return !ok
	})
	if len(missing) == 0 {
		return persisted
	}
	out := make([]userModel.User, 0, len(persisted)+len(missing))
	out = append(out, persisted...)
	return append(out, missing...)
}
