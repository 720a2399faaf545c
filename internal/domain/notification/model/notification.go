package model

import baseModel "wonderwomen/pkg/model"

// Type 通知类型
type Type string

const (
	TypeLike         Type = "like"
	TypeReply        Type = "reply"
	TypeCommentReply Type = "comment_reply"
	TypeAnnouncement Type = "announcement"
)

// Notification 通知模型
// 由点赞、回复、公告广播产生，之后只允许修改 Read
type Notification struct {
	ID        baseModel.ID  `json:"id"`
	UserID    baseModel.ID  `json:"userId"` // 接收者
	Text      string        `json:"text"`
	Read      bool          `json:"read"`
	Timestamp string        `json:"timestamp,omitempty"`
	PostID    *baseModel.ID `json:"postId,omitempty"`
	Type      Type          `json:"type,omitempty"`
}

// Announcement 公告
type Announcement struct {
	ID   baseModel.ID `json:"id"`
	Text string       `json:"text"`
	Date string       `json:"date"`
}
